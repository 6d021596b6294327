// Package document loads a calibration document into memory.
//
// A document is read once, in full, and normalized:
//
//   - a leading byte order mark is removed (UTF-16 input is decoded to UTF-8);
//   - leading and trailing whitespace of the whole text is trimmed;
//   - the text is split on '\n' and trailing whitespace (including '\r') is
//     trimmed from every line.
//
// A Document never changes after construction.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMissingInput is wrapped by every error that prevents the input file from
// being read.
var ErrMissingInput = errors.New("missing input file")

// Document is an immutable, in-memory calibration document.
type Document struct {
	path   string
	lines  []string
	digest uint64
}

// Load reads and normalizes the file at path.
//
// Filesystem errors are wrapped together with ErrMissingInput, so both
// errors.Is(err, ErrMissingInput) and errors.Is(err, os.ErrNotExist) work.
func Load(ctx context.Context, path string) (*Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raw, err := readAll(path)
	if err != nil {
		return nil, fmt.Errorf("document: %w: %w", ErrMissingInput, err)
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, fmt.Errorf("document: decode %s: %w", path, err)
	}
	return FromString(path, string(text)), nil
}

// FromString builds a document from text already in memory. name is used
// only for reporting.
func FromString(name, text string) *Document {
	d := &Document{path: name}
	if text = strings.TrimSpace(text); text != "" {
		d.lines = strings.Split(text, "\n")
		for i, l := range d.lines {
			d.lines[i] = strings.TrimRight(l, " \t\r\v\f")
		}
	}
	d.digest = xxh3.HashString(strings.Join(d.lines, "\n"))
	return d
}

// Lines returns the document lines. Callers must not modify the slice.
func (d *Document) Lines() []string { return d.lines }

// Len reports the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Digest is the xxh3 hash of the normalized lines joined by '\n'. Line
// endings and BOMs do not change it.
func (d *Document) Digest() uint64 { return d.digest }

// Path is the file the document was loaded from, or the name given to
// FromString.
func (d *Document) Path() string { return d.path }

func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	adviseSequential(f)

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
