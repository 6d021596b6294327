// Package checksum sums calibration values over a document and reports the
// totals for each part.
//
// Sum applies one part's extractor to every line. With Options.Workers > 1
// the lines are split into contiguous chunks that are processed concurrently
// under an errgroup; addition is commutative, so the result does not depend
// on the schedule. Any line without a qualifying digit fails the whole sum:
// there are no partial results.
package checksum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"calibrate/internal/calibration"
	"calibrate/internal/document"
	"calibrate/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny documents on a single goroutine.
const minChunk = 256

// Options tunes a summation run.
type Options struct {
	// Workers is the number of goroutines extracting lines. Values <= 1 run
	// the plain sequential loop.
	Workers int
	// Job labels emitted metrics.
	Job string
}

// Result is the outcome of one part over one document.
type Result struct {
	Part    calibration.Part
	Sum     int
	Lines   int
	Elapsed time.Duration
	// Digest identifies the document content (see document.Document.Digest).
	Digest uint64
}

// LineError attributes an extraction failure to a 1-based line number.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Sum runs part's extractor over every line of doc and adds up the values.
func Sum(ctx context.Context, doc *document.Document, part calibration.Part, opts Options) (Result, error) {
	extract := part.Extractor()
	if extract == nil {
		return Result{}, fmt.Errorf("checksum: unknown %v", part)
	}

	start := time.Now()
	lines := doc.Lines()

	var (
		sum int
		err error
	)
	if opts.Workers <= 1 || len(lines) < 2*minChunk {
		sum, err = sumRange(ctx, lines, 0, extract)
	} else {
		sum, err = sumParallel(ctx, lines, opts.Workers, extract)
	}

	elapsed := time.Since(start)
	metrics.RecordPhase(opts.Job, part.Label(), err, elapsed)
	if err != nil {
		return Result{}, err
	}
	metrics.RecordLines(opts.Job, part.Label(), len(lines))

	return Result{
		Part:    part,
		Sum:     sum,
		Lines:   len(lines),
		Elapsed: elapsed,
		Digest:  doc.Digest(),
	}, nil
}

// sumRange is the sequential loop. offset is the index of lines[0] in the
// document, used for error line numbers.
func sumRange(ctx context.Context, lines []string, offset int, extract calibration.Extractor) (int, error) {
	sum := 0
	for i, line := range lines {
		if i%minChunk == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		v, err := extract(line)
		if err != nil {
			return 0, &LineError{Line: offset + i + 1, Err: err}
		}
		sum += v
	}
	return sum, nil
}

func sumParallel(ctx context.Context, lines []string, workers int, extract calibration.Extractor) (int, error) {
	chunk := (len(lines) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu    sync.Mutex
		total int
		first *LineError
	)
	for lo := 0; lo < len(lines); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(lines))
		g.Go(func() error {
			s, err := sumRange(gctx, lines[lo:hi], lo, extract)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Report the earliest failing line seen.
				var le *LineError
				if errors.As(err, &le) && (first == nil || le.Line < first.Line) {
					first = le
				}
				return err
			}
			total += s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if first != nil {
			return 0, first
		}
		return 0, err
	}
	return total, nil
}
