// Package calibration extracts calibration values from lines of a calibration
// document. A calibration value is the two-digit number formed by the first
// and the last qualifying digit of a line, in that order.
//
// Two extractors are provided:
//
//   - DigitValue: qualifying digits are ASCII numerals.
//   - WordOrDigitValue: qualifying digits are ASCII numerals 1-9 or the
//     English words "one" through "nine". Matches may overlap, so "oneight"
//     yields both 1 and 8.
//
// Both extractors are pure and safe for concurrent use.
package calibration

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNoDigit is returned (wrapped in *NoDigitError) when a line contains no
// qualifying digit.
var ErrNoDigit = errors.New("no digit found")

// NoDigitError reports a line without a single qualifying digit.
type NoDigitError struct {
	Part Part
	Text string
}

func (e *NoDigitError) Error() string {
	return fmt.Sprintf("%s: %v in %q", e.Part, ErrNoDigit, e.Text)
}

// Unwrap lets errors.Is(err, ErrNoDigit) match.
func (e *NoDigitError) Unwrap() error { return ErrNoDigit }

// Extractor turns one line into its calibration value.
type Extractor func(line string) (int, error)

// Digits returns the ASCII decimal digits of line, in order.
func Digits(line string) string {
	buf := make([]byte, 0, 8)
	for i := 0; i < len(line); i++ {
		if c := line[i]; isDigit(c) {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

// WordOrDigits returns the digit of every numeral 1-9 and every digit word
// found in line, ordered by starting offset.
//
// The scan tests every offset and advances by one byte after a match instead
// of skipping past the matched word, so overlapping words are all reported:
// "twone" yields "21".
func WordOrDigits(line string) string {
	buf := make([]byte, 0, 8)
	for i := 0; i < len(line); i++ {
		if d, ok := digitAt(line, i); ok {
			buf = append(buf, d)
		}
	}
	return string(buf)
}

// DigitValue is the extractor for numerals only.
func DigitValue(line string) (int, error) {
	return value(Part1, line, Digits(line))
}

// WordOrDigitValue is the extractor for numerals and digit words.
func WordOrDigitValue(line string) (int, error) {
	return value(Part2, line, WordOrDigits(line))
}

// value combines the first and last digit of digits. A single digit fills
// both positions.
func value(p Part, line, digits string) (int, error) {
	if digits == "" {
		return 0, &NoDigitError{Part: p, Text: line}
	}
	pair := string([]byte{digits[0], digits[len(digits)-1]})
	n, err := strconv.Atoi(pair)
	if err != nil {
		return 0, fmt.Errorf("%s: parse %q: %w", p, pair, err)
	}
	return n, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// digitAt reports the digit whose numeral or word starts at offset i.
// '0' is not a qualifying numeral here since no word spells it.
func digitAt(line string, i int) (byte, bool) {
	if c := line[i]; c >= '1' && c <= '9' {
		return c, true
	}
	for _, w := range names {
		if len(line)-i >= len(w.word) && line[i:i+len(w.word)] == w.word {
			return w.digit, true
		}
	}
	return 0, false
}
