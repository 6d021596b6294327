package calibration

import "fmt"

// Part selects which qualifying-digit rule applies.
type Part int

const (
	// Part1 counts ASCII numerals only.
	Part1 Part = iota + 1
	// Part2 also counts the words "one" through "nine".
	Part2
)

// Parts lists every part in reporting order.
var Parts = []Part{Part1, Part2}

func (p Part) String() string {
	switch p {
	case Part1, Part2:
		return fmt.Sprintf("part %d", int(p))
	default:
		return fmt.Sprintf("part(%d)", int(p))
	}
}

// Label is the short metric/storage label ("part1", "part2").
func (p Part) Label() string { return fmt.Sprintf("part%d", int(p)) }

// Extractor returns the extractor for p, or nil for an unknown part.
func (p Part) Extractor() Extractor {
	switch p {
	case Part1:
		return DigitValue
	case Part2:
		return WordOrDigitValue
	default:
		return nil
	}
}
