package calibration

type name struct {
	word  string
	digit byte
}

// names is the fixed word table in digit order. It is never modified after
// package initialization.
var names = [...]name{
	{"one", '1'},
	{"two", '2'},
	{"three", '3'},
	{"four", '4'},
	{"five", '5'},
	{"six", '6'},
	{"seven", '7'},
	{"eight", '8'},
	{"nine", '9'},
}

var nameToDigit = func() map[string]byte {
	m := make(map[string]byte, len(names))
	for _, n := range names {
		m[n.word] = n.digit
	}
	return m
}()

// Digit returns the digit character spelled by word ("one" → '1').
func Digit(word string) (byte, bool) {
	d, ok := nameToDigit[word]
	return d, ok
}

// Words returns the digit words in digit order. The slice is a fresh copy.
func Words() []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.word
	}
	return out
}
