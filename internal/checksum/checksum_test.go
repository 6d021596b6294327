package checksum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"calibrate/internal/calibration"
	"calibrate/internal/document"
)

const (
	sample1 = "1abc2\npqr3stu8vwx\na1b2c3d4e5f\ntreb7uchet\n"
	sample2 = "two1nine\neightwothree\nabcone2threexyz\nxtwone3four\n4nineeightseven2\nzoneight234\n7pqrstsixteen\n"
)

func TestSum_Samples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		part calibration.Part
		want int
	}{
		{"part1 sample", sample1, calibration.Part1, 142},
		{"part2 sample", sample2, calibration.Part2, 281},
		{"part2 over part1 sample", sample1, calibration.Part2, 142},
		{"overlap line", "oneight", calibration.Part2, 18},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := document.FromString(tt.name, tt.text)
			res, err := Sum(context.Background(), doc, tt.part, Options{})
			if err != nil {
				t.Fatalf("Sum error = %v", err)
			}
			if res.Sum != tt.want {
				t.Fatalf("Sum = %d, want %d", res.Sum, tt.want)
			}
			if res.Lines != doc.Len() || res.Part != tt.part || res.Digest != doc.Digest() {
				t.Fatalf("Result = %+v", res)
			}
		})
	}
}

func TestSum_EmptyDocument(t *testing.T) {
	t.Parallel()

	res, err := Sum(context.Background(), document.FromString("empty", ""), calibration.Part1, Options{})
	if err != nil {
		t.Fatalf("Sum error = %v", err)
	}
	if res.Sum != 0 || res.Lines != 0 {
		t.Fatalf("Result = %+v, want zero sum and lines", res)
	}
}

func TestSum_NoDigitIsFatal(t *testing.T) {
	t.Parallel()

	doc := document.FromString("bad", "1abc2\nnodigits\ntreb7uchet")
	_, err := Sum(context.Background(), doc, calibration.Part1, Options{})
	if err == nil {
		t.Fatalf("Sum error = nil, want NoDigit failure")
	}
	if !errors.Is(err, calibration.ErrNoDigit) {
		t.Fatalf("error = %v, want ErrNoDigit in chain", err)
	}
	var le *LineError
	if !errors.As(err, &le) || le.Line != 2 {
		t.Fatalf("error = %v, want LineError at line 2", err)
	}
}

func TestSum_UnknownPart(t *testing.T) {
	t.Parallel()

	if _, err := Sum(context.Background(), document.FromString("x", "1"), calibration.Part(9), Options{}); err == nil {
		t.Fatalf("Sum with unknown part error = nil")
	}
}

// numeralLines has a numeral on every line, so both parts succeed on it.
// Per repetition part 1 sums to 287 and part 2 to 285.
const numeralLines = sample1 + "two1nine\nxtwone3four\nzoneight234\n7pqrstsixteen\n"

// bigDocument repeats numeralLines enough times to take the parallel path.
func bigDocument(reps int) *document.Document {
	return document.FromString("big", strings.Repeat(numeralLines, reps))
}

func TestSum_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	const reps = 500 // 4000 lines
	doc := bigDocument(reps)
	want := map[calibration.Part]int{
		calibration.Part1: 287 * reps,
		calibration.Part2: 285 * reps,
	}
	for _, p := range calibration.Parts {
		seq, err := Sum(context.Background(), doc, p, Options{Workers: 1})
		if err != nil {
			t.Fatalf("%v sequential error = %v", p, err)
		}
		if seq.Sum != want[p] {
			t.Fatalf("%v sequential sum = %d, want %d", p, seq.Sum, want[p])
		}
		for _, w := range []int{2, 3, 8, 64} {
			par, err := Sum(context.Background(), doc, p, Options{Workers: w})
			if err != nil {
				t.Fatalf("%v workers=%d error = %v", p, w, err)
			}
			if par.Sum != seq.Sum {
				t.Fatalf("%v workers=%d sum = %d, want %d", p, w, par.Sum, seq.Sum)
			}
		}
	}
}

func TestSum_ParallelPart2Sample(t *testing.T) {
	t.Parallel()

	doc := document.FromString("big2", strings.Repeat(sample2, 500)) // 3500 lines
	res, err := Sum(context.Background(), doc, calibration.Part2, Options{Workers: 4})
	if err != nil {
		t.Fatalf("parallel part2 error = %v", err)
	}
	if res.Sum != 281*500 {
		t.Fatalf("parallel part2 sum = %d, want %d", res.Sum, 281*500)
	}
}

func TestSum_ParallelNoDigit(t *testing.T) {
	t.Parallel()

	lines := strings.Split(strings.TrimSpace(strings.Repeat(sample1, 300)), "\n")
	lines[1000] = "broken"
	doc := document.FromString("big", strings.Join(lines, "\n"))

	_, err := Sum(context.Background(), doc, calibration.Part1, Options{Workers: 4})
	var le *LineError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LineError", err)
	}
	if le.Line != 1001 {
		t.Fatalf("LineError.Line = %d, want 1001", le.Line)
	}
	if !errors.Is(err, calibration.ErrNoDigit) {
		t.Fatalf("error = %v, want ErrNoDigit", err)
	}
}

func TestSum_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sum(ctx, bigDocument(10), calibration.Part1, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestRun_ReportAndIdempotence(t *testing.T) {
	t.Parallel()

	// Every line carries a numeral, so both parts succeed.
	doc := document.FromString("mixed", sample1+"two1nine\nxtwone3four\nzoneight234\n7pqrstsixteen\n")

	first, err := Run(context.Background(), doc, Options{})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	second, err := Run(context.Background(), doc, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}

	for _, p := range calibration.Parts {
		a, ok := first.Result(p)
		if !ok {
			t.Fatalf("first report missing %v", p)
		}
		b, _ := second.Result(p)
		if a.Sum != b.Sum {
			t.Fatalf("%v: sums differ between runs: %d vs %d", p, a.Sum, b.Sum)
		}
	}

	if p2, _ := first.Result(calibration.Part2); p2.Sum != 142+29+24+14+76 {
		t.Fatalf("part 2 sum = %d, want %d", p2.Sum, 142+29+24+14+76)
	}

	// "eightwothree" has no numeral, so part 1 of sample2 fails the run.
	if _, err := Run(context.Background(), document.FromString("s2", sample2), Options{}); err == nil {
		t.Fatalf("Run over sample2 error = nil, want part 1 failure")
	}

	var buf bytes.Buffer
	if _, err := first.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error = %v", err)
	}
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) != 2 {
		t.Fatalf("WriteTo printed %d lines, want 2: %q", len(out), buf.String())
	}
	p1, _ := first.Result(calibration.Part1)
	p2, _ := first.Result(calibration.Part2)
	for i, want := range []int{p1.Sum, p2.Sum} {
		re := regexp.MustCompile(fmt.Sprintf(`^Solution part %d: %d \(.+\)$`, i+1, want))
		if !re.MatchString(out[i]) {
			t.Fatalf("line %d = %q, want match %s", i+1, out[i], re)
		}
	}
}

func TestRun_FailureWrapsPart(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), document.FromString("x", "abc"), Options{})
	if err == nil || !strings.HasPrefix(err.Error(), "part 1: line 1:") {
		t.Fatalf("error = %v, want part 1 line 1 failure", err)
	}
}

func BenchmarkSum(b *testing.B) {
	doc := bigDocument(1000)
	for _, w := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", w), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Sum(context.Background(), doc, calibration.Part2, Options{Workers: w})
			}
		})
	}
}

func TestSum_TestdataFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file string
		part calibration.Part
		want int
	}{
		{"sample1.txt", calibration.Part1, 142},
		{"sample2.txt", calibration.Part2, 281},
	}
	for _, tt := range tests {
		doc, err := document.Load(context.Background(), "../../testdata/"+tt.file)
		if err != nil {
			t.Fatalf("Load(%s): %v", tt.file, err)
		}
		res, err := Sum(context.Background(), doc, tt.part, Options{Workers: 2})
		if err != nil {
			t.Fatalf("Sum(%s, %v): %v", tt.file, tt.part, err)
		}
		if res.Sum != tt.want {
			t.Fatalf("Sum(%s, %v) = %d, want %d", tt.file, tt.part, res.Sum, tt.want)
		}
	}
}
