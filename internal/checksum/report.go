package checksum

import (
	"context"
	"fmt"
	"io"
	"time"

	"calibrate/internal/calibration"
	"calibrate/internal/document"
)

// Report holds the results of every part, in calibration.Parts order.
type Report struct {
	Results []Result
}

// Run computes every part over doc, part 1 first. The first failure aborts
// the run.
func Run(ctx context.Context, doc *document.Document, opts Options) (Report, error) {
	rep := Report{Results: make([]Result, 0, len(calibration.Parts))}
	for _, p := range calibration.Parts {
		res, err := Sum(ctx, doc, p, opts)
		if err != nil {
			return Report{}, fmt.Errorf("%v: %w", p, err)
		}
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

// Result returns the result for part p.
func (r Report) Result(p calibration.Part) (Result, bool) {
	for _, res := range r.Results {
		if res.Part == p {
			return res, true
		}
	}
	return Result{}, false
}

// WriteTo prints one "Solution part N: <sum> (<elapsed>)" line per result.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, res := range r.Results {
		n, err := fmt.Fprintf(w, "Solution part %d: %d (%s)\n",
			int(res.Part), res.Sum, res.Elapsed.Round(time.Microsecond))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
