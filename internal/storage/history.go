package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"calibrate/internal/checksum"
)

// HistoryColumns is the positional column order of a history row.
var HistoryColumns = []string{
	"job",
	"part",
	"total",
	"line_count",
	"elapsed_ms",
	"input_digest",
	"finished_at",
}

// HistoryRows converts a report into one row per part. Only run summaries are
// stored, never per-line values.
func HistoryRows(job string, rep checksum.Report, finishedAt time.Time) [][]any {
	rows := make([][]any, 0, len(rep.Results))
	for _, res := range rep.Results {
		rows = append(rows, []any{
			job,
			res.Part.Label(),
			int64(res.Sum),
			int64(res.Lines),
			float64(res.Elapsed.Microseconds()) / 1000,
			fmt.Sprintf("%016x", res.Digest),
			finishedAt.UTC(),
		})
	}
	return rows
}

// SaveReport appends rep to the history table behind repo.
func SaveReport(ctx context.Context, repo Repository, job string, rep checksum.Report, finishedAt time.Time) (int64, error) {
	return repo.CopyFrom(ctx, HistoryColumns, HistoryRows(job, rep, finishedAt))
}

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SplitIdent splits a possibly schema-qualified table name ("dbo.runs") and
// rejects anything that is not a plain identifier, so backends can quote the
// parts without escaping.
func SplitIdent(name string) ([]string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	for _, p := range parts {
		if !identPart.MatchString(p) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return parts, nil
}

// QuoteIdent quotes each part of name with open/close and joins them with '.'.
func QuoteIdent(name, open, close string) (string, error) {
	parts, err := SplitIdent(name)
	if err != nil {
		return "", err
	}
	for i, p := range parts {
		parts[i] = open + p + close
	}
	return strings.Join(parts, "."), nil
}
