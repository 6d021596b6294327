package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"calibrate/internal/calibration"
	"calibrate/internal/checksum"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	closed  bool
	columns []string
	rows    [][]any
	execs   []string
	execErr error
}

func (f *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.columns = columns
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return f.execErr
}

func (f *fakeRepo) Close() { f.closed = true }

func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: kind})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}

	found := false
	for _, k := range ListKinds() {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("registered kind %q not present in ListKinds: %v", kind, ListKinds())
	}
}

func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
	if got, want := err.Error(), "unsupported storage.kind=does-not-exist"; got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

// TestRegister_Override verifies that re-registering a kind replaces the
// previous factory.
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls++
		return &fakeRepo{}, nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls += 10
		return &fakeRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: kind}); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if calls != 10 {
		t.Fatalf("calls = %d, want 10 (second factory only)", calls)
	}
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	RegisterDDL("fake-ddl", func(table string) (string, error) { return "CREATE " + table, nil })

	repo := &fakeRepo{}
	if err := EnsureTable(context.Background(), "fake-ddl", repo, "runs"); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if !reflect.DeepEqual(repo.execs, []string{"CREATE runs"}) {
		t.Fatalf("execs = %q", repo.execs)
	}

	if err := EnsureTable(context.Background(), "no-ddl", repo, "runs"); err == nil {
		t.Fatalf("EnsureTable without registration: error = nil")
	}

	boom := errors.New("permission denied")
	if err := EnsureTable(context.Background(), "fake-ddl", &fakeRepo{execErr: boom}, "runs"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestSaveReport(t *testing.T) {
	t.Parallel()

	rep := checksum.Report{Results: []checksum.Result{
		{Part: calibration.Part1, Sum: 142, Lines: 4, Elapsed: 250 * time.Microsecond, Digest: 1},
		{Part: calibration.Part2, Sum: 281, Lines: 7, Elapsed: 3 * time.Millisecond, Digest: 1},
	}}
	at := time.Date(2023, 12, 1, 7, 0, 0, 0, time.FixedZone("CET", 3600))

	repo := &fakeRepo{}
	n, err := SaveReport(context.Background(), repo, "day1", rep, at)
	if err != nil || n != 2 {
		t.Fatalf("SaveReport = %d, %v; want 2, nil", n, err)
	}
	if !reflect.DeepEqual(repo.columns, HistoryColumns) {
		t.Fatalf("columns = %v", repo.columns)
	}

	want := []any{"day1", "part1", int64(142), int64(4), 0.25, "0000000000000001", at.UTC()}
	if !reflect.DeepEqual(repo.rows[0], want) {
		t.Fatalf("row[0] = %#v, want %#v", repo.rows[0], want)
	}
	if repo.rows[1][1] != "part2" || repo.rows[1][4] != 3.0 {
		t.Fatalf("row[1] = %#v", repo.rows[1])
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "runs", want: `"runs"`},
		{in: "public.runs", want: `"public"."runs"`},
		{in: "_x1", want: `"_x1"`},
		{in: "", wantErr: true},
		{in: "a.b.c", wantErr: true},
		{in: "runs;drop", wantErr: true},
		{in: `ru"ns`, wantErr: true},
		{in: "9lives", wantErr: true},
	}
	for _, tt := range tests {
		got, err := QuoteIdent(tt.in, `"`, `"`)
		if (err != nil) != tt.wantErr {
			t.Fatalf("QuoteIdent(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := InsertSQL(`"runs"`, []string{"a", "b"}, func(int) string { return "?" })
	if want := `INSERT INTO "runs" (a, b) VALUES (?, ?)`; got != want {
		t.Fatalf("InsertSQL = %q, want %q", got, want)
	}
	if !strings.Contains(InsertSQL("t", []string{"a", "b"}, func(i int) string { return "$" + string(rune('1'+i)) }), "($1, $2)") {
		t.Fatalf("placeholder index not passed through")
	}
}

func TestHistoryColumns(t *testing.T) {
	t.Parallel()

	want := []string{"job", "part", "total", "line_count", "elapsed_ms", "input_digest", "finished_at"}
	if !reflect.DeepEqual(HistoryColumns, want) {
		t.Fatalf("HistoryColumns = %v, want %v", HistoryColumns, want)
	}
}
