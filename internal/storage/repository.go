// Package storage defines the backend-agnostic sink for calibration run
// history and a kind-keyed factory for concrete backends.
//
// Backends live in subpackages (sqlite, postgres, mssql, mysql) and register
// themselves from init; importing calibrate/internal/storage/all enables all
// of them. Callers only depend on this package:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "runs.db", Table: "calibration_runs"})
//	if err != nil { ... }
//	defer repo.Close()
//	if err := storage.EnsureTable(ctx, "sqlite", repo, "calibration_runs"); err != nil { ... }
//	if _, err := storage.SaveReport(ctx, repo, "day1", report, time.Now()); err != nil { ... }
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Repository is the minimal write interface every backend implements.
type Repository interface {
	// CopyFrom appends rows to the configured table. len(row) must equal
	// len(columns) for every row.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a statement that returns no rows (typically DDL).
	Exec(ctx context.Context, sql string) error
	// Close releases the connection pool.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
