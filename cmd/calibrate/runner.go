package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"calibrate/internal/checksum"
	"calibrate/internal/config"
	"calibrate/internal/document"
	"calibrate/internal/storage"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	nowFn = time.Now
)

// runner computes and prints the report for cfg.Input.Path, appending a
// history row per part when storage is configured. One runner serves every
// re-run in watch mode so the history connection is opened once.
type runner struct {
	cfg     config.Run
	out     io.Writer
	verbose bool
	repo    storage.Repository // nil when history is disabled
}

func newRunner(ctx context.Context, cfg config.Run, out io.Writer, verbose bool) (*runner, error) {
	r := &runner{cfg: cfg, out: out, verbose: verbose}
	if cfg.Storage.Kind == "" {
		return r, nil
	}

	repo, err := initRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := ensureTableExists(ctx, repo, cfg, verbose); err != nil {
		repo.Close()
		return nil, err
	}
	r.repo = repo
	return r, nil
}

// initRepository constructs the history repository from the run config.
func initRepository(ctx context.Context, cfg config.Run) (storage.Repository, error) {
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:  cfg.Storage.Kind,
		DSN:   cfg.Storage.DB.DSN,
		Table: cfg.Storage.DB.Table,
	})
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

// ensureTableExists creates the history table when AutoCreateTable is set.
func ensureTableExists(ctx context.Context, repo storage.Repository, cfg config.Run, verbose bool) error {
	if !cfg.Storage.DB.AutoCreateTable {
		return nil
	}
	infof(verbose, "auto-create table enabled for %s", cfg.Storage.DB.Table)
	if err := storage.EnsureTable(ctx, cfg.Storage.Kind, repo, cfg.Storage.DB.Table); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}

// once loads the document, prints both parts and records history. Nothing
// is printed or stored when either part fails.
func (r *runner) once(ctx context.Context) error {
	doc, err := document.Load(ctx, r.cfg.Input.Path)
	if err != nil {
		return err
	}

	rep, err := checksum.Run(ctx, doc, checksum.Options{
		Workers: r.cfg.Runtime.Workers,
		Job:     r.cfg.Job,
	})
	if err != nil {
		return err
	}

	if _, err := rep.WriteTo(r.out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if r.repo == nil {
		return nil
	}
	n, err := storage.SaveReport(ctx, r.repo, r.cfg.Job, rep, nowFn())
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	infof(r.verbose, "history: stored %d rows in %s", n, r.cfg.Storage.DB.Table)
	return nil
}

// Close releases the history connection, if any. It is safe to call twice.
func (r *runner) Close() {
	if r.repo != nil {
		r.repo.Close()
		r.repo = nil
	}
}
