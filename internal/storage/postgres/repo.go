// Package postgres implements a Postgres history repository using pgx v5.
// Rows are appended with the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"calibrate/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // target table, optionally schema-qualified, e.g. "public.calibration_runs"
}

// pool is the subset of *pgxpool.Pool the repository uses.
type pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool  pool
	table pgx.Identifier
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	ident, err := storage.SplitIdent(cfg.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	p, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: p, table: pgx.Identifier(ident)}, p.Close, nil
}

// CopyFrom appends rows with COPY ... FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("postgres: CopyFrom: row %d length %d != columns length %d", i, len(row), len(columns))
		}
	}
	n, err := r.pool.CopyFrom(ctx, r.table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", r.table.Sanitize(), err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// CreateTableSQL returns the history table DDL.
func CreateTableSQL(table string) (string, error) {
	ident, err := storage.SplitIdent(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id bigserial PRIMARY KEY,
  job text NOT NULL,
  part text NOT NULL,
  total bigint NOT NULL,
  line_count bigint NOT NULL,
  elapsed_ms double precision NOT NULL,
  input_digest text NOT NULL,
  finished_at timestamptz NOT NULL
)`, pgx.Identifier(ident).Sanitize()), nil
}
