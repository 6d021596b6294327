// Package mssql implements a Microsoft SQL Server history repository on
// database/sql with the go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"calibrate/internal/storage"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN   string
	Table string // e.g. "dbo.calibration_runs"
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	table, err := quote(cfg.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, table: table}, close, nil
}

// CopyFrom inserts rows in one transaction using @pN parameters.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := storage.InsertTx(ctx, r.db, insertSQL(r.table, columns), columns, rows)
	if err != nil {
		return n, fmt.Errorf("mssql: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

func quote(table string) (string, error) { return storage.QuoteIdent(table, "[", "]") }

func insertSQL(quotedTable string, columns []string) string {
	return storage.InsertSQL(quotedTable, columns, func(i int) string { return fmt.Sprintf("@p%d", i+1) })
}

// CreateTableSQL returns the history table DDL guarded by OBJECT_ID, since
// SQL Server has no CREATE TABLE IF NOT EXISTS.
func CreateTableSQL(table string) (string, error) {
	q, err := quote(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  job NVARCHAR(200) NOT NULL,
  part NVARCHAR(16) NOT NULL,
  total BIGINT NOT NULL,
  line_count BIGINT NOT NULL,
  elapsed_ms FLOAT NOT NULL,
  input_digest CHAR(16) NOT NULL,
  finished_at DATETIME2 NOT NULL
)`, table, q), nil
}
