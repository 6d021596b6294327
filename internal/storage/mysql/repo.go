// Package mysql implements a MySQL history repository on database/sql with
// the go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"calibrate/internal/storage"

	"github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN   string // e.g. "user:pass@tcp(127.0.0.1:3306)/calibration?parseTime=true"
	Table string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository opens a connection pool and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// finished_at is written as time.Time.
	dsn.ParseTime = true

	table, err := quote(cfg.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: %w", err)
	}

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repository{db: db, table: table}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	stmt := storage.InsertSQL(r.table, columns, func(int) string { return "?" })
	n, err := storage.InsertTx(ctx, r.db, stmt, columns, rows)
	if err != nil {
		return n, fmt.Errorf("mysql: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

func quote(table string) (string, error) { return storage.QuoteIdent(table, "`", "`") }

// CreateTableSQL returns the history table DDL.
func CreateTableSQL(table string) (string, error) {
	q, err := quote(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  job VARCHAR(200) NOT NULL,
  part VARCHAR(16) NOT NULL,
  total BIGINT NOT NULL,
  line_count BIGINT NOT NULL,
  elapsed_ms DOUBLE NOT NULL,
  input_digest CHAR(16) NOT NULL,
  finished_at DATETIME(6) NOT NULL
)`, q), nil
}
