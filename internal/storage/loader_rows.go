package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// InsertSQL builds "INSERT INTO <table> (<cols>) VALUES (<placeholders>)".
// placeholder returns the marker for the i-th (0-based) column.
func InsertSQL(quotedTable string, columns []string, placeholder func(i int) string) string {
	ph := make([]string, len(columns))
	for i := range ph {
		ph[i] = placeholder(i)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quotedTable, strings.Join(columns, ", "), strings.Join(ph, ", "))
}

// InsertTx executes stmt once per row inside a single transaction, for
// database/sql backends without a bulk-load API. Either all rows are
// inserted or none.
func InsertTx(ctx context.Context, db *sql.DB, stmt string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	ps, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer ps.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := ps.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(rows)), nil
}
