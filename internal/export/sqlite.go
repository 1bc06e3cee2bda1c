package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mediamarkt/crawler/internal/domain"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteExporter writes rows into a local SQLite table, replacing its contents.
type SQLiteExporter struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteExporter(db *sql.DB, table string) *SQLiteExporter {
	return &SQLiteExporter{db: db, table: table}
}

func (e *SQLiteExporter) Name() string { return "sqlite:" + e.table }

func (e *SQLiteExporter) Write(ctx context.Context, header []string, rows []domain.Row) error {
	columns := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, name := range header {
		columns[i] = quoteIdent(name)
		placeholders[i] = "?"
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range replaceTableStatements(e.table, header, quoteIdent) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare table %s: %w", e.table, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(e.table), strings.Join(columns, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	for i, args := range rowValues(rows) {
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
