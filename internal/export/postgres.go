package export

import (
	"context"
	"fmt"

	"mediamarkt/crawler/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExporter replaces the contents of a table with one text column per
// header field. The table only ever holds the latest run.
type PostgresExporter struct {
	db    *pgxpool.Pool
	table string
}

func NewPostgresExporter(db *pgxpool.Pool, table string) *PostgresExporter {
	return &PostgresExporter{db: db, table: table}
}

func (e *PostgresExporter) Name() string { return "postgres:" + e.table }

func (e *PostgresExporter) Write(ctx context.Context, header []string, rows []domain.Row) error {
	tx, err := e.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range replaceTableStatements(e.table, header, pgQuoteIdent) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare table %s: %w", e.table, err)
		}
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{e.table}, header, pgx.CopyFromRows(rowValues(rows)))
	if err != nil {
		return fmt.Errorf("failed to copy rows into %s: %w", e.table, err)
	}
	if copied != int64(len(rows)) {
		return fmt.Errorf("copied %d of %d rows into %s", copied, len(rows), e.table)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

func pgQuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
