package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

// ValidateSchema checks that the journal table has the columns, types and
// indexes Migrate creates.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables shelf.Tables) error {
	if !shelf.IsValidTableName(tables.Journal) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Journal)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, tables.Journal)
	if err != nil {
		return fmt.Errorf("validate schema: query columns: %w", err)
	}

	columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (internal.Column, error) {
		var c internal.Column
		err := row.Scan(&c.Name, &c.Type, &c.Nullable)
		return c, err
	})
	if err != nil {
		return fmt.Errorf("validate schema: scan columns: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1
	`, tables.Journal)
	if err != nil {
		return fmt.Errorf("validate schema: query indexes: %w", err)
	}

	indexes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("validate schema: scan indexes: %w", err)
	}

	if err := internal.CheckJournal(tables.Journal, columns, indexes, postgresType); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func postgresType(c internal.JournalColumn) string {
	return c.Postgres
}
