package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

func createJournalTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	timeline, path := internal.JournalIndexes(tableName)
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexTimeline := pgx.Identifier{timeline}.Sanitize()
	indexPath := pgx.Identifier{path}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			op TEXT NOT NULL,
			path TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at, id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (path text_pattern_ops);
	`,
		quotedTable,
		indexTimeline, quotedTable,
		indexPath, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create journal table: %w", err)
	}
	return nil
}

func dropJournalTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop journal table: %w", err)
	}
	return nil
}

// Migrate creates the journal table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables shelf.Tables) error {
	if err := createJournalTable(ctx, pool, tables.Journal); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes every table Migrate creates.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables shelf.Tables) error {
	if err := dropJournalTable(ctx, pool, tables.Journal); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
