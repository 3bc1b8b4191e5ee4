package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

// quoteIdentifier quotes a table or index name that passed IsValidTableName.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// journalDDL returns the statements creating the journal table of
// internal.JournalColumns and its two indexes.
func journalDDL(table string) []string {
	timeline, path := internal.JournalIndexes(table)
	quoted := quoteIdentifier(table)

	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				op TEXT NOT NULL,
				path TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				size_bytes INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)`, quoteIdentifier(timeline), quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (path)`, quoteIdentifier(path), quoted),
	}
}

// Migrate creates the journal table and its indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, tables shelf.Tables) error {
	if !shelf.IsValidTableName(tables.Journal) {
		return fmt.Errorf("migrate: invalid table name: %s", tables.Journal)
	}

	for _, stmt := range journalDDL(tables.Journal) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", tables.Journal, err)
		}
	}
	return nil
}

// DropTables removes the journal table and its indexes.
func DropTables(ctx context.Context, db *sql.DB, tables shelf.Tables) error {
	if !shelf.IsValidTableName(tables.Journal) {
		return fmt.Errorf("drop tables: invalid table name: %s", tables.Journal)
	}

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Journal)); err != nil {
		return fmt.Errorf("drop tables %s: %w", tables.Journal, err)
	}
	return nil
}
