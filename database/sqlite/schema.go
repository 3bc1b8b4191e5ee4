package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

// ValidateSchema checks that the journal table has the columns, types and
// indexes Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables shelf.Tables) error {
	if !shelf.IsValidTableName(tables.Journal) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Journal)
	}

	columns, err := queryAll(ctx, db, func(rows *sql.Rows) (internal.Column, error) {
		var c internal.Column
		err := rows.Scan(&c.Name, &c.Type, &c.Nullable)
		return c, err
	}, `SELECT name, type, "notnull" = 0 FROM pragma_table_info(?)`, tables.Journal)
	if err != nil {
		return fmt.Errorf("validate schema: columns: %w", err)
	}

	indexes, err := queryAll(ctx, db, func(rows *sql.Rows) (string, error) {
		var name string
		err := rows.Scan(&name)
		return name, err
	}, `SELECT name FROM pragma_index_list(?)`, tables.Journal)
	if err != nil {
		return fmt.Errorf("validate schema: indexes: %w", err)
	}

	if err := internal.CheckJournal(tables.Journal, columns, indexes, sqliteType); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func sqliteType(c internal.JournalColumn) string {
	return c.SQLite
}

func queryAll[T any](ctx context.Context, db *sql.DB, scan func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
