package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/shelf"

	_ "modernc.org/sqlite" // SQLite driver
)

type backend struct {
	db     *sql.DB
	tables shelf.Tables
}

// Connect opens the SQLite file named by dsn. The table names must already
// be valid.
func Connect(_ context.Context, dsn string, tables shelf.Tables) (*backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// One connection serialises journal writers and keeps a ":memory:"
	// journal in a single database.
	db.SetMaxOpenConns(1)

	return &backend{db: db, tables: tables}, nil
}

func (b *backend) Ping(ctx context.Context) error     { return b.db.PingContext(ctx) }
func (b *backend) Migrate(ctx context.Context) error  { return Migrate(ctx, b.db, b.tables) }
func (b *backend) Validate(ctx context.Context) error { return ValidateSchema(ctx, b.db, b.tables) }

// GetJournal returns the journal stored in the configured table.
func (b *backend) GetJournal() shelf.Journal {
	return &journal{db: b.db, tableName: b.tables.Journal}
}

func (b *backend) Close() error { return b.db.Close() }
