package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/shelf"
)

// applicationName tags shelf sessions in pg_stat_activity unless the DSN sets one.
const applicationName = "shelf"

type backend struct {
	pool   *pgxpool.Pool
	tables shelf.Tables
}

// Connect creates a lazy pool for dsn. The table names must already be valid.
func Connect(ctx context.Context, dsn string, tables shelf.Tables) (*backend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &backend{pool: pool, tables: tables}, nil
}

func (b *backend) Ping(ctx context.Context) error     { return b.pool.Ping(ctx) }
func (b *backend) Migrate(ctx context.Context) error  { return Migrate(ctx, b.pool, b.tables) }
func (b *backend) Validate(ctx context.Context) error { return ValidateSchema(ctx, b.pool, b.tables) }

// GetJournal returns the journal stored in the configured table.
func (b *backend) GetJournal() shelf.Journal {
	return &journal{pool: b.pool, tableName: b.tables.Journal}
}

func (b *backend) Close() error {
	b.pool.Close()
	return nil
}
