package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/postgres"
	"github.com/sagarc03/shelf/database/sqlite"
)

// TypeNone disables the journal.
const TypeNone = "none"

// Config holds the configuration for connecting to a journal backend.
type Config struct {
	// Type specifies the database type: "sqlite", "postgres" or "none"
	Type string `mapstructure:"type" validate:"omitempty,oneof=none sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required_unless=Type none"`
	// Table is the name of the journal table
	Table string `mapstructure:"table"`
}

// Enabled reports whether a journal backend is configured.
func (c Config) Enabled() bool {
	return c.Type != "" && c.Type != TypeNone
}

// Database is a connected journal backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetJournal() shelf.Journal
	Close() error
}

// Connect returns a backend for cfg without touching the schema.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	tables := shelf.Tables{Journal: cfg.Table}
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects to the backend, runs migrations and validates the schema.
// The returned Database must be closed by the caller.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ping", db.Ping},
		{"migrate", db.Migrate},
		{"validate schema", db.Validate},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s %s: %w", step.name, cfg.Type, err)
		}
	}

	return db, nil
}
