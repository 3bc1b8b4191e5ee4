// Package database connects shelf to the backend that stores its journal.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, suited to several servers sharing one journal
//   - SQLite: single-file journal for a single server
//
// Setting the type to "none" turns the journal off; the server keeps
// serving requests without recording them.
//
// # Usage
//
//	cfg := database.Config{
//	    Type:  "sqlite",
//	    DSN:   "shelf.db",
//	    Table: "shelf_journal",
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	journal := db.GetJournal()
//
// Open pings the backend, runs migrations and validates the schema.
// Connect only opens the connection, which is what maintenance commands
// that manage the schema themselves need.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
