// Package config provides configuration loading and validation for shelf.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SHELF_ prefix)
//  4. CLI flags that were explicitly set
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = config.WithContext(ctx, cfg)
//
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with SHELF_ prefix:
//   - server.port → SHELF_SERVER_PORT
//   - storage.path → SHELF_STORAGE_PATH
//   - journal.dsn → SHELF_JOURNAL_DSN
//
// # Configuration Structure
//
//   - Server: port and max_upload_size (0 means unlimited)
//   - Storage: root directory served under /storage/
//   - Journal: type (none, sqlite, postgres), DSN and table name
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//   - Env: dev for colored console logs, prod for JSON logs
package config
