package internal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrJournalMissing is returned when the journal table has not been migrated.
var ErrJournalMissing = errors.New("journal table does not exist")

// Column is a journal column as the database reports it.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// JournalColumn is one column of the journal layout with the type name each
// backend reports for it.
type JournalColumn struct {
	Name     string
	Postgres string
	SQLite   string
}

// JournalColumns is the layout both backends migrate. Every column is NOT NULL.
var JournalColumns = []JournalColumn{
	{Name: "id", Postgres: "uuid", SQLite: "text"},
	{Name: "op", Postgres: "text", SQLite: "text"},
	{Name: "path", Postgres: "text", SQLite: "text"},
	{Name: "source", Postgres: "text", SQLite: "text"},
	{Name: "size_bytes", Postgres: "bigint", SQLite: "integer"},
	{Name: "created_at", Postgres: "timestamp with time zone", SQLite: "text"},
}

// JournalIndexes returns the names of the keyset pagination index and the
// path prefix index of table.
func JournalIndexes(table string) (timeline, path string) {
	return "idx_" + table + "_timeline", "idx_" + table + "_path"
}

// SchemaError lists how a journal table differs from JournalColumns.
type SchemaError struct {
	Table   string
	Missing []string
	Wrong   []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Wrong...)
	return fmt.Sprintf("journal table %s: %s", e.Table, strings.Join(parts, "; "))
}

// CheckJournal compares the columns and indexes reported for table with the
// journal layout. typeOf picks the backend's type name for a column.
func CheckJournal(table string, columns []Column, indexes []string, typeOf func(JournalColumn) string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: %s", ErrJournalMissing, table)
	}

	reported := make(map[string]Column, len(columns))
	for _, c := range columns {
		reported[c.Name] = c
	}

	schemaErr := &SchemaError{Table: table}

	for _, want := range JournalColumns {
		got, ok := reported[want.Name]
		if !ok {
			schemaErr.Missing = append(schemaErr.Missing, "column "+want.Name)
			continue
		}
		if wantType := typeOf(want); !strings.EqualFold(got.Type, wantType) {
			schemaErr.Wrong = append(schemaErr.Wrong, fmt.Sprintf("column %s is %s, want %s", want.Name, got.Type, wantType))
		}
		if got.Nullable {
			schemaErr.Wrong = append(schemaErr.Wrong, fmt.Sprintf("column %s is nullable", want.Name))
		}
	}

	timeline, path := JournalIndexes(table)
	for _, idx := range []string{timeline, path} {
		if !slices.Contains(indexes, idx) {
			schemaErr.Missing = append(schemaErr.Missing, "index "+idx)
		}
	}

	if len(schemaErr.Missing) == 0 && len(schemaErr.Wrong) == 0 {
		return nil
	}
	return schemaErr
}
