// Package sqlite implements the journal using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

type journal struct {
	db        *sql.DB
	tableName string
}

func (j *journal) Record(ctx context.Context, entry shelf.JournalEntry) (shelf.JournalEntry, error) {
	if !entry.Op.IsValid() {
		return shelf.JournalEntry{}, fmt.Errorf("record: invalid operation %q", entry.Op)
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, op, path, source, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, j.tableName)

	_, err := j.db.ExecContext(ctx, query,
		entry.ID.String(), string(entry.Op), entry.Path, entry.Source, entry.SizeBytes,
		entry.CreatedAt.Format(internal.TimeLayout),
	)
	if err != nil {
		return shelf.JournalEntry{}, fmt.Errorf("record: insert: %w", err)
	}

	return entry, nil
}

func (j *journal) List(ctx context.Context, q shelf.JournalQuery) (shelf.JournalPage, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: %w", err)
	}

	limit := internal.ClampLimit(q.Limit)
	prefix := q.PathPrefix

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, op, path, source, size_bytes, created_at
			FROM %s
			WHERE substr(path, 1, length(?)) = ? AND (? = '' OR op = ?)
			ORDER BY created_at, id
			LIMIT ?
		`, j.tableName)
		args = []any{prefix, prefix, string(q.Op), string(q.Op), limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, op, path, source, size_bytes, created_at
			FROM %s
			WHERE substr(path, 1, length(?)) = ? AND (? = '' OR op = ?) AND (created_at, id) > (?, ?)
			ORDER BY created_at, id
			LIMIT ?
		`, j.tableName)
		args = []any{
			prefix, prefix, string(q.Op), string(q.Op),
			cursor.CreatedAt.UTC().Format(internal.TimeLayout), cursor.ID, limit + 1,
		}
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]shelf.JournalEntry, 0, limit)
	for rows.Next() {
		var e shelf.JournalEntry
		var idStr, op, createdAt string

		if scanErr := rows.Scan(&idStr, &op, &e.Path, &e.Source, &e.SizeBytes, &createdAt); scanErr != nil {
			return shelf.JournalPage{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		e.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return shelf.JournalPage{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		e.CreatedAt, parseErr = time.Parse(internal.TimeLayout, createdAt)
		if parseErr != nil {
			return shelf.JournalPage{}, fmt.Errorf("list: parse created_at: %w", parseErr)
		}

		e.Op = shelf.Operation(op)
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:limit]
	}

	return shelf.JournalPage{Items: items, NextCursor: nextCursor}, nil
}

func (j *journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < ?`, j.tableName) //nolint:gosec // table name is validated

	result, err := j.db.ExecContext(ctx, query, before.UTC().Format(internal.TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}

	return removed, nil
}
