// Package postgres implements the journal using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
)

type journal struct {
	pool      *pgxpool.Pool
	tableName string
}

func (j *journal) Record(ctx context.Context, entry shelf.JournalEntry) (shelf.JournalEntry, error) {
	if !entry.Op.IsValid() {
		return shelf.JournalEntry{}, fmt.Errorf("record: invalid operation %q", entry.Op)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, op, path, source, size_bytes, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, j.tableName)

	err := j.pool.QueryRow(ctx, query,
		string(entry.Op), entry.Path, entry.Source, entry.SizeBytes,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return shelf.JournalEntry{}, fmt.Errorf("record: %w", err)
	}

	return entry, nil
}

func (j *journal) List(ctx context.Context, q shelf.JournalQuery) (shelf.JournalPage, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: %w", err)
	}

	limit := internal.ClampLimit(q.Limit)
	escapedPrefix := internal.EscapeLikePattern(q.PathPrefix)

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, op, path, source, size_bytes, created_at
			FROM %s
			WHERE path LIKE $1 || '%%' AND ($2 = '' OR op = $2)
			ORDER BY created_at, id
			LIMIT $3
		`, j.tableName)
		args = []any{escapedPrefix, string(q.Op), limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, op, path, source, size_bytes, created_at
			FROM %s
			WHERE path LIKE $1 || '%%' AND ($2 = '' OR op = $2) AND (created_at, id) > ($3, $4::uuid)
			ORDER BY created_at, id
			LIMIT $5
		`, j.tableName)
		args = []any{escapedPrefix, string(q.Op), cursor.CreatedAt, cursor.ID, limit + 1}
	}

	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]shelf.JournalEntry, 0, limit)
	for rows.Next() {
		var e shelf.JournalEntry
		var op string
		if err := rows.Scan(&e.ID, &op, &e.Path, &e.Source, &e.SizeBytes, &e.CreatedAt); err != nil {
			return shelf.JournalPage{}, fmt.Errorf("list: scan: %w", err)
		}
		e.Op = shelf.Operation(op)
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return shelf.JournalPage{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:limit]
	}

	return shelf.JournalPage{Items: items, NextCursor: nextCursor}, nil
}

func (j *journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, j.tableName)

	tag, err := j.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	return tag.RowsAffected(), nil
}
