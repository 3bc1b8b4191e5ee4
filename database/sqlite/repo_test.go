package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/internal"
	"github.com/sagarc03/shelf/database/sqlite"
)

func TestJournal_Record(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	before := time.Now().UTC()
	entry, err := j.Record(ctx, shelf.JournalEntry{
		Op:        shelf.OpCopy,
		Path:      "dst/a.txt",
		Source:    "src/a.txt",
		SizeBytes: 42,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.CreatedAt.Before(before))

	page, err := j.List(ctx, shelf.JournalQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	got := page.Items[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, shelf.OpCopy, got.Op)
	assert.Equal(t, "dst/a.txt", got.Path)
	assert.Equal(t, "src/a.txt", got.Source)
	assert.Equal(t, int64(42), got.SizeBytes)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))
}

func TestJournal_Record_InvalidOperation(t *testing.T) {
	j := setupTestJournal(t)

	_, err := j.Record(context.Background(), shelf.JournalEntry{Op: "rename", Path: "a"})
	assert.ErrorContains(t, err, "invalid operation")
}

func TestJournal_List(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	records := []shelf.JournalEntry{
		{Op: shelf.OpUpload, Path: "images/a.jpg", SizeBytes: 100},
		{Op: shelf.OpUpload, Path: "images/b.jpg", SizeBytes: 200},
		{Op: shelf.OpDeleteFile, Path: "images/a.jpg"},
		{Op: shelf.OpUpload, Path: "docs/readme.md", SizeBytes: 50},
		{Op: shelf.OpDeleteDir, Path: "images_old"},
		{Op: shelf.OpUpload, Path: "100%/done.txt", SizeBytes: 1},
	}
	for _, r := range records {
		_, err := j.Record(ctx, r)
		require.NoError(t, err)
	}

	t.Run("without filter in recording order", func(t *testing.T) {
		page, err := j.List(ctx, shelf.JournalQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, len(records))
		for i, r := range records {
			assert.Equal(t, r.Path, page.Items[i].Path)
			assert.Equal(t, r.Op, page.Items[i].Op)
		}
		assert.Empty(t, page.NextCursor)
	})

	t.Run("with prefix filter", func(t *testing.T) {
		page, err := j.List(ctx, shelf.JournalQuery{PathPrefix: "images/", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
	})

	t.Run("prefix wildcards match literally", func(t *testing.T) {
		page, err := j.List(ctx, shelf.JournalQuery{PathPrefix: "images_", Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "images_old", page.Items[0].Path)

		page, err = j.List(ctx, shelf.JournalQuery{PathPrefix: "100%", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
	})

	t.Run("prefix is case sensitive", func(t *testing.T) {
		page, err := j.List(ctx, shelf.JournalQuery{PathPrefix: "IMAGES/", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("with op filter", func(t *testing.T) {
		page, err := j.List(ctx, shelf.JournalQuery{Op: shelf.OpUpload, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 4)
		for _, e := range page.Items {
			assert.Equal(t, shelf.OpUpload, e.Op)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		var seen []string
		cursor := ""
		pages := 0
		for {
			page, err := j.List(ctx, shelf.JournalQuery{Limit: 4, Cursor: cursor})
			require.NoError(t, err)
			pages++
			for _, e := range page.Items {
				seen = append(seen, e.ID.String())
			}
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}

		assert.Equal(t, 2, pages)
		assert.Len(t, seen, len(records))

		unique := make(map[string]struct{}, len(seen))
		for _, id := range seen {
			unique[id] = struct{}{}
		}
		assert.Len(t, unique, len(records), "no entry repeated across pages")
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := j.List(ctx, shelf.JournalQuery{Cursor: "not-valid-base64!!!"})
		assert.ErrorContains(t, err, "invalid encoding")
	})
}

func TestJournal_Prune(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c"} {
		_, err := j.Record(ctx, shelf.JournalEntry{Op: shelf.OpUpload, Path: p, SizeBytes: 1})
		require.NoError(t, err)
	}

	removed, err := j.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	removed, err = j.Prune(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	page, err := j.List(ctx, shelf.JournalQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDatabase_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("fails before migration", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", shelf.Tables{Journal: "journal_" + getRandomString(t)})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		assert.ErrorContains(t, db.Validate(ctx), "does not exist")
	})

	t.Run("passes after migration", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", shelf.Tables{Journal: "journal_" + getRandomString(t)})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		require.NoError(t, db.Migrate(ctx))
		require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("reports a table with a different layout", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "journal.db")
		raw, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = raw.Close() })

		_, err = raw.ExecContext(ctx, `CREATE TABLE journal (id TEXT NOT NULL PRIMARY KEY, op TEXT, path TEXT NOT NULL)`)
		require.NoError(t, err)

		db, err := sqlite.Connect(ctx, dsn, shelf.Tables{Journal: "journal"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		var schemaErr *internal.SchemaError
		require.ErrorAs(t, db.Validate(ctx), &schemaErr)
		assert.Contains(t, schemaErr.Missing, "column source")
		assert.Contains(t, schemaErr.Missing, "index idx_journal_timeline")
		assert.Contains(t, schemaErr.Wrong, "column op is nullable")
	})

	t.Run("reports a dropped index", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "journal.db")
		db, err := sqlite.Connect(ctx, dsn, shelf.Tables{Journal: "journal"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, db.Migrate(ctx))

		raw, err := sql.Open("sqlite", dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = raw.Close() })
		_, err = raw.ExecContext(ctx, `DROP INDEX idx_journal_path`)
		require.NoError(t, err)

		var schemaErr *internal.SchemaError
		require.ErrorAs(t, db.Validate(ctx), &schemaErr)
		assert.Equal(t, []string{"index idx_journal_path"}, schemaErr.Missing)
	})

	t.Run("rejects invalid table name", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", shelf.Tables{Journal: "Bad Name"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		assert.ErrorContains(t, db.Validate(ctx), "invalid table name")
	})
}
