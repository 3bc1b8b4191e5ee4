package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/database/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestJournal creates a journal with a unique table name for test isolation
func setupTestJournal(t *testing.T) shelf.Journal {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("journal_%s", getRandomString(t))
	tables := shelf.Tables{Journal: tableName}

	// Connect to in-memory database
	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetJournal()
}
