package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brieflex/brieflex/errors"
	brieftesting "github.com/brieflex/brieflex/internal/testing"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	log := zaptest.NewLogger(t).Sugar()

	database, err := Open(path, log)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Migrate(database, log))

	// The invocations table exists and accepts rows.
	_, err = database.Exec(`INSERT INTO invocations (id, operation, ok) VALUES ('x', 'analyze', 1)`)
	require.NoError(t, err)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM invocations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := brieftesting.CreateTestDB(t)
	log := zaptest.NewLogger(t).Sugar()

	require.NoError(t, Migrate(database, log))
	require.NoError(t, Migrate(database, log))

	var applied int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied, "each migration is recorded exactly once")
}

func TestIsDatabaseClosed(t *testing.T) {
	assert.False(t, IsDatabaseClosed(nil))
	assert.True(t, IsDatabaseClosed(ErrDatabaseClosed))
	assert.True(t, IsDatabaseClosed(errors.Wrap(ErrDatabaseClosed, "query history")))
	assert.True(t, IsDatabaseClosed(errors.New("sql: database is closed")))
	assert.False(t, IsDatabaseClosed(errors.New("no such table")))

	database := brieftesting.CreateTestDB(t)
	require.NoError(t, database.Close())
	err := database.Ping()
	require.Error(t, err)
	assert.True(t, IsDatabaseClosed(err))
}
