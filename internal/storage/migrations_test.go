package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func schemaVersion(t *testing.T, db *sql.DB) string {
	t.Helper()
	version, err := currentSchemaVersion(context.Background(), db)
	require.NoError(t, err)
	return version.String()
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestApplyMigrations(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	assert.Equal(t, "0.0.0", schemaVersion(t, db))

	require.NoError(t, ApplyMigrations(ctx, db))
	assert.Equal(t, CurrentSchemaVersion, schemaVersion(t, db))
	assert.True(t, tableExists(t, db, "filter_runs"))

	// Re-applying is a no-op
	require.NoError(t, ApplyMigrations(ctx, db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, len(AllMigrations), count)
}

func TestRollbackMigration(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	// 1.1.0 -> 1.0.0 removes batch_id
	require.NoError(t, RollbackMigration(ctx, db))
	assert.Equal(t, "1.0.0", schemaVersion(t, db))
	_, err := db.Exec("SELECT batch_id FROM filter_runs")
	assert.Error(t, err)

	// 1.0.0 -> nothing
	require.NoError(t, RollbackMigration(ctx, db))
	assert.Equal(t, "0.0.0", schemaVersion(t, db))
	assert.False(t, tableExists(t, db, "filter_runs"))

	assert.Error(t, RollbackMigration(ctx, db), "nothing left to roll back")

	// And forward again
	require.NoError(t, ApplyMigrations(ctx, db))
	assert.Equal(t, CurrentSchemaVersion, schemaVersion(t, db))
}
