package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp(t *testing.T) {
	handle, err := Open(filepath.Join(t.TempDir(), "feedpress.db"))
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, MigrateUp(handle))

	for _, table := range []string{"feeds", "entries", "summaries"} {
		var name string
		err := handle.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	handle, err := Open(filepath.Join(t.TempDir(), "feedpress.db"))
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, MigrateUp(handle))
	require.NoError(t, MigrateUp(handle))
}

func TestMigrateUp_DuplicateEntryKeyRejected(t *testing.T) {
	handle, err := Open(filepath.Join(t.TempDir(), "feedpress.db"))
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, MigrateUp(handle))

	_, err = handle.Exec(`INSERT INTO feeds (name, feed_url) VALUES ('Example', 'https://example.com/feed.xml')`)
	require.NoError(t, err)

	_, err = handle.Exec(`INSERT INTO entries (feed_id, key, title) VALUES (1, 'k1', 'first')`)
	require.NoError(t, err)

	_, err = handle.Exec(`INSERT INTO entries (feed_id, key, title) VALUES (1, 'k1', 'again')`)
	assert.Error(t, err, "duplicate (feed_id, key) must violate the unique constraint")
}
