package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMigratedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "uad.db")

	db, err := OpenMigrated(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenMigrated(path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"catalog_cache", "action_log", "backups", "backup_entries"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}
