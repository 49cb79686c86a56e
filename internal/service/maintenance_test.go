package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
)

func TestPruneJournal(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	journal := repository.NewActionLogRepo(db)
	require.NoError(t, journal.Insert(ctx, repository.ActionLog{ID: "old", CreatedAt: database.Now().Add(-200 * 24 * time.Hour)}))
	require.NoError(t, journal.Insert(ctx, repository.ActionLog{ID: "new", CreatedAt: database.Now()}))

	svc := &MaintenanceService{DB: db}
	n, err := svc.PruneJournal(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = svc.PruneJournal(ctx, 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, repository.NewCatalogCacheRepo(db).SaveCatalog(ctx, []byte(`{}`)))
	require.NoError(t, repository.NewActionLogRepo(db).Insert(ctx, repository.ActionLog{ID: "x", CreatedAt: database.Now()}))

	require.NoError(t, (&MaintenanceService{DB: db}).Reset(ctx))

	var n int
	for _, table := range []string{"catalog_cache", "action_log", "backups", "backup_entries"} {
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		require.Zero(t, n, table)
	}
	require.Error(t, (&MaintenanceService{}).Reset(ctx))
}
