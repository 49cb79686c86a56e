package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
)

// MaintenanceService houses housekeeping actions on the local database.
type MaintenanceService struct {
	DB *sql.DB
}

// PruneJournal drops journal entries older than the retention window.
// A non-positive retention keeps everything.
func (s *MaintenanceService) PruneJournal(ctx context.Context, retentionDays int) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := database.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	return repository.NewActionLogRepo(s.DB).PruneBefore(ctx, cutoff)
}

// Reset wipes the journal, backups and catalog cache. It keeps the schema
// intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"backup_entries",
			"backups",
			"action_log",
			"catalog_cache",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
