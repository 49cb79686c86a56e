package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// BackupService saves and restores package states of a device.
type BackupService struct {
	Repo   *repository.BackupRepo
	Logger *zap.Logger
}

// Create snapshots every readable user's package states.
func (s *BackupService) Create(ctx context.Context, st *packages.Store, dev device.Device) (repository.Backup, error) {
	if s.Repo == nil {
		return repository.Backup{}, fmt.Errorf("backup: repository not configured")
	}
	b := repository.Backup{
		ID:        uuid.NewString(),
		Serial:    dev.Serial,
		Model:     dev.Model,
		CreatedAt: database.Now(),
	}
	var entries []repository.BackupEntry
	for u := 0; u < st.UserCount(); u++ {
		user := st.User(u)
		for _, rec := range st.Records(u) {
			entries = append(entries, repository.BackupEntry{UserID: user.ID, Package: rec.ID, State: rec.State.String()})
		}
	}
	if len(entries) == 0 {
		return repository.Backup{}, fmt.Errorf("backup: no readable packages")
	}
	if err := s.Repo.Create(ctx, b, entries); err != nil {
		return repository.Backup{}, fmt.Errorf("save backup: %w", err)
	}
	b.Entries = len(entries)
	s.logger().Info("backup saved", zap.String("id", b.ID), zap.String("serial", b.Serial), zap.Int("entries", b.Entries))
	return b, nil
}

// List returns the device's backups, newest first.
func (s *BackupService) List(ctx context.Context, serial string) ([]repository.Backup, error) {
	if s.Repo == nil {
		return nil, fmt.Errorf("backup: repository not configured")
	}
	return s.Repo.List(ctx, serial)
}

// Latest returns the newest backup of the device, or nil.
func (s *BackupService) Latest(ctx context.Context, serial string) (*repository.Backup, error) {
	if s.Repo == nil {
		return nil, fmt.Errorf("backup: repository not configured")
	}
	return s.Repo.Latest(ctx, serial)
}

// RestoreBatches builds the restore-kind batches that bring every record
// back to its state in the backup. Entries for users or packages that no
// longer exist, and records already in the saved state, are skipped.
func (s *BackupService) RestoreBatches(ctx context.Context, st *packages.Store, dev device.Device, backupID string) ([]Batch, error) {
	if s.Repo == nil {
		return nil, fmt.Errorf("backup: repository not configured")
	}
	entries, err := s.Repo.Entries(ctx, backupID)
	if err != nil {
		return nil, fmt.Errorf("load backup %s: %w", backupID, err)
	}

	byID := map[int]int{}
	for u := 0; u < st.UserCount(); u++ {
		byID[st.User(u).ID] = u
	}

	var out []Batch
	skipped := 0
	for _, e := range entries {
		want, ok := packages.ParseState(e.State)
		u, uok := byID[e.UserID]
		p, pok := st.Ordinal(e.Package)
		if !ok || want == packages.StateAll || !uok || !pok {
			skipped++
			continue
		}
		k := packages.Key{User: u, Package: p}
		rec := st.Record(k)
		if rec == nil {
			skipped++
			continue
		}
		if rec.State == want {
			continue
		}
		out = append(out, batches(rec, k, st.User(u), dev, want, Restore)...)
	}
	s.logger().Info("restore planned", zap.String("backup", backupID), zap.Int("batches", len(out)), zap.Int("skipped", skipped))
	return out, nil
}

func (s *BackupService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
