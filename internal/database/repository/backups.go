package repository

import (
	"context"
	"database/sql"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
)

// BackupRepo handles device backups.
type BackupRepo struct {
	db *sql.DB
}

func NewBackupRepo(db *sql.DB) *BackupRepo { return &BackupRepo{db: db} }

// Create stores a backup and its entries atomically.
func (r *BackupRepo) Create(ctx context.Context, b Backup, entries []BackupEntry) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO backups(id, serial, model, created_at) VALUES (?, ?, ?, ?)`,
			b.ID, b.Serial, b.Model, b.CreatedAt); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO backup_entries(backup_id, user_id, package, state) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, b.ID, e.UserID, e.Package, e.State); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the backups of a device, newest first.
func (r *BackupRepo) List(ctx context.Context, serial string) ([]Backup, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT b.id, b.serial, b.model, b.created_at, COUNT(e.package)
	FROM backups b LEFT JOIN backup_entries e ON e.backup_id = b.id
	WHERE b.serial = ?
	GROUP BY b.id
	ORDER BY b.created_at DESC, b.rowid DESC`, serial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Backup
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.Serial, &b.Model, &b.CreatedAt, &b.Entries); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Latest returns the newest backup of a device, or nil.
func (r *BackupRepo) Latest(ctx context.Context, serial string) (*Backup, error) {
	list, err := r.List(ctx, serial)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// Entries returns the entries of a backup ordered by user and package.
func (r *BackupRepo) Entries(ctx context.Context, backupID string) ([]BackupEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT user_id, package, state FROM backup_entries
	WHERE backup_id = ? ORDER BY user_id, package`, backupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BackupEntry
	for rows.Next() {
		var e BackupEntry
		if err := rows.Scan(&e.UserID, &e.Package, &e.State); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a backup and its entries.
func (r *BackupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	return err
}
