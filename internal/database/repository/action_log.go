package repository

import (
	"context"
	"database/sql"
	"time"
)

// ActionLogRepo is the journal of executed device commands.
type ActionLogRepo struct {
	db *sql.DB
}

func NewActionLogRepo(db *sql.DB) *ActionLogRepo { return &ActionLogRepo{db: db} }

func (r *ActionLogRepo) Insert(ctx context.Context, a ActionLog) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO action_log(id, action_id, serial, user_id, package, command, kind, target,
		state_significant, success, output, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, a.ID, a.ActionID, a.Serial, a.UserID, a.Package, a.Command, a.Kind, a.Target,
		a.StateSignificant, a.Success, a.Output, a.Error, a.CreatedAt)
	return err
}

// Recent returns the newest entries first.
func (r *ActionLogRepo) Recent(ctx context.Context, limit int) ([]ActionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, action_id, serial, user_id, package, command, kind, target,
		state_significant, success, output, error, created_at
	FROM action_log ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActionLog
	for rows.Next() {
		var a ActionLog
		if err := rows.Scan(&a.ID, &a.ActionID, &a.Serial, &a.UserID, &a.Package, &a.Command,
			&a.Kind, &a.Target, &a.StateSignificant, &a.Success, &a.Output, &a.Error, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Failures counts failed commands since the given time.
func (r *ActionLogRepo) Failures(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_log WHERE success = 0 AND created_at >= ?`, since).Scan(&n)
	return n, err
}

// PruneBefore deletes entries older than cutoff and returns how many went.
func (r *ActionLogRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM action_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
