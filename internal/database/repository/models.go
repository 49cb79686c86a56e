package repository

import "time"

// ActionLog represents one executed device command.
type ActionLog struct {
	ID               string
	ActionID         string
	Serial           string
	UserID           int
	Package          string
	Command          string
	Kind             string
	Target           string
	StateSignificant bool
	Success          bool
	Output           string
	Error            string
	CreatedAt        time.Time
}

// Backup is a saved snapshot of package states for one device.
type Backup struct {
	ID        string
	Serial    string
	Model     string
	CreatedAt time.Time
	Entries   int
}

// BackupEntry is the state of one package for one user in a backup.
type BackupEntry struct {
	UserID  int
	Package string
	State   string
}
