package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
)

// Executor runs one command on the bound device.
type Executor interface {
	Exec(ctx context.Context, cmd adb.Command) (adb.Outcome, error)
	Serial() string
}

// Journal records executed commands.
type Journal interface {
	Insert(ctx context.Context, a repository.ActionLog) error
}

// Dispatcher executes batches. It never retries; every outcome is journaled,
// logged and counted.
type Dispatcher struct {
	Exec    Executor
	Journal Journal
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Run executes b and returns its completion. It is safe to call from
// concurrent tasks.
func (d *Dispatcher) Run(ctx context.Context, b Batch) Completion {
	out, err := d.Exec.Exec(ctx, b.Command)
	d.Metrics.RecordCommand(b.Kind.String(), err == nil, out.Duration)

	log := d.logger().With(
		zap.String("action", b.ActionID),
		zap.String("command", b.Command.Shell()),
		zap.Bool("significant", b.StateSignificant))
	if err != nil {
		log.Warn("device command failed", zap.Error(err))
	} else {
		log.Debug("device command ok", zap.Duration("took", out.Duration))
	}

	if d.Journal != nil {
		entry := repository.ActionLog{
			ID:               uuid.NewString(),
			ActionID:         b.ActionID,
			Serial:           d.Exec.Serial(),
			UserID:           b.Command.User.ID,
			Package:          b.Command.Package,
			Command:          b.Command.Shell(),
			Kind:             b.Kind.String(),
			Target:           b.Target.String(),
			StateSignificant: b.StateSignificant,
			Success:          err == nil,
			Output:           out.Output,
			CreatedAt:        database.Now(),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if jerr := d.Journal.Insert(ctx, entry); jerr != nil {
			log.Warn("journal write failed", zap.Error(jerr))
		}
	}
	return Completion{Batch: b, Outcome: out, Err: err}
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
