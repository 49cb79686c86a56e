package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/config"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
)

func TestDispatcherJournalsEveryCommand(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	journal := repository.NewActionLogRepo(db)

	dev, st := twoUserDevice()
	bs := Build(st, dev, config.DeviceSettings{DisableMode: true}, key(t, st, 0, "com.example.app"))
	require.Len(t, bs, 3)

	exec := &fakeExecutor{
		serial: dev.Serial,
		fail:   map[string]error{bs[1].Command.Shell(): errors.New("Failure")},
	}
	d := &Dispatcher{Exec: exec, Journal: journal, Metrics: metrics.New()}
	for _, b := range bs {
		d.Run(ctx, b)
	}
	require.Len(t, exec.ran, 3)

	rows, err := journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	failures := 0
	for _, r := range rows {
		require.Equal(t, bs[0].ActionID, r.ActionID)
		require.Equal(t, "R58M123", r.Serial)
		require.Equal(t, "Disabled", r.Target)
		require.Equal(t, "change", r.Kind)
		if !r.Success {
			failures++
			require.Equal(t, bs[1].Command.Shell(), r.Command)
			require.NotEmpty(t, r.Error)
		}
	}
	require.Equal(t, 1, failures)
}
