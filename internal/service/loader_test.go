package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

type fakeLister struct {
	mu     sync.Mutex
	lists  map[int]map[string]packages.State
	calls  []int
	failOn map[int]bool
}

func (f *fakeLister) ListPackages(ctx context.Context, dev device.Device, user device.User) (map[string]packages.State, error) {
	f.mu.Lock()
	f.calls = append(f.calls, user.ID)
	f.mu.Unlock()
	if f.failOn[user.ID] {
		return nil, fmt.Errorf("user %d: %w", user.ID, adb.ErrUserUnavailable)
	}
	return f.lists[user.ID], nil
}

func TestEnumerateAllUsers(t *testing.T) {
	lister := &fakeLister{
		lists: map[int]map[string]packages.State{
			0:  {"com.example.app": packages.Enabled, "com.android.chrome": packages.Enabled},
			10: {"com.example.app": packages.Disabled},
		},
		failOn: map[int]bool{11: true},
	}
	dev := device.Device{AndroidSDK: 33, Users: []device.User{
		{Index: 0, ID: 0}, {Index: 1, ID: 10}, {Index: 2, ID: 11}, {Index: 3, ID: 150, Protected: true},
	}}

	l := &Loader{Lister: lister, Metrics: metrics.New()}
	st, err := l.Enumerate(context.Background(), testCatalog, dev)
	require.NoError(t, err)

	require.Equal(t, 4, st.UserCount())
	require.Equal(t, 2, st.Len())
	require.True(t, st.Available(0))
	require.True(t, st.Available(1))
	require.False(t, st.Available(2))
	require.False(t, st.Available(3))
	require.ErrorIs(t, st.Err(3), adb.ErrUserUnavailable)
	require.NotContains(t, lister.calls, 150)

	p, _ := st.Ordinal("com.android.chrome")
	require.Equal(t, packages.Uninstalled, st.Record(packages.Key{User: 1, Package: p}).State)
	require.Equal(t, catalog.Advanced, st.Record(packages.Key{User: 0, Package: p}).Removal)
}

func TestEnumerateImplicitUser(t *testing.T) {
	lister := &fakeLister{lists: map[int]map[string]packages.State{0: {"com.example.app": packages.Enabled}}}
	st, err := (&Loader{Lister: lister}).Enumerate(context.Background(), testCatalog, device.Device{AndroidSDK: 19})
	require.NoError(t, err)
	require.Equal(t, 1, st.UserCount())
	require.True(t, st.User(0).Implicit)
	require.Equal(t, 1, st.Len())
}

func TestEnumerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lister := &fakeLister{failOn: map[int]bool{0: true}}
	_, err := (&Loader{Lister: lister}).Enumerate(ctx, testCatalog, device.Device{AndroidSDK: 33})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
