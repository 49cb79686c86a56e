package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

var testCatalog = catalog.Catalog{
	"com.example.app":      {List: catalog.ListMisc, Removal: catalog.Recommended},
	"com.facebook.katana":  {List: catalog.ListMisc, Removal: catalog.Recommended},
	"com.android.chrome":   {List: catalog.ListGoogle, Removal: catalog.Advanced},
	"com.android.systemui": {List: catalog.ListAosp, Removal: catalog.Unsafe},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// twoUserDevice has user 0 plain and user 10 protected but readable, so the
// protected record exists and can be checked for being untouched.
func twoUserDevice() (device.Device, *packages.Store) {
	dev := device.Device{
		Serial:     "R58M123",
		Model:      "SM-G973F",
		AndroidSDK: 33,
		Authorized: true,
		Users:      []device.User{{Index: 0, ID: 0}, {Index: 1, ID: 10, Protected: true}},
	}
	states := map[string]packages.State{"com.example.app": packages.Enabled}
	st := packages.Build(testCatalog, []packages.UserPackages{
		{User: dev.Users[0], States: states},
		{User: dev.Users[1], States: states},
	})
	return dev, st
}

// threeUserDevice has three plain users with differing states.
func threeUserDevice() (device.Device, *packages.Store) {
	dev := device.Device{
		Serial:     "S",
		AndroidSDK: 33,
		Authorized: true,
		Users:      []device.User{{Index: 0, ID: 0}, {Index: 1, ID: 10}, {Index: 2, ID: 11}},
	}
	st := packages.Build(testCatalog, []packages.UserPackages{
		{User: dev.Users[0], States: map[string]packages.State{
			"com.example.app": packages.Enabled, "com.android.chrome": packages.Enabled, "com.facebook.katana": packages.Enabled}},
		{User: dev.Users[1], States: map[string]packages.State{
			"com.example.app": packages.Disabled, "com.android.chrome": packages.Enabled, "com.facebook.katana": packages.Enabled}},
		{User: dev.Users[2], States: map[string]packages.State{
			"com.example.app": packages.Uninstalled, "com.android.chrome": packages.Enabled, "com.facebook.katana": packages.Enabled}},
	})
	return dev, st
}

type fakeExecutor struct {
	mu     sync.Mutex
	serial string
	fail   map[string]error
	ran    []string
}

func (f *fakeExecutor) Exec(ctx context.Context, cmd adb.Command) (adb.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, cmd.Shell())
	if err, ok := f.fail[cmd.Shell()]; ok {
		return adb.Outcome{Command: cmd, Output: "Failure"}, err
	}
	return adb.Outcome{Command: cmd, Output: "Success"}, nil
}

func (f *fakeExecutor) Serial() string { return f.serial }

func key(t *testing.T, st *packages.Store, user int, id string) packages.Key {
	t.Helper()
	p, ok := st.Ordinal(id)
	require.True(t, ok, id)
	return packages.Key{User: user, Package: p}
}
