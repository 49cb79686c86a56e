package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/config"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

const (
	pkgSystemUI = 0
	pkgFacebook = 1
	pkgYouTube  = 2
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		"com.android.systemui":       {List: catalog.ListAosp, Removal: catalog.Unsafe},
		"com.facebook.katana":        {List: catalog.ListMisc, Removal: catalog.Recommended, Description: "Facebook app"},
		"com.google.android.youtube": {List: catalog.ListGoogle, Removal: catalog.Recommended},
	}
}

func allEnabled() map[string]packages.State {
	return map[string]packages.State{
		"com.android.systemui":       packages.Enabled,
		"com.facebook.katana":        packages.Enabled,
		"com.google.android.youtube": packages.Enabled,
	}
}

func twoUserDevice() device.Device {
	return device.Device{
		Serial:     "emulator-5554",
		Model:      "Pixel 7",
		AndroidSDK: 30,
		Authorized: true,
		Users:      []device.User{{ID: 0}, {ID: 10}},
	}
}

type fakeTransport struct {
	availErr error
	dev      device.Device
	discErr  error
	bound    []string
}

func (f *fakeTransport) Available(context.Context) error { return f.availErr }

func (f *fakeTransport) Discover(context.Context, string) (device.Device, error) {
	if f.discErr != nil {
		return device.Device{}, f.discErr
	}
	return f.dev, nil
}

func (f *fakeTransport) Bind(serial string) { f.bound = append(f.bound, serial) }

type recordingCatalog struct {
	calls []bool
}

func (c *recordingCatalog) Resolve(_ context.Context, remote bool) catalog.Result {
	c.calls = append(c.calls, remote)
	if !remote {
		return catalog.Result{Catalog: testCatalog(), Source: catalog.SourceEmbedded, Degraded: true}
	}
	return catalog.Result{Catalog: testCatalog(), Source: catalog.SourceRemote}
}

// staticEnumerator serves fixed package states keyed by Android user id.
type staticEnumerator struct {
	states map[int]map[string]packages.State
	errs   map[int]error
}

func (e staticEnumerator) Enumerate(_ context.Context, cat catalog.Catalog, dev device.Device) (*packages.Store, error) {
	var lists []packages.UserPackages
	for _, u := range dev.SessionUsers() {
		lists = append(lists, packages.UserPackages{User: u, States: e.states[u.ID], Err: e.errs[u.ID]})
	}
	return packages.Build(cat, lists), nil
}

type nopRunner struct{}

func (nopRunner) Run(_ context.Context, b service.Batch) service.Completion {
	return service.Completion{Batch: b}
}

type fakeBackups struct {
	created int
	latest  *repository.Backup
	restore []service.Batch
}

func (f *fakeBackups) Create(_ context.Context, st *packages.Store, dev device.Device) (repository.Backup, error) {
	f.created++
	return repository.Backup{ID: "b1", Serial: dev.Serial, Entries: len(st.Records(0))}, nil
}

func (f *fakeBackups) Latest(context.Context, string) (*repository.Backup, error) {
	return f.latest, nil
}

func (f *fakeBackups) RestoreBatches(context.Context, *packages.Store, device.Device, string) ([]service.Batch, error) {
	return f.restore, nil
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.Device.MultiUserMode = true
	cfg.Catalog.Remote = true
	return cfg
}

func newTestApp(cfg config.Config, deps Deps) *App {
	if deps.Runner == nil {
		deps.Runner = nopRunner{}
	}
	return New(context.Background(), cfg, deps)
}

func step(a *App, msg tea.Msg) tea.Cmd {
	_, cmd := a.Update(msg)
	return cmd
}

// drive feeds msg and then every message produced by the returned commands
// until a handler returns no command.
func drive(a *App, msg tea.Msg) {
	for cmd := step(a, msg); cmd != nil; cmd = step(a, msg) {
		msg = cmd()
	}
}

func press(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func pkgKey(user, pkg int) packages.Key { return packages.Key{User: user, Package: pkg} }

func readyApp(t *testing.T, cfg config.Config, en staticEnumerator) (*App, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{dev: twoUserDevice()}
	a := newTestApp(cfg, Deps{Catalog: &recordingCatalog{}, Transport: tr, Enumerator: en})
	drive(a, transportCheckedMsg{})
	require.Equal(t, Ready, a.Phase())
	return a, tr
}

func twoUsersEnabled() staticEnumerator {
	return staticEnumerator{states: map[int]map[string]packages.State{0: allEnabled(), 10: allEnabled()}}
}

func TestRemoteCatalogFailureReachesReadyDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := &catalog.Loader{URL: srv.URL, HTTP: catalog.NewHTTPClient(2*time.Second, 0, nil)}
	tr := &fakeTransport{dev: device.Device{Serial: "R58M", Model: "Galaxy", AndroidSDK: 29, Authorized: true}}
	en := staticEnumerator{states: map[int]map[string]packages.State{0: {"com.facebook.katana": packages.Enabled}}}
	a := newTestApp(testConfig(), Deps{Catalog: loader, Transport: tr, Enumerator: en})

	drive(a, transportCheckedMsg{})

	require.Equal(t, Ready, a.Phase())
	require.True(t, a.Degraded())
	require.Equal(t, catalog.SourceEmbedded, a.catSource)
	require.Equal(t, []string{"R58M"}, tr.bound)
	require.Equal(t, packages.DefaultCriteria(), a.criteria)

	rec := a.store.Record(pkgKey(0, 0))
	require.NotNil(t, rec)
	require.Equal(t, catalog.Recommended, rec.Removal)
	require.Contains(t, a.View(), "lists: embedded")
}

func TestTransportMissingParksInFindingDevice(t *testing.T) {
	tr := &fakeTransport{availErr: adb.ErrTransportMissing}
	a := newTestApp(testConfig(), Deps{Catalog: &recordingCatalog{}, Transport: tr, Enumerator: staticEnumerator{}})

	drive(a, transportCheckedMsg{err: tr.Available(context.Background())})

	require.Equal(t, FindingDevice, a.Phase())
	require.Contains(t, a.View(), msgNoADB)
	require.Nil(t, step(a, press("ctrl+r")), "a missing transport cannot be retried")
}

func TestNoDeviceWaitsForRetry(t *testing.T) {
	tr := &fakeTransport{discErr: adb.ErrNoDevice}
	a := newTestApp(testConfig(), Deps{Catalog: &recordingCatalog{}, Transport: tr, Enumerator: twoUsersEnabled()})

	drive(a, transportCheckedMsg{})
	require.Equal(t, FindingDevice, a.Phase())
	require.Contains(t, a.View(), "ctrl+r to retry")
	require.Nil(t, step(a, press("x")))

	tr.discErr = nil
	tr.dev = twoUserDevice()
	drive(a, press("ctrl+r"))
	require.Equal(t, Ready, a.Phase())
	require.Equal(t, 2, a.store.UserCount())
}

func TestOfflineReloadDropsStaleCatalog(t *testing.T) {
	src := &recordingCatalog{}
	tr := &fakeTransport{dev: twoUserDevice()}
	a := newTestApp(testConfig(), Deps{Catalog: src, Transport: tr, Enumerator: twoUsersEnabled()})

	discover := step(a, transportCheckedMsg{})
	remoteLoad := step(a, discover())
	require.Equal(t, DownloadingList, a.Phase())

	offlineLoad := step(a, press("n"))
	require.NotNil(t, offlineLoad)

	require.Nil(t, step(a, remoteLoad()), "the superseded load must be ignored")
	require.Equal(t, DownloadingList, a.Phase())
	require.Empty(t, tr.bound)

	drive(a, offlineLoad())
	require.Equal(t, Ready, a.Phase())
	require.True(t, a.Degraded())
	require.Equal(t, []bool{true, false}, src.calls)
}

func TestActionCompletionUpdatesEveryUser(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())

	step(a, press("j"))
	cmd := step(a, press("enter"))
	require.NotNil(t, cmd)
	for _, u := range []int{0, 1} {
		require.True(t, a.sel.InFlight(pkgKey(u, pkgFacebook)))
		require.True(t, a.store.Record(pkgKey(u, pkgFacebook)).Selected)
	}

	batches := service.Build(a.store, a.dev, a.cfg.Device, pkgKey(0, pkgFacebook))
	require.Len(t, batches, 2)
	for _, b := range batches {
		step(a, batchDoneMsg{gen: a.gen, completion: service.Completion{Batch: b}})
	}

	for _, u := range []int{0, 1} {
		rec := a.store.Record(pkgKey(u, pkgFacebook))
		require.Equal(t, packages.Uninstalled, rec.State)
		require.False(t, rec.Selected)
		require.False(t, a.sel.InFlight(pkgKey(u, pkgFacebook)))
	}
	require.Zero(t, a.sel.Len())
	require.Contains(t, a.status, "Uninstalled")
}

func TestFailedCommandKeepsRecord(t *testing.T) {
	cfg := testConfig()
	cfg.Device.MultiUserMode = false
	a, _ := readyApp(t, cfg, twoUsersEnabled())

	step(a, press("j"))
	require.NotNil(t, step(a, press("enter")))

	batches := service.Build(a.store, a.dev, a.cfg.Device, pkgKey(0, pkgFacebook))
	require.Len(t, batches, 1)
	step(a, batchDoneMsg{gen: a.gen, completion: service.Completion{
		Batch: batches[0],
		Err:   errors.New("Failure [DELETE_FAILED_INTERNAL_ERROR]"),
	}})

	rec := a.store.Record(pkgKey(0, pkgFacebook))
	require.Equal(t, packages.Enabled, rec.State)
	require.True(t, rec.Selected)
	require.False(t, a.sel.InFlight(pkgKey(0, pkgFacebook)))
	require.True(t, a.statusErr)
	require.Contains(t, a.status, "pm uninstall")
	require.Equal(t, Ready, a.Phase())
}

func TestUnsafeActionRefusedOutsideExpertMode(t *testing.T) {
	var saved []config.Config
	tr := &fakeTransport{dev: twoUserDevice()}
	a := newTestApp(testConfig(), Deps{
		Catalog:    &recordingCatalog{},
		Transport:  tr,
		Enumerator: twoUsersEnabled(),
		SaveConfig: func(c config.Config) error { saved = append(saved, c); return nil },
	})
	drive(a, transportCheckedMsg{})

	_, rec := a.current()
	require.Equal(t, catalog.Unsafe, rec.Removal)
	require.Nil(t, step(a, press("enter")))
	require.Zero(t, a.sel.Len())
	require.Contains(t, a.status, "expert mode")

	step(a, press("space"))
	require.Zero(t, a.sel.Len(), "selecting an Unsafe package is clamped")

	drive(a, press("E"))
	require.Len(t, saved, 1)
	require.True(t, saved[0].General.ExpertMode)
	require.NotNil(t, step(a, press("enter")))
}

func TestRestoreFailureShowsErrorLabel(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())

	b := service.Batch{
		Key:              pkgKey(0, pkgFacebook),
		Target:           packages.Disabled,
		StateSignificant: true,
		Kind:             service.Restore,
		Label:            "com.facebook.katana",
	}
	step(a, batchDoneMsg{gen: a.gen, completion: service.Completion{Batch: b, Err: errors.New("boom")}})

	require.Equal(t, RestoringDevice, a.Phase())
	require.Equal(t, "Error", a.restoreLabel)
	require.Contains(t, a.View(), "Restoring: Error")
	require.Equal(t, packages.Enabled, a.store.Record(pkgKey(0, pkgFacebook)).State)

	step(a, press("j"))
	require.Equal(t, Ready, a.Phase())
	require.Equal(t, 1, a.cursor, "the key that leaves the banner is still handled")
}

func TestBackupAndRestoreFlow(t *testing.T) {
	bk := &fakeBackups{latest: &repository.Backup{ID: "b1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)}}
	bk.restore = []service.Batch{{
		ActionID:         "r1",
		Key:              pkgKey(0, pkgFacebook),
		Target:           packages.Disabled,
		StateSignificant: true,
		Kind:             service.Restore,
		Label:            "com.facebook.katana",
	}}
	tr := &fakeTransport{dev: twoUserDevice()}
	a := newTestApp(testConfig(), Deps{Catalog: &recordingCatalog{}, Transport: tr, Enumerator: twoUsersEnabled(), Backups: bk})
	drive(a, transportCheckedMsg{})

	drive(a, press("b"))
	require.Equal(t, 1, bk.created)
	require.Contains(t, a.status, "Backup saved: 3 packages")

	plan := step(a, press("R"))
	require.NotNil(t, plan)
	require.NotNil(t, step(a, plan()))
	require.Equal(t, RestoringDevice, a.Phase())
	require.True(t, a.sel.InFlight(pkgKey(0, pkgFacebook)))

	step(a, batchDoneMsg{gen: a.gen, completion: service.Completion{Batch: bk.restore[0]}})
	require.Equal(t, packages.Disabled, a.store.Record(pkgKey(0, pkgFacebook)).State)
	require.Equal(t, "com.facebook.katana", a.restoreLabel)
	require.Contains(t, a.View(), "Restoring: com.facebook.katana")
}

func TestSearchFiltersAndSuggests(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())

	step(a, press("/"))
	require.True(t, a.searching)
	step(a, press("facebook"))
	require.Equal(t, []int{pkgFacebook}, a.visible)

	step(a, press("esc"))
	require.False(t, a.searching)
	require.Len(t, a.visible, 3)

	step(a, press("/"))
	step(a, press("facebok"))
	step(a, press("enter"))
	require.Empty(t, a.visible)
	require.Equal(t, "com.facebook.katana", a.hint)
	view := a.View()
	require.Contains(t, view, msgNoMatch)
	require.Contains(t, view, "Did you mean com.facebook.katana?")
}

func TestFilterCyclingNarrowsList(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())

	step(a, press("r"))
	require.Equal(t, catalog.Recommended, a.criteria.Removal)
	require.Equal(t, []int{pkgFacebook, pkgYouTube}, a.visible)

	step(a, press("l"))
	require.Equal(t, catalog.ListAosp, a.criteria.List)
	require.Empty(t, a.visible)

	step(a, press("esc"))
	require.Equal(t, packages.DefaultCriteria(), a.criteria)
	require.Len(t, a.visible, 3)
}

func TestReviewApplyCollapsesToOnePerPackage(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())

	step(a, press("j"))
	step(a, press("space"))
	require.Equal(t, 2, a.sel.Len())

	step(a, press("A"))
	require.True(t, a.reviewing)
	view := a.View()
	require.Contains(t, view, "Review selection for user 0")
	require.Contains(t, view, "applied to all other users")

	step(a, press("tab"))
	require.Equal(t, 1, a.reviewUser)

	require.NotNil(t, step(a, press("enter")))
	require.False(t, a.reviewing)
	require.Contains(t, a.status, "Applying 1 change(s)")
	require.True(t, a.sel.InFlight(pkgKey(0, pkgFacebook)))
	require.True(t, a.sel.InFlight(pkgKey(1, pkgFacebook)))
}

func TestUnavailableUserPanel(t *testing.T) {
	en := staticEnumerator{
		states: map[int]map[string]packages.State{0: allEnabled()},
		errs:   map[int]error{10: adb.ErrUserUnavailable},
	}
	a, _ := readyApp(t, testConfig(), en)

	step(a, press("u"))
	require.Equal(t, 1, a.criteria.User)
	require.Empty(t, a.visible)
	require.Contains(t, a.View(), "Packages of user 10 cannot be read.")

	step(a, press("a"))
	require.Zero(t, a.sel.Len())
}

func TestBatchFromEarlierLoadIsDropped(t *testing.T) {
	a, _ := readyApp(t, testConfig(), twoUsersEnabled())
	old := a.gen

	batches := service.Build(a.store, a.dev, a.cfg.Device, pkgKey(0, pkgYouTube))
	step(a, press("n"))
	require.Equal(t, DownloadingList, a.Phase())

	step(a, batchDoneMsg{gen: old, completion: service.Completion{Batch: batches[0]}})
	require.Equal(t, packages.Enabled, a.store.Record(pkgKey(0, pkgYouTube)).State)
}
