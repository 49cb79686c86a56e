package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
		a.scroll()
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case transportCheckedMsg:
		return a, a.onTransport(m)
	case deviceFoundMsg:
		return a, a.onDevice(m)
	case catalogLoadedMsg:
		return a, a.onCatalog(m)
	case packagesLoadedMsg:
		a.onPackages(m)
		return a, nil
	case batchDoneMsg:
		a.onBatch(m)
		return a, nil
	case backupSavedMsg:
		if m.err != nil {
			a.setError(fmt.Sprintf("Backup failed: %v", m.err))
			return a, nil
		}
		a.setStatus(fmt.Sprintf("Backup saved: %d packages", m.backup.Entries))
		return a, nil
	case restorePlannedMsg:
		return a, a.onRestorePlanned(m)
	case configSavedMsg:
		if m.err != nil {
			a.deps.Logger.Warn("settings not saved", zap.Error(m.err))
			a.setError(fmt.Sprintf("Settings not saved: %v", m.err))
		}
		return a, nil
	case tea.KeyMsg:
		return a, a.handleKey(m)
	}
	return a, nil
}

func (a *App) onTransport(m transportCheckedMsg) tea.Cmd {
	if m.err != nil {
		a.transportMissing = true
		a.deps.Logger.Error("adb transport unavailable", zap.Error(m.err))
		return nil
	}
	return a.discover()
}

func (a *App) onDevice(m deviceFoundMsg) tea.Cmd {
	if m.err != nil {
		a.findErr = m.err
		if !errors.Is(m.err, adb.ErrNoDevice) {
			a.deps.Logger.Warn("device discovery failed", zap.Error(m.err))
		}
		return nil
	}
	a.findErr = nil
	a.dev = m.dev
	a.deps.Logger.Info("device found",
		zap.String("serial", m.dev.Serial),
		zap.String("model", m.dev.Model),
		zap.Int("sdk", m.dev.AndroidSDK),
		zap.Int("users", len(m.dev.Users)))
	a.enter(DownloadingList)
	return a.loadCatalog(a.cfg.Catalog.Remote)
}

func (a *App) onCatalog(m catalogLoadedMsg) tea.Cmd {
	if m.gen != a.gen || a.phase != DownloadingList {
		a.deps.Logger.Debug("stale catalog result dropped", zap.Int("gen", m.gen), zap.Int("current", a.gen))
		return nil
	}
	a.cat = m.result.Catalog
	a.catSource = m.result.Source
	a.degraded = m.result.Degraded
	a.deps.Transport.Bind(a.dev.Serial)
	a.enter(LoadingPackages)
	return a.loadPackages()
}

func (a *App) onPackages(m packagesLoadedMsg) {
	if m.gen != a.gen || a.phase != LoadingPackages {
		return
	}
	if m.err != nil {
		a.deps.Logger.Error("package enumeration failed", zap.Error(m.err))
		a.findErr = m.err
		a.setError(fmt.Sprintf("Could not load packages: %v", m.err))
		a.enter(FindingDevice)
		return
	}
	a.store = m.store
	a.sel = packages.NewSelection()
	a.criteria = packages.DefaultCriteria()
	a.allSelected = false
	a.cursor, a.offset = 0, 0
	a.search.SetValue("")
	a.recompute()
	a.observeSelection()
	if a.degraded {
		a.setStatus(fmt.Sprintf("Package lists could not be downloaded, using the %s copy", a.catSource))
	}
	a.enter(Ready)
}

// onBatch folds one command outcome into the store. Completions from an
// earlier load generation refer to a store that no longer exists.
func (a *App) onBatch(m batchDoneMsg) {
	c := m.completion
	b := c.Batch
	if m.gen != a.gen || a.store == nil {
		return
	}
	if b.Kind == service.Restore {
		a.restoreLabel = b.Label
		if c.Err != nil {
			a.restoreLabel = "Error"
		}
		if a.phase.interactive() {
			a.enter(RestoringDevice)
		}
	} else if c.Err != nil {
		a.setError(fmt.Sprintf("%s failed: %v", b.Command.Shell(), c.Err))
	}

	if service.Reconcile(a.store, a.sel, c) {
		a.deps.Metrics.RecordTransition(b.Target.String())
		if b.Kind == service.Change {
			a.setStatus(fmt.Sprintf("%s is now %s for %s", b.Label, b.Target, a.store.User(b.Key.User)))
		}
		a.recompute()
		a.observeSelection()
	}
}

func (a *App) onRestorePlanned(m restorePlannedMsg) tea.Cmd {
	if m.gen != a.gen {
		return nil
	}
	switch {
	case m.err != nil:
		a.setError(fmt.Sprintf("Restore failed: %v", m.err))
		return nil
	case m.backup == nil:
		a.setStatus("No backup saved for this device")
		return nil
	case len(m.batches) == 0:
		a.setStatus("Device already matches the latest backup")
		return nil
	}
	a.restoreLabel = ""
	a.setStatus(fmt.Sprintf("Restoring backup from %s", m.backup.CreatedAt.Format("2006-01-02 15:04")))
	a.enter(RestoringDevice)
	return a.dispatch(service.Group(m.batches))
}

func (a *App) scope() string {
	switch {
	case a.searching:
		return scopeSearch
	case a.reviewing:
		return scopeReview
	}
	switch a.phase {
	case FindingDevice:
		return scopeDiscovery
	case DownloadingList:
		return scopeDownload
	case Ready, RestoringDevice:
		return scopeList
	}
	return scopeGlobal
}

func (a *App) handleKey(m tea.KeyMsg) tea.Cmd {
	if a.searching {
		return a.handleSearchKey(m)
	}
	if a.reviewing {
		return a.handleReviewKey(m)
	}
	// Any key leaves the restore banner; the key itself still counts.
	if a.phase == RestoringDevice {
		a.enter(Ready)
	}

	b := a.keys.Lookup(m.String(), a.scope())
	if b == nil {
		return nil
	}
	if b.Action == actionQuit {
		return tea.Quit
	}
	switch a.phase {
	case FindingDevice:
		if b.Action == actionRetry && !a.transportMissing {
			a.findErr = nil
			a.status = ""
			return a.discover()
		}
	case DownloadingList:
		if b.Action == actionOffline {
			a.deps.Logger.Info("catalog download skipped by user")
			return a.loadCatalog(false)
		}
	case Ready:
		return a.handleListAction(b.Action)
	}
	return nil
}

func (a *App) handleListAction(act Action) tea.Cmd {
	switch act {
	case actionUp:
		a.move(-1)
	case actionDown:
		a.move(1)
	case actionPageUp:
		a.move(-a.listHeight())
	case actionPageDown:
		a.move(a.listHeight())
	case actionTop:
		a.move(-len(a.visible))
	case actionBottom:
		a.move(len(a.visible))
	case actionToggleSelect:
		a.toggleCurrent()
	case actionSelectAll:
		if !a.store.Available(a.criteria.User) {
			return nil
		}
		a.allSelected = a.sel.SelectAll(a.store, a.criteria.User, a.visible, !a.allSelected, a.policy())
		a.observeSelection()
	case actionClearSelection:
		a.sel.Clear(a.store)
		a.allSelected = false
		a.observeSelection()
		a.setStatus("Selection cleared")
	case actionApply:
		return a.actionPressed()
	case actionReview:
		a.openReview()
	case actionSearch:
		a.searching = true
		a.search.SetValue(a.criteria.Search)
		return a.search.Focus()
	case actionCycleList:
		a.criteria.List = next(catalog.ListFilters, a.criteria.List)
		a.refilter()
	case actionCycleRemoval:
		a.criteria.Removal = next(catalog.RemovalFilters, a.criteria.Removal)
		a.refilter()
	case actionCycleState:
		a.criteria.State = next(packages.StateFilters, a.criteria.State)
		a.refilter()
	case actionNextUser:
		if n := a.store.UserCount(); n > 1 {
			a.criteria.User = (a.criteria.User + 1) % n
			a.allSelected = false
			a.refilter()
		}
	case actionResetFilters:
		user := a.criteria.User
		a.criteria = packages.DefaultCriteria()
		a.criteria.User = user
		a.search.SetValue("")
		a.refilter()
	case actionDisableMode:
		a.cfg.Device.DisableMode = !a.cfg.Device.DisableMode
		a.setStatus("Disable mode " + onOff(a.cfg.Device.DisableMode))
		return a.persistConfig()
	case actionMultiUser:
		a.cfg.Device.MultiUserMode = !a.cfg.Device.MultiUserMode
		a.setStatus("Multi-user mode " + onOff(a.cfg.Device.MultiUserMode))
		return a.persistConfig()
	case actionExpertMode:
		a.cfg.General.ExpertMode = !a.cfg.General.ExpertMode
		if !a.cfg.General.ExpertMode {
			a.dropUnsafe()
		}
		a.setStatus("Expert mode " + onOff(a.cfg.General.ExpertMode))
		return a.persistConfig()
	case actionBackup:
		a.setStatus("Saving backup...")
		return a.saveBackup()
	case actionRestore:
		return a.planRestore()
	case actionOffline:
		a.enter(DownloadingList)
		return a.loadCatalog(false)
	}
	return nil
}

func (a *App) move(delta int) {
	a.cursor += delta
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	a.scroll()
}

func (a *App) refilter() {
	a.cursor, a.offset = 0, 0
	a.recompute()
}

func (a *App) toggleCurrent() {
	k, rec := a.current()
	if rec == nil {
		return
	}
	target := !rec.Selected
	if target && rec.Removal == catalog.Unsafe && !a.cfg.General.ExpertMode {
		a.setError("Unsafe packages can only be selected in expert mode")
	}
	a.sel.Toggle(a.store, k.User, k.Package, target, a.policy())
	a.observeSelection()
}

// actionPressed applies the opposite state to the record under the cursor.
func (a *App) actionPressed() tea.Cmd {
	k, rec := a.current()
	if rec == nil {
		return nil
	}
	// Selection clamps Unsafe silently; a direct action is refused instead.
	if rec.Removal == catalog.Unsafe && !a.cfg.General.ExpertMode {
		a.setError("Unsafe packages can only be changed in expert mode")
		return nil
	}
	if a.sel.InFlight(k) {
		a.setStatus(rec.Name + " is already being changed")
		return nil
	}
	a.sel.Toggle(a.store, k.User, k.Package, true, a.policy())
	a.observeSelection()
	bs := service.Build(a.store, a.dev, a.cfg.Device, k)
	if len(bs) == 0 {
		a.setStatus("Nothing to do for " + rec.Name)
		return nil
	}
	a.setStatus(fmt.Sprintf("%s %s...", service.Verb(rec.State, a.cfg.Device.DisableMode), rec.Name))
	return a.dispatch(service.Group(bs))
}

// dropUnsafe deselects Unsafe records once expert mode is turned off.
func (a *App) dropUnsafe() {
	for _, k := range a.sel.Sorted() {
		rec := a.store.Record(k)
		if rec == nil || rec.Removal != catalog.Unsafe || a.sel.InFlight(k) {
			continue
		}
		a.sel.Toggle(a.store, k.User, k.Package, false, a.policy())
	}
	a.observeSelection()
}

func (a *App) openReview() {
	if a.sel.Len() == 0 {
		a.setStatus("No package selected")
		return
	}
	a.reviewing = true
	a.reviewUser = a.criteria.User
	if len(a.sel.ForUser(a.reviewUser)) == 0 {
		a.reviewUser = a.sel.Sorted()[0].User
	}
}

func (a *App) cycleReviewUser() {
	users := a.store.Propagatable()
	if !a.cfg.Device.MultiUserMode || len(users) < 2 {
		return
	}
	for i, u := range users {
		if u == a.reviewUser {
			a.reviewUser = users[(i+1)%len(users)]
			return
		}
	}
	a.reviewUser = users[0]
}

func (a *App) handleReviewKey(m tea.KeyMsg) tea.Cmd {
	b := a.keys.Lookup(m.String(), scopeReview)
	if b == nil {
		return nil
	}
	switch b.Action {
	case actionQuit:
		return tea.Quit
	case actionCancel:
		a.reviewing = false
	case actionCycleUser:
		a.cycleReviewUser()
	case actionConfirm:
		a.reviewing = false
		groups := service.BuildSelection(a.store, a.sel, a.dev, a.cfg.Device, a.reviewUser)
		if len(groups) == 0 {
			a.setStatus("Nothing to apply")
			return nil
		}
		a.setStatus(fmt.Sprintf("Applying %d change(s)...", len(groups)))
		return a.dispatch(groups)
	}
	return nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) tea.Cmd {
	if m.String() == "ctrl+c" {
		return tea.Quit
	}
	if b := a.keys.Lookup(m.String(), scopeSearch); b != nil {
		switch b.Action {
		case actionConfirm:
			a.searching = false
			a.search.Blur()
			return nil
		case actionCancel:
			a.searching = false
			a.search.Blur()
			a.search.SetValue("")
			a.criteria.Search = ""
			a.refilter()
			return nil
		}
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	if v := a.search.Value(); v != a.criteria.Search {
		a.criteria.Search = v
		a.refilter()
	}
	return cmd
}

func next[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
