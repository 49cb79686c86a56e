package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/config"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

// CatalogSource resolves the package classifications.
type CatalogSource interface {
	Resolve(ctx context.Context, remote bool) catalog.Result
}

// Transport finds and binds the device.
type Transport interface {
	Available(ctx context.Context) error
	Discover(ctx context.Context, prefer string) (device.Device, error)
	Bind(serial string)
}

// Enumerator reads every user's packages.
type Enumerator interface {
	Enumerate(ctx context.Context, cat catalog.Catalog, dev device.Device) (*packages.Store, error)
}

// BatchRunner executes one batch.
type BatchRunner interface {
	Run(ctx context.Context, b service.Batch) service.Completion
}

// Backups saves device snapshots and plans restores.
type Backups interface {
	Create(ctx context.Context, st *packages.Store, dev device.Device) (repository.Backup, error)
	Latest(ctx context.Context, serial string) (*repository.Backup, error)
	RestoreBatches(ctx context.Context, st *packages.Store, dev device.Device, backupID string) ([]service.Batch, error)
}

// Deps are the collaborators of the App. Backups, SaveConfig, Logger and
// Metrics may be nil.
type Deps struct {
	Catalog    CatalogSource
	Transport  Transport
	Enumerator Enumerator
	Runner     BatchRunner
	Backups    Backups
	SaveConfig func(config.Config) error
	Keys       *KeyRegistry
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// App is the session state machine: it finds a device, loads the catalog
// and the packages, then serves filtering, selection and actions.
type App struct {
	ctx  context.Context
	deps Deps
	cfg  config.Config
	keys *KeyRegistry

	phase            Phase
	transportMissing bool
	findErr          error
	dev              device.Device
	// gen numbers load attempts; completions of an older attempt are stale.
	gen int

	remote    bool
	cat       catalog.Catalog
	catSource catalog.Source
	degraded  bool

	store       *packages.Store
	sel         *packages.Selection
	criteria    packages.Criteria
	visible     []int
	allSelected bool
	cursor      int
	offset      int
	hint        string

	searching  bool
	reviewing  bool
	reviewUser int

	restoreLabel string

	status    string
	statusErr bool

	search  textinput.Model
	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	keys := deps.Keys
	if keys == nil {
		keys = NewKeyRegistry()
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "package name"
	ti.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	return &App{
		ctx:      ctx,
		deps:     deps,
		cfg:      cfg,
		keys:     keys,
		phase:    FindingDevice,
		remote:   cfg.Catalog.Remote,
		sel:      packages.NewSelection(),
		criteria: packages.DefaultCriteria(),
		search:   ti,
		spinner:  sp,
		help:     help.New(),
		height:   30,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.checkTransport())
}

// Phase returns the current phase.
func (a *App) Phase() Phase { return a.phase }

// Degraded reports whether the catalog came from a fallback source.
func (a *App) Degraded() bool { return a.degraded }

func (a *App) policy() packages.Policy {
	return packages.Policy{
		ExpertMode:    a.cfg.General.ExpertMode,
		MultiUserMode: a.cfg.Device.MultiUserMode,
	}
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusErr = false
}

func (a *App) setError(s string) {
	a.status = s
	a.statusErr = true
}

func (a *App) enter(p Phase) {
	if a.phase != p {
		a.deps.Logger.Debug("phase", zap.Stringer("from", a.phase), zap.Stringer("to", p))
	}
	a.phase = p
}

// recompute refreshes the visible list for the active user.
func (a *App) recompute() {
	a.hint = ""
	if a.store == nil {
		a.visible = nil
		return
	}
	records := a.store.Records(a.criteria.User)
	a.visible = packages.Recompute(a.criteria, records)
	if len(a.visible) == 0 && a.criteria.Search != "" {
		if name, ok := packages.ClosestName(records, a.criteria.Search); ok {
			a.hint = name
		}
	}
	if a.cursor >= len(a.visible) {
		a.cursor = max(len(a.visible)-1, 0)
	}
	a.scroll()
}

func (a *App) observeSelection() {
	if a.deps.Metrics != nil {
		a.deps.Metrics.Selected.Set(float64(a.sel.Len()))
	}
}

// current returns the key under the cursor.
func (a *App) current() (packages.Key, *packages.Record) {
	if a.store == nil || a.cursor >= len(a.visible) {
		return packages.Key{}, nil
	}
	k := packages.Key{User: a.criteria.User, Package: a.visible[a.cursor]}
	return k, a.store.Record(k)
}

func (a *App) listHeight() int {
	return max(a.height-14, 5)
}

func (a *App) scroll() {
	h := a.listHeight()
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+h {
		a.offset = a.cursor - h + 1
	}
	if a.offset < 0 {
		a.offset = 0
	}
}
