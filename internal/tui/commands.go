package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

func (a *App) checkTransport() tea.Cmd {
	ctx, t := a.ctx, a.deps.Transport
	return func() tea.Msg {
		return transportCheckedMsg{err: t.Available(ctx)}
	}
}

func (a *App) discover() tea.Cmd {
	ctx, t, prefer := a.ctx, a.deps.Transport, a.cfg.ADB.Serial
	return func() tea.Msg {
		dev, err := t.Discover(ctx, prefer)
		return deviceFoundMsg{dev: dev, err: err}
	}
}

// loadCatalog starts a new load generation.
func (a *App) loadCatalog(remote bool) tea.Cmd {
	a.gen++
	a.remote = remote
	ctx, src, gen := a.ctx, a.deps.Catalog, a.gen
	return func() tea.Msg {
		return catalogLoadedMsg{gen: gen, result: src.Resolve(ctx, remote)}
	}
}

func (a *App) loadPackages() tea.Cmd {
	ctx, en, gen, cat, dev := a.ctx, a.deps.Enumerator, a.gen, a.cat, a.dev
	return func() tea.Msg {
		st, err := en.Enumerate(ctx, cat, dev)
		return packagesLoadedMsg{gen: gen, store: st, err: err}
	}
}

func (a *App) runBatch(b service.Batch) tea.Cmd {
	ctx, r, gen := a.ctx, a.deps.Runner, a.gen
	return func() tea.Msg {
		return batchDoneMsg{gen: gen, completion: r.Run(ctx, b)}
	}
}

// dispatch runs each group in order; groups run concurrently. State
// significant batches are marked in flight before anything starts.
func (a *App) dispatch(groups [][]service.Batch) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		service.Track(a.sel, g)
		steps := make([]tea.Cmd, 0, len(g))
		for _, b := range g {
			steps = append(steps, a.runBatch(b))
		}
		cmds = append(cmds, tea.Sequence(steps...))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (a *App) saveBackup() tea.Cmd {
	if a.deps.Backups == nil {
		return nil
	}
	ctx, bk, st, dev := a.ctx, a.deps.Backups, a.store.Clone(), a.dev
	return func() tea.Msg {
		b, err := bk.Create(ctx, st, dev)
		return backupSavedMsg{backup: b, err: err}
	}
}

// planRestore reads a snapshot of the store so the event loop can keep
// mutating its own copy.
func (a *App) planRestore() tea.Cmd {
	if a.deps.Backups == nil {
		return nil
	}
	ctx, bk, st, dev, gen := a.ctx, a.deps.Backups, a.store.Clone(), a.dev, a.gen
	return func() tea.Msg {
		latest, err := bk.Latest(ctx, dev.Serial)
		if err != nil || latest == nil {
			return restorePlannedMsg{gen: gen, err: err}
		}
		bs, err := bk.RestoreBatches(ctx, st, dev, latest.ID)
		return restorePlannedMsg{gen: gen, backup: latest, batches: bs, err: err}
	}
}

func (a *App) persistConfig() tea.Cmd {
	if a.deps.SaveConfig == nil {
		return nil
	}
	save, cfg := a.deps.SaveConfig, a.cfg
	return func() tea.Msg {
		return configSavedMsg{err: save(cfg)}
	}
}
