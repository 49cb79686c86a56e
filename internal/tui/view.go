package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
)

const (
	msgNoADB       = "ADB is not installed on your system, install ADB and relaunch application."
	msgNoMatch     = "No packages match the current filters"
	msgNoPackages  = "No packages found on device"
	maxReviewLines = 12
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.viewHeader())
	b.WriteString("\n\n")

	switch a.phase {
	case FindingDevice:
		b.WriteString(a.viewFinding())
	case DownloadingList:
		b.WriteString(a.spinner.View() + " Downloading latest package lists from GitHub. Please wait...\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("No internet? press %s", a.keyFor(scopeDownload, actionOffline))))
	case LoadingPackages:
		b.WriteString(fmt.Sprintf("%s Loading packages of %s...", a.spinner.View(), a.dev))
	default:
		if a.reviewing {
			b.WriteString(a.viewReview())
		} else {
			b.WriteString(a.viewList())
		}
	}

	b.WriteString("\n\n")
	if a.status != "" {
		if a.statusErr {
			b.WriteString(errorStyle.Render(a.status))
		} else {
			b.WriteString(statusStyle.Render(a.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.help.ShortHelpView(a.keys.HelpBindings(a.scope())))
	return b.String()
}

func (a *App) viewHeader() string {
	parts := []string{titleStyle.Render("Universal Android Debloater")}
	if a.dev.Serial != "" {
		parts = append(parts, headerStyle.Render(fmt.Sprintf("%s · Android SDK %d", a.dev, a.dev.AndroidSDK)))
	}
	if a.degraded {
		parts = append(parts, warnBadge.Render("lists: "+string(a.catSource)))
	}
	if a.cfg.Device.DisableMode {
		parts = append(parts, badgeStyle.Render("disable"))
	}
	if a.cfg.Device.MultiUserMode {
		parts = append(parts, badgeStyle.Render("multi-user"))
	}
	if a.cfg.General.ExpertMode {
		parts = append(parts, badgeStyle.Render("expert"))
	}
	return strings.Join(parts, "  ")
}

func (a *App) viewFinding() string {
	switch {
	case a.transportMissing:
		return errorStyle.Render(msgNoADB)
	case a.findErr != nil:
		return errorStyle.Render("No device found.") + "\n" +
			mutedStyle.Render(fmt.Sprintf(
				"Connect a device with USB debugging enabled and authorize this computer, then press %s to retry.",
				a.keyFor(scopeDiscovery, actionRetry)))
	}
	return a.spinner.View() + " Finding connected devices..."
}

func (a *App) viewList() string {
	var b strings.Builder
	b.WriteString(a.viewUsers())
	b.WriteString("\n")
	b.WriteString(a.viewFilters())
	b.WriteString("\n")
	if a.searching {
		b.WriteString(a.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	user := a.criteria.User
	switch {
	case !a.store.Available(user):
		msg := fmt.Sprintf("Packages of %s cannot be read.", a.store.User(user))
		if err := a.store.Err(user); err != nil {
			msg += "\n" + mutedStyle.Render(err.Error())
		}
		msg += "\n" + mutedStyle.Render("Work profiles and protected users are left untouched.")
		b.WriteString(panelStyle.Render(msg))
	case a.store.Len() == 0:
		b.WriteString(mutedStyle.Render(msgNoPackages))
	case len(a.visible) == 0:
		b.WriteString(mutedStyle.Render(msgNoMatch))
		if a.hint != "" {
			b.WriteString("\n" + statusStyle.Render(fmt.Sprintf("Did you mean %s?", a.hint)))
		}
	default:
		b.WriteString(a.viewRows())
		if _, rec := a.current(); rec != nil && rec.Description != "" {
			desc := rec.Description
			if a.width > 8 {
				desc = lipgloss.NewStyle().Width(a.width - 6).Render(desc)
			}
			b.WriteString("\n" + panelStyle.Render(descriptStyle.Render(desc)))
		}
	}

	if a.phase == RestoringDevice {
		b.WriteString("\n")
		switch a.restoreLabel {
		case "":
			b.WriteString(a.spinner.View() + " Restoring device...")
		case "Error":
			b.WriteString(errorStyle.Render("Restoring: Error"))
		default:
			b.WriteString(successStyle.Render("Restoring: " + a.restoreLabel))
		}
	}
	return b.String()
}

func (a *App) viewUsers() string {
	tabs := make([]string, 0, a.store.UserCount())
	for u := 0; u < a.store.UserCount(); u++ {
		label := a.store.User(u).String()
		switch {
		case u == a.criteria.User:
			tabs = append(tabs, activeTab.Render(label))
		case !a.store.Available(u):
			tabs = append(tabs, disabledTab.Render(label))
		default:
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}
	return strings.Join(tabs, "  ")
}

func (a *App) viewFilters() string {
	field := func(name, value string) string {
		return filterLabel.Render(name+": ") + filterValue.Render(value)
	}
	parts := []string{
		field("List", string(a.criteria.List)),
		field("Removal", a.criteria.Removal.String()),
		field("State", a.criteria.State.String()),
	}
	if a.criteria.Search != "" && !a.searching {
		parts = append(parts, field("Search", a.criteria.Search))
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d shown · %d selected", len(a.visible), a.sel.Len())))
	return strings.Join(parts, "  ")
}

func (a *App) viewRows() string {
	nameW := 10
	for _, p := range a.visible {
		nameW = max(nameW, len(a.store.ID(p)))
	}
	nameW = min(nameW, 60)

	end := min(a.offset+a.listHeight(), len(a.visible))
	rows := make([]string, 0, end-a.offset)
	for i := a.offset; i < end; i++ {
		k := packages.Key{User: a.criteria.User, Package: a.visible[i]}
		rec := a.store.Record(k)
		mark := "[ ]"
		switch {
		case a.sel.InFlight(k):
			mark = "[~]"
		case rec.Selected:
			mark = "[x]"
		}
		name := fmt.Sprintf("%-*s", nameW, truncate(rec.Name, nameW))
		if i == a.cursor {
			name = cursorStyle.Render(name)
		}
		rows = append(rows, fmt.Sprintf("%s %s  %s %s %s",
			mark, name,
			removalStyle(rec.Removal.String()).Render(fmt.Sprintf("%-11s", rec.Removal)),
			mutedStyle.Render(fmt.Sprintf("%-8s", rec.List)),
			stateStyle(rec.State.String()).Render(rec.State.String())))
	}
	return strings.Join(rows, "\n")
}

func (a *App) viewReview() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Review selection for %s", a.store.User(a.reviewUser))))
	b.WriteString("\n\n")
	b.WriteString(filterLabel.Render(fmt.Sprintf("%-12s %8s %8s", "", "Discard", "Restore")))
	for _, e := range service.Summarize(a.store, a.sel, a.reviewUser) {
		b.WriteString("\n")
		b.WriteString(removalStyle(e.Removal.String()).Render(fmt.Sprintf("%-12s", e.Removal)))
		b.WriteString(fmt.Sprintf(" %8d %8d", e.Discard, e.Restore))
	}
	b.WriteString("\n\n")

	lines := service.ReviewLines(a.store, a.sel, a.reviewUser, a.cfg.Device.DisableMode)
	for i, l := range lines {
		if i == maxReviewLines {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("... and %d more", len(lines)-maxReviewLines)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("%-9s %s\n", l.Verb, l.Name))
	}

	if a.cfg.Device.MultiUserMode && len(a.store.Propagatable()) > 1 {
		b.WriteString("\n" + statusStyle.Render(fmt.Sprintf(
			"The action for the selected user will be applied to all other users. %s: change user",
			a.keyFor(scopeReview, actionCycleUser))))
	}
	return modalStyle.Render(b.String())
}

func (a *App) keyFor(scope string, act Action) string {
	for _, b := range a.keys.BindingsForScope(scope) {
		if b.Action == act {
			return b.Keys[0]
		}
	}
	return "?"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
