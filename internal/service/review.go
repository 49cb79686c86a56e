package service

import (
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// SummaryEntry tallies the selected records of one removal category.
type SummaryEntry struct {
	Removal catalog.Removal
	Discard int
	Restore int
}

// Summarize counts, for the review user's selected records, how many would
// be discarded (currently enabled) or restored, per removal category in
// display order.
func Summarize(st *packages.Store, sel *packages.Selection, user int) []SummaryEntry {
	out := make([]SummaryEntry, len(catalog.Categories))
	pos := map[catalog.Removal]int{}
	for i, r := range catalog.Categories {
		out[i].Removal = r
		pos[r] = i
	}
	for _, k := range sel.ForUser(user) {
		rec := st.Record(k)
		if rec == nil {
			continue
		}
		i, ok := pos[rec.Removal]
		if !ok {
			i = pos[catalog.Unlisted]
		}
		if rec.State == packages.Enabled {
			out[i].Discard++
		} else {
			out[i].Restore++
		}
	}
	return out
}

// ReviewLine is one selected record as shown in the review dialog.
type ReviewLine struct {
	Key     packages.Key
	Name    string
	Removal catalog.Removal
	Verb    string
}

// ReviewLines lists the review user's selected records with what applying
// would do to each.
func ReviewLines(st *packages.Store, sel *packages.Selection, user int, disableMode bool) []ReviewLine {
	var out []ReviewLine
	for _, k := range sel.ForUser(user) {
		rec := st.Record(k)
		if rec == nil {
			continue
		}
		out = append(out, ReviewLine{Key: k, Name: rec.Name, Removal: rec.Removal, Verb: Verb(rec.State, disableMode)})
	}
	return out
}

// Verb names the action applied to a package currently in state s.
func Verb(s packages.State, disableMode bool) string {
	switch s {
	case packages.Enabled:
		if disableMode {
			return "Disable"
		}
		return "Uninstall"
	case packages.Disabled:
		return "Enable"
	default:
		return "Restore"
	}
}
