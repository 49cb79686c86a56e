package packages

import (
	"strings"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
)

// Criteria narrows the records shown for the active user.
type Criteria struct {
	List    catalog.List
	Removal catalog.Removal
	State   State
	Search  string
	User    int
}

// DefaultCriteria shows everything for the first user.
func DefaultCriteria() Criteria {
	return Criteria{
		List:    catalog.ListAll,
		Removal: catalog.RemovalAll,
		State:   StateAll,
	}
}

// Matches reports whether r passes every filter. Search is a case-sensitive
// substring match on the display name.
func (c Criteria) Matches(r Record) bool {
	if c.List != catalog.ListAll && c.List != "" && r.List != c.List {
		return false
	}
	if c.Removal != catalog.RemovalAll && r.Removal != c.Removal {
		return false
	}
	if c.State != StateAll && r.State != c.State {
		return false
	}
	return c.Search == "" || strings.Contains(r.Name, c.Search)
}

// Recompute returns the ordinals of records that match c, in ordinal order.
func Recompute(c Criteria, records []Record) []int {
	out := make([]int, 0, len(records))
	for i, r := range records {
		if c.Matches(r) {
			out = append(out, i)
		}
	}
	return out
}
