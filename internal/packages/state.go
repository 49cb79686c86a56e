package packages

import "strings"

// State is the install state of a package for one user.
type State int

const (
	Enabled State = iota
	Disabled
	Uninstalled
	// StateAll is the filter wildcard; it is never stored on a record.
	StateAll
)

// StateFilters is the cycle order used by the state filter.
var StateFilters = []State{StateAll, Enabled, Disabled, Uninstalled}

func (s State) String() string {
	switch s {
	case Enabled:
		return "Enabled"
	case Disabled:
		return "Disabled"
	case Uninstalled:
		return "Uninstalled"
	case StateAll:
		return "All"
	}
	return "Unknown"
}

// ParseState maps text (case-insensitive) to a State.
func ParseState(s string) (State, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled":
		return Enabled, true
	case "disabled":
		return Disabled, true
	case "uninstalled":
		return Uninstalled, true
	case "all", "":
		return StateAll, true
	}
	return StateAll, false
}

// Opposite is the state an action on a package in state s moves it to.
// Enabled packages go to Disabled in disable mode and to Uninstalled
// otherwise; anything else comes back to Enabled.
func (s State) Opposite(disableMode bool) State {
	if s == Enabled {
		if disableMode {
			return Disabled
		}
		return Uninstalled
	}
	return Enabled
}
