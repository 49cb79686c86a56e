package packages

import (
	"sort"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
)

// Policy carries the settings that shape selection.
type Policy struct {
	ExpertMode    bool
	MultiUserMode bool
}

// Selection is the set of selected records. A key is in the set exactly when
// its record is flagged Selected, except for keys whose state-significant
// command is still running after Clear; those flags drop when the command
// completes or fails.
type Selection struct {
	set      map[Key]struct{}
	inflight map[Key]int
}

func NewSelection() *Selection {
	return &Selection{
		set:      map[Key]struct{}{},
		inflight: map[Key]int{},
	}
}

// Toggle sets the selection of package pkg as seen from user. Unsafe packages
// cannot be selected outside expert mode; asking to is treated as a deselect.
// In multi-user mode the change reaches the same package for every readable,
// unprotected user, and a deselect drops the package for every user.
func (s *Selection) Toggle(st *Store, user, pkg int, target bool, p Policy) {
	rec := st.Record(Key{User: user, Package: pkg})
	if rec == nil {
		return
	}
	if target && rec.Removal == catalog.Unsafe && !p.ExpertMode {
		target = false
	}

	if !p.MultiUserMode {
		s.set1(st, Key{User: user, Package: pkg}, target)
		return
	}

	if target {
		if !st.User(user).Protected {
			s.set1(st, Key{User: user, Package: pkg}, true)
		}
		for _, u := range st.Propagatable() {
			s.set1(st, Key{User: u, Package: pkg}, true)
		}
		return
	}
	for u := 0; u < st.UserCount(); u++ {
		s.set1(st, Key{User: u, Package: pkg}, false)
	}
}

func (s *Selection) set1(st *Store, k Key, on bool) {
	rec := st.Record(k)
	if rec == nil {
		return
	}
	rec.Selected = on
	if on {
		s.set[k] = struct{}{}
	} else {
		delete(s.set, k)
	}
}

// SelectAll toggles every visible ordinal whose flag differs from target and
// returns the "all selected" display flag.
func (s *Selection) SelectAll(st *Store, user int, visible []int, target bool, p Policy) bool {
	for _, pkg := range visible {
		rec := st.Record(Key{User: user, Package: pkg})
		if rec == nil || rec.Selected == target {
			continue
		}
		s.Toggle(st, user, pkg, target, p)
	}
	return target
}

// Clear empties the set. Records whose command is in flight keep their flag
// until Complete or Settle.
func (s *Selection) Clear(st *Store) {
	for k := range s.set {
		if s.inflight[k] > 0 {
			continue
		}
		if rec := st.Record(k); rec != nil {
			rec.Selected = false
		}
	}
	s.set = map[Key]struct{}{}
}

// Contains reports membership.
func (s *Selection) Contains(k Key) bool {
	_, ok := s.set[k]
	return ok
}

// Len is the number of selected keys.
func (s *Selection) Len() int { return len(s.set) }

// Sorted returns the deduplicated keys ordered by user then package.
func (s *Selection) Sorted() []Key {
	out := make([]Key, 0, len(s.set))
	for k := range s.set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ForUser returns the sorted keys of one user.
func (s *Selection) ForUser(user int) []Key {
	var out []Key
	for _, k := range s.Sorted() {
		if k.User == user {
			out = append(out, k)
		}
	}
	return out
}

// MarkInFlight records a pending state-significant command for k.
func (s *Selection) MarkInFlight(k Key) {
	s.inflight[k]++
}

// Release drops one pending command for k.
func (s *Selection) Release(k Key) {
	if s.inflight[k] <= 1 {
		delete(s.inflight, k)
		return
	}
	s.inflight[k]--
}

// InFlight reports whether k has a pending state-significant command.
func (s *Selection) InFlight(k Key) bool {
	return s.inflight[k] > 0
}

// Complete settles a successful state-significant command for k: the flag
// is cleared, the key leaves the set and the in-flight mark is released.
func (s *Selection) Complete(st *Store, k Key) {
	if rec := st.Record(k); rec != nil {
		rec.Selected = false
	}
	delete(s.set, k)
	s.Release(k)
}

// Settle releases a state-significant command for k that did not change the
// record. The flag follows set membership again once nothing is in flight,
// so a key dropped by Clear while its command ran is unflagged here.
func (s *Selection) Settle(st *Store, k Key) {
	s.Release(k)
	if s.InFlight(k) || s.Contains(k) {
		return
	}
	if rec := st.Record(k); rec != nil {
		rec.Selected = false
	}
}
