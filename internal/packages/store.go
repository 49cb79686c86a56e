package packages

import (
	"sort"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
)

// Record is the per-(user, package) state.
type Record struct {
	ID          string
	Name        string
	Description string
	State       State
	Removal     catalog.Removal
	List        catalog.List
	Selected    bool
}

// Key addresses a record: user ordinal and package ordinal.
type Key struct {
	User    int
	Package int
}

// Less orders keys by user, then package.
func (k Key) Less(o Key) bool {
	if k.User != o.User {
		return k.User < o.User
	}
	return k.Package < o.Package
}

// UserPackages is what enumeration produced for one user. A non-nil Err
// marks the user's list as unreadable.
type UserPackages struct {
	User   device.User
	States map[string]State
	Err    error
}

type overlay struct {
	user      device.User
	available bool
	err       error
	records   []Record
}

// Store is an arena of records: one sorted list of package identifiers and
// one record slice per user, all indexed by the same package ordinal.
type Store struct {
	ids   []string
	index map[string]int
	users []overlay
}

// Build assembles a store from per-user enumeration results. The package
// axis is the union of every readable user's packages; a package a user does
// not have is recorded as Uninstalled for that user.
func Build(cat catalog.Catalog, lists []UserPackages) *Store {
	seen := map[string]struct{}{}
	for _, l := range lists {
		if l.Err != nil {
			continue
		}
		for id := range l.States {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s := &Store{ids: ids, index: make(map[string]int, len(ids))}
	for i, id := range ids {
		s.index[id] = i
	}

	for _, l := range lists {
		ov := overlay{user: l.User, available: l.Err == nil, err: l.Err}
		if ov.available {
			ov.records = make([]Record, len(ids))
			for i, id := range ids {
				e, _ := cat.Lookup(id)
				st, ok := l.States[id]
				if !ok {
					st = Uninstalled
				}
				ov.records[i] = Record{
					ID:          id,
					Name:        id,
					Description: e.Description,
					State:       st,
					Removal:     e.Removal,
					List:        e.List,
				}
			}
		}
		s.users = append(s.users, ov)
	}
	return s
}

// Len is the number of packages on the package axis.
func (s *Store) Len() int { return len(s.ids) }

// UserCount is the number of users, readable or not.
func (s *Store) UserCount() int { return len(s.users) }

// ID returns the identifier at package ordinal p.
func (s *Store) ID(p int) string { return s.ids[p] }

// Ordinal returns the package ordinal for id.
func (s *Store) Ordinal(id string) (int, bool) {
	p, ok := s.index[id]
	return p, ok
}

// User returns the user at ordinal u.
func (s *Store) User(u int) device.User { return s.users[u].user }

// Available reports whether user u's packages could be read.
func (s *Store) Available(u int) bool {
	return u >= 0 && u < len(s.users) && s.users[u].available
}

// Err is the enumeration error of an unavailable user.
func (s *Store) Err(u int) error {
	if u < 0 || u >= len(s.users) {
		return nil
	}
	return s.users[u].err
}

// Records returns user u's records. The slice aliases the store.
func (s *Store) Records(u int) []Record {
	if !s.Available(u) {
		return nil
	}
	return s.users[u].records
}

// Record returns the record at k, or nil when k is out of range or the user
// is unavailable.
func (s *Store) Record(k Key) *Record {
	if !s.Available(k.User) || k.Package < 0 || k.Package >= len(s.ids) {
		return nil
	}
	return &s.users[k.User].records[k.Package]
}

// Propagatable lists the users a multi-user action reaches: readable and
// not protected.
func (s *Store) Propagatable() []int {
	var out []int
	for u, ov := range s.users {
		if ov.available && !ov.user.Protected {
			out = append(out, u)
		}
	}
	return out
}

// Clone returns a deep copy for readers running off the event loop.
func (s *Store) Clone() *Store {
	c := &Store{ids: s.ids, index: s.index, users: make([]overlay, len(s.users))}
	for i, ov := range s.users {
		ov.records = append([]Record(nil), ov.records...)
		c.users[i] = ov
	}
	return c
}
