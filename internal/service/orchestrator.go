package service

import (
	"sort"

	"github.com/google/uuid"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/config"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// Kind separates ordinary transitions from backup restores.
type Kind int

const (
	Change Kind = iota
	Restore
)

func (k Kind) String() string {
	if k == Restore {
		return "restore"
	}
	return "change"
}

// Batch is one primitive device command scheduled on behalf of a record.
// Exactly one batch per (action, user) carries StateSignificant; only its
// success moves the record to Target.
type Batch struct {
	ActionID         string
	Key              packages.Key
	Command          adb.Command
	Target           packages.State
	StateSignificant bool
	Kind             Kind
	Label            string
}

// Build turns an action on the record at key into command batches. The
// reference record's opposite state is the target. With multi-user mode off
// only key.User is touched and each user moves to its own opposite; with it
// on every readable, unprotected user is moved to the reference target.
func Build(st *packages.Store, dev device.Device, s config.DeviceSettings, key packages.Key) []Batch {
	ref := st.Record(key)
	if ref == nil {
		return nil
	}
	target := ref.State.Opposite(s.DisableMode)

	users := []int{key.User}
	if s.MultiUserMode {
		users = st.Propagatable()
	} else if st.User(key.User).Protected {
		return nil
	}

	var out []Batch
	for _, u := range users {
		k := packages.Key{User: u, Package: key.Package}
		rec := st.Record(k)
		if rec == nil {
			continue
		}
		want := target
		if !s.MultiUserMode {
			want = rec.State.Opposite(s.DisableMode)
		}
		out = append(out, batches(rec, k, st.User(u), dev, want, Change)...)
	}
	return out
}

func batches(rec *packages.Record, k packages.Key, user device.User, dev device.Device, target packages.State, kind Kind) []Batch {
	cmds := adb.ApplyState(rec.ID, rec.State, target, user, dev)
	if len(cmds) == 0 {
		return nil
	}
	id := uuid.NewString()
	out := make([]Batch, 0, len(cmds))
	for i, c := range cmds {
		out = append(out, Batch{
			ActionID:         id,
			Key:              k,
			Command:          c,
			Target:           target,
			StateSignificant: i == 0,
			Kind:             kind,
			Label:            rec.Name,
		})
	}
	return out
}

// BuildSelection builds every selected record. Keys are sorted and
// deduplicated first. In multi-user mode one key per package is kept (the
// review user's when selected, else the lowest user's) because Build already
// reaches every user and a second key would dispatch the same change twice.
// The result holds one slice per selection.
func BuildSelection(st *packages.Store, sel *packages.Selection, dev device.Device, s config.DeviceSettings, reviewUser int) [][]Batch {
	keys := sel.Sorted()
	if s.MultiUserMode {
		keys = collapse(keys, reviewUser)
	}
	var out [][]Batch
	for _, k := range keys {
		if b := Build(st, dev, s, k); len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func collapse(keys []packages.Key, reviewUser int) []packages.Key {
	chosen := map[int]packages.Key{}
	for _, k := range keys {
		cur, ok := chosen[k.Package]
		switch {
		case !ok:
			chosen[k.Package] = k
		case k.User == reviewUser:
			chosen[k.Package] = k
		case cur.User != reviewUser && k.User < cur.User:
			chosen[k.Package] = k
		}
	}
	out := make([]packages.Key, 0, len(chosen))
	for _, k := range chosen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Group splits batches into per-record runs that must execute in order.
// Runs for different records are independent.
func Group(bs []Batch) [][]Batch {
	var out [][]Batch
	idx := map[string]int{}
	for _, b := range bs {
		i, ok := idx[b.ActionID]
		if !ok {
			i = len(out)
			idx[b.ActionID] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], b)
	}
	return out
}

// Track marks the state-significant batches as in flight.
func Track(sel *packages.Selection, bs []Batch) {
	for _, b := range bs {
		if b.StateSignificant {
			sel.MarkInFlight(b.Key)
		}
	}
}

// Completion is the result of running one batch.
type Completion struct {
	Batch   Batch
	Outcome adb.Outcome
	Err     error
}

// Reconcile applies a completion to the store. Only a successful
// state-significant batch changes a record's state: the record takes the
// batch's target, its selection is dropped and the in-flight mark released.
// A failed one leaves the state alone and settles the in-flight mark. It
// reports whether a record changed, in which case the visible list must be
// recomputed.
func Reconcile(st *packages.Store, sel *packages.Selection, c Completion) bool {
	if !c.Batch.StateSignificant {
		return false
	}
	if c.Err != nil {
		sel.Settle(st, c.Batch.Key)
		return false
	}
	rec := st.Record(c.Batch.Key)
	if rec == nil {
		sel.Settle(st, c.Batch.Key)
		return false
	}
	rec.State = c.Batch.Target
	sel.Complete(st, c.Batch.Key)
	return true
}
