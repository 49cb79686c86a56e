package tui

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal    = "global"
	scopeDiscovery = "discovery"
	scopeDownload  = "download"
	scopeList      = "list"
	scopeSearch    = "search"
	scopeReview    = "review"
)

const (
	actionQuit           Action = "quit"
	actionRetry          Action = "retry"
	actionOffline        Action = "offline"
	actionUp             Action = "up"
	actionDown           Action = "down"
	actionTop            Action = "top"
	actionBottom         Action = "bottom"
	actionPageUp         Action = "page_up"
	actionPageDown       Action = "page_down"
	actionToggleSelect   Action = "toggle_select"
	actionSelectAll      Action = "select_all"
	actionClearSelection Action = "clear_selection"
	actionApply          Action = "apply"
	actionReview         Action = "review"
	actionSearch         Action = "search"
	actionCycleList      Action = "cycle_list"
	actionCycleRemoval   Action = "cycle_removal"
	actionCycleState     Action = "cycle_state"
	actionNextUser       Action = "next_user"
	actionResetFilters   Action = "reset_filters"
	actionDisableMode    Action = "toggle_disable_mode"
	actionMultiUser      Action = "toggle_multi_user"
	actionExpertMode     Action = "toggle_expert_mode"
	actionBackup         Action = "backup"
	actionRestore        Action = "restore"
	actionConfirm        Action = "confirm"
	actionCancel         Action = "cancel"
	actionCycleUser      Action = "cycle_review_user"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	reg(scopeGlobal, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeDiscovery, actionRetry, []string{"ctrl+r"}, "retry")
	reg(scopeDiscovery, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeDownload, actionOffline, []string{"n"}, "no internet?")
	reg(scopeDownload, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeList, actionUp, []string{"k", "up"}, "up")
	reg(scopeList, actionDown, []string{"j", "down"}, "down")
	reg(scopeList, actionTop, []string{"g", "home"}, "top")
	reg(scopeList, actionBottom, []string{"G", "end"}, "bottom")
	reg(scopeList, actionPageUp, []string{"pgup", "ctrl+u"}, "page up")
	reg(scopeList, actionPageDown, []string{"pgdown", "ctrl+d"}, "page down")
	reg(scopeList, actionToggleSelect, []string{"space"}, "select")
	reg(scopeList, actionSelectAll, []string{"a"}, "select all")
	reg(scopeList, actionClearSelection, []string{"x"}, "clear sel")
	reg(scopeList, actionApply, []string{"enter"}, "apply")
	reg(scopeList, actionReview, []string{"A"}, "review sel")
	reg(scopeList, actionSearch, []string{"/"}, "search")
	reg(scopeList, actionCycleList, []string{"l"}, "list")
	reg(scopeList, actionCycleRemoval, []string{"r"}, "removal")
	reg(scopeList, actionCycleState, []string{"s"}, "state")
	reg(scopeList, actionNextUser, []string{"u", "tab"}, "user")
	reg(scopeList, actionResetFilters, []string{"esc"}, "reset filters")
	reg(scopeList, actionDisableMode, []string{"D"}, "disable mode")
	reg(scopeList, actionMultiUser, []string{"M"}, "multi-user")
	reg(scopeList, actionExpertMode, []string{"E"}, "expert")
	reg(scopeList, actionBackup, []string{"b"}, "backup")
	reg(scopeList, actionRestore, []string{"R"}, "restore")
	reg(scopeList, actionOffline, []string{"n"}, "reload offline")
	reg(scopeList, actionQuit, []string{"q", "ctrl+c"}, "quit")

	reg(scopeSearch, actionConfirm, []string{"enter"}, "done")
	reg(scopeSearch, actionCancel, []string{"esc"}, "clear")

	reg(scopeReview, actionConfirm, []string{"enter", "y"}, "apply")
	reg(scopeReview, actionCycleUser, []string{"tab"}, "review user")
	reg(scopeReview, actionCancel, []string{"esc", "n"}, "cancel")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 || r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

// Lookup resolves a key in scope, falling back to the global scope.
func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		ch := trimmed[0]
		if ch >= 'A' && ch <= 'Z' {
			// Uppercase runes stay distinct from their lowercase bindings.
			return trimmed
		}
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "ctl+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	s = strings.ReplaceAll(s, "spacebar", "space")
	return s
}

// keybindingConfig is one override entry of the keybindings file.
type keybindingConfig struct {
	Scope  string   `toml:"scope"`
	Action string   `toml:"action"`
	Keys   []string `toml:"keys"`
}

type keybindingsFile struct {
	Version  int                `toml:"version"`
	Bindings []keybindingConfig `toml:"binding"`
}

// ApplyKeybindingConfig replaces the keys of existing bindings. Unknown
// scopes or actions and keys claimed twice within a scope are rejected.
func (r *KeyRegistry) ApplyKeybindingConfig(items []keybindingConfig) error {
	if r == nil || len(items) == 0 {
		return nil
	}
	type pair struct {
		scope  string
		action Action
	}
	seenPair := make(map[pair]bool)
	for _, o := range items {
		scope := strings.TrimSpace(o.Scope)
		if scope == "" {
			return fmt.Errorf("shortcut override: scope is required")
		}
		action := Action(strings.TrimSpace(o.Action))
		if action == "" {
			return fmt.Errorf("shortcut override scope=%q: action is required", scope)
		}
		keys := normalizeKeyList(o.Keys)
		if len(keys) == 0 {
			return fmt.Errorf("shortcut override scope=%q action=%q: keys are required", scope, action)
		}

		bindings := r.bindingsByScope[scope]
		if len(bindings) == 0 {
			return fmt.Errorf("shortcut override scope=%q action=%q: unknown scope", scope, action)
		}
		var target *Binding
		for _, b := range bindings {
			if b.Action == action {
				target = b
				break
			}
		}
		if target == nil {
			return fmt.Errorf("shortcut override scope=%q action=%q: unknown action in scope", scope, action)
		}
		p := pair{scope: scope, action: action}
		if seenPair[p] {
			return fmt.Errorf("shortcut override scope=%q action=%q: duplicated override entry", scope, action)
		}
		seenPair[p] = true
		target.Keys = keys
	}

	r.rebuildIndex()
	for scope, bindings := range r.bindingsByScope {
		seen := make(map[string]Action)
		for _, b := range bindings {
			for _, k := range b.Keys {
				if prev, ok := seen[k]; ok {
					return fmt.Errorf("shortcut override conflict in scope=%q: key %q used by both %q and %q", scope, k, prev, b.Action)
				}
				seen[k] = b.Action
			}
		}
	}
	return nil
}

func (r *KeyRegistry) ExportKeybindingConfig() []keybindingConfig {
	if r == nil {
		return nil
	}
	var out []keybindingConfig
	for scope, bindings := range r.bindingsByScope {
		for _, b := range bindings {
			out = append(out, keybindingConfig{
				Scope:  scope,
				Action: string(b.Action),
				Keys:   append([]string(nil), b.Keys...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Action < out[j].Action
	})
	return out
}

func (r *KeyRegistry) rebuildIndex() {
	r.indexByScope = make(map[string]map[string]*Binding, len(r.bindingsByScope))
	for scope, bindings := range r.bindingsByScope {
		r.indexByScope[scope] = make(map[string]*Binding)
		for _, b := range bindings {
			for _, k := range b.Keys {
				r.indexByScope[scope][k] = b
			}
		}
	}
}

// LoadKeybindings applies the overrides in path. A missing file is fine.
func (r *KeyRegistry) LoadKeybindings(path string) error {
	if path == "" {
		return nil
	}
	var f keybindingsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return r.ApplyKeybindingConfig(f.Bindings)
}

// WriteKeybindings exports the current bindings to path.
func (r *KeyRegistry) WriteKeybindings(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(keybindingsFile{Version: 1, Bindings: r.ExportKeybindingConfig()})
}
