// Package language maps the language tokens found in block attributes to the
// canonical names transformers are registered under.
package language

import (
	"sort"
	"sync"
)

// Entry maps an alias token to a canonical language.
type Entry struct {
	Alias string
	Lang  string
}

// DefaultAliases is the seed set every new Table starts with.
func DefaultAliases() []Entry {
	return []Entry{
		{Alias: "postcss", Lang: "css"},
		{Alias: "sass", Lang: "scss"},
		{Alias: "styl", Lang: "stylus"},
		{Alias: "js", Lang: "javascript"},
		{Alias: "coffee", Lang: "coffeescript"},
	}
}

// DefaultOverrides holds transformer settings implied by an alias alone.
func DefaultOverrides() map[string]map[string]any {
	return map[string]map[string]any{
		"sass": {"indentedSyntax": true},
	}
}

// Table is a flat, overwritable alias dictionary. Later registrations shadow
// earlier ones, so host configuration can replace the built-in defaults.
// Safe for concurrent use.
type Table struct {
	mu        sync.RWMutex
	aliases   map[string]string
	overrides map[string]map[string]any
}

// NewTable returns a table seeded with DefaultAliases and DefaultOverrides.
func NewTable() *Table {
	t := &Table{
		aliases:   make(map[string]string),
		overrides: make(map[string]map[string]any),
	}
	t.Register(DefaultAliases()...)
	for alias, cfg := range DefaultOverrides() {
		t.SetOverrides(alias, cfg)
	}
	return t
}

// Register adds or overwrites alias entries. Canonical names are not validated.
func (t *Table) Register(entries ...Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.aliases[e.Alias] = e.Lang
	}
}

// Lookup returns the canonical language for token.
func (t *Table) Lookup(token string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	lang, ok := t.aliases[token]
	return lang, ok
}

// Entries returns the registered aliases sorted by alias.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.aliases))
	for alias, lang := range t.aliases {
		out = append(out, Entry{Alias: alias, Lang: lang})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// SetOverrides replaces the transformer settings applied whenever a block
// uses alias. A nil or empty cfg removes them.
func (t *Table) SetOverrides(alias string, cfg map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(cfg) == 0 {
		delete(t.overrides, alias)
		return
	}
	t.overrides[alias] = cloneConfig(cfg)
}

// Overrides returns a copy of the settings registered for alias, or nil.
func (t *Table) Overrides(alias string) map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cfg, ok := t.overrides[alias]
	if !ok {
		return nil
	}
	return cloneConfig(cfg)
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := &Table{
		aliases:   make(map[string]string, len(t.aliases)),
		overrides: make(map[string]map[string]any, len(t.overrides)),
	}
	for alias, lang := range t.aliases {
		out.aliases[alias] = lang
	}
	for alias, cfg := range t.overrides {
		out.overrides[alias] = cloneConfig(cfg)
	}
	return out
}

func cloneConfig(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
