package mono

import (
	"slices"
	"sort"
	"sync"

	"monogen/internal/source"
	"monogen/internal/symbols"
)

// InstantiationKind identifies the kind of entity being instantiated.
type InstantiationKind uint8

const (
	// InstType represents a type instantiation.
	InstType InstantiationKind = iota
	// InstFn represents a function instantiation.
	InstFn
)

func (k InstantiationKind) String() string {
	if k == InstFn {
		return "fn"
	}
	return "type"
}

// UseSite records a location where an instantiation was requested.
type UseSite struct {
	Span   source.Span
	Caller symbols.SymbolID
	Note   string
}

// InstEntry captures one canonical instantiation and everywhere it was requested.
type InstEntry struct {
	Kind     InstantiationKind
	Name     string
	Generic  symbols.SymbolID // the declaration
	TypeArgs []symbols.SymbolID
	Shell    symbols.SymbolID
	UseSites []UseSite
}

// InstantiationMap tracks every instantiation request across a unit.
type InstantiationMap struct {
	mu      sync.Mutex
	entries map[string]*InstEntry
}

var _ Recorder = (*InstantiationMap)(nil)

// NewInstantiationMap creates a new empty InstantiationMap.
func NewInstantiationMap() *InstantiationMap {
	return &InstantiationMap{entries: make(map[string]*InstEntry)}
}

// RecordInstantiation registers an instantiation at a specific site.
// Identical use sites are stored once.
func (m *InstantiationMap) RecordInstantiation(kind InstantiationKind, name string, generic symbols.SymbolID, typeArgs []symbols.SymbolID, shell symbols.SymbolID, site UseSite) {
	if m == nil || !generic.IsValid() || name == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.entries[name]
	if entry == nil {
		entry = &InstEntry{
			Kind:     kind,
			Name:     name,
			Generic:  generic,
			TypeArgs: slices.Clone(typeArgs),
			Shell:    shell,
		}
		m.entries[name] = entry
	}
	if site.Span == (source.Span{}) && site.Note == "" {
		return
	}
	if slices.Contains(entry.UseSites, site) {
		return
	}
	entry.UseSites = append(entry.UseSites, site)
}

// Lookup returns a copy of the entry for a canonical name.
func (m *InstantiationMap) Lookup(name string) (InstEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return InstEntry{}, false
	}
	cp := *e
	cp.UseSites = slices.Clone(e.UseSites)
	return cp, true
}

// Entries returns copies of all entries ordered by shell ID, i.e. creation order.
func (m *InstantiationMap) Entries() []InstEntry {
	m.mu.Lock()
	out := make([]InstEntry, 0, len(m.entries))
	for _, e := range m.entries {
		cp := *e
		cp.UseSites = slices.Clone(e.UseSites)
		out = append(out, cp)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Shell < out[j].Shell })
	return out
}

func (m *InstantiationMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
