package symbols

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"monogen/internal/source"
)

// ScopeID identifies a scope; zero is NoScopeID.
type ScopeID uint32

// SymbolID identifies a symbol; zero is NoSymbolID.
type SymbolID uint32

const (
	NoScopeID  ScopeID  = 0
	NoSymbolID SymbolID = 0
)

func (id ScopeID) IsValid() bool  { return id != NoScopeID }
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// arena hands out dense ids starting at 1. Entries are held by pointer so a
// *T stays valid while other goroutines append.
type arena[ID ~uint32, T any] struct {
	what string
	mu   sync.RWMutex
	data []*T // data[0] is the nil sentinel
}

func (a *arena[ID, T]) setup(what string, capacity uint32) {
	a.what = what
	a.data = make([]*T, 1, capacity+1)
}

func (a *arena[ID, T]) add(v *T, stamp func(ID)) ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", a.what, err))
	}
	id := ID(n)
	stamp(id)
	a.data = append(a.data, v)
	return id
}

// Get returns nil for the zero id and for ids never handed out.
func (a *arena[ID, T]) Get(id ID) *T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id == 0 || uint64(id) >= uint64(len(a.data)) {
		return nil
	}
	return a.data[id]
}

// Len excludes the sentinel.
func (a *arena[ID, T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data) - 1
}

// IDs lists every id allocated so far, in allocation order.
func (a *arena[ID, T]) IDs() []ID {
	n := a.Len()
	out := make([]ID, n)
	for i := range out {
		out[i] = ID(i + 1) // #nosec G115 -- bounded by add
	}
	return out
}

// Scopes owns every scope of a table.
type Scopes struct {
	arena[ScopeID, Scope]
}

func NewScopes(capacity uint32) *Scopes {
	s := &Scopes{}
	s.setup("scopes", max(capacity, 32))
	return s
}

// New allocates an empty scope.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner SymbolID, name source.StringID) ScopeID {
	sc := &Scope{
		Kind:      kind,
		Parent:    parent,
		Owner:     owner,
		Name:      name,
		nameIndex: make(map[source.StringID][]SymbolID),
	}
	return s.add(sc, func(id ScopeID) { sc.ID = id })
}

// Symbols owns every declared and synthesized symbol of a table.
type Symbols struct {
	arena[SymbolID, Symbol]
}

func NewSymbols(capacity uint32) *Symbols {
	s := &Symbols{}
	s.setup("symbols", max(capacity, 64))
	return s
}

// New stores sym and stamps its ID.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols: New with a nil symbol")
	}
	return s.add(sym, func(id SymbolID) { sym.ID = id })
}
