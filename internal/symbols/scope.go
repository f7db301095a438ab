package symbols

import (
	"slices"
	"sync"

	"monogen/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule
	ScopeType
	ScopeFunction
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeType:
		return "type"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent link. Instantiation shells add
// members to their scope while other goroutines may be resolving names, so the
// index is guarded.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Parent ScopeID
	Owner  SymbolID        // aggregate or function owning the scope
	Name   source.StringID // module name for module scopes

	mu        sync.RWMutex
	nameIndex map[source.StringID][]SymbolID
	symbols   []SymbolID
}

// Insert adds id under name, keeping declaration order.
func (s *Scope) Insert(name source.StringID, id SymbolID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nameIndex[name] = append(s.nameIndex[name], id)
	s.symbols = append(s.symbols, id)
}

// Lookup returns every symbol declared under name in this scope only.
func (s *Scope) Lookup(name source.StringID) []SymbolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.nameIndex[name])
}

// Symbols returns the scope's symbols in declaration order.
func (s *Scope) Symbols() []SymbolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symbols)
}

func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.symbols)
}
