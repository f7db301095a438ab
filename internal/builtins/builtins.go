// Package builtins installs the predefined types every module can see and
// caches their IDs for the operator factory and the overload cost model.
package builtins

import (
	"sync"

	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Names of the predefined types.
const (
	Any       = "Any"
	Void      = "Void"
	Boolean   = "Boolean"
	Integer   = "Integer"
	Float     = "Float"
	String    = "String"
	Character = "Character"
	Date      = "Date"
	JSON      = "JSON"
	Bits      = "Bits"
)

// PromoteOperator is the implicit coercion operator consulted by the cost model.
const PromoteOperator = "#^"

type entry struct {
	name    string
	promote string // target of #^, if any
}

func preludeEntries() []entry {
	return []entry{
		{name: Any},
		{name: Void},
		{name: Boolean},
		{name: Integer, promote: Float},
		{name: Float},
		{name: Character, promote: String},
		{name: String},
		{name: Date},
		{name: JSON},
		{name: Bits},
	}
}

// Cache holds the IDs of built-in types for one table.
type Cache struct {
	byName map[string]symbols.SymbolID
}

var (
	cacheMu sync.Mutex
	caches  = map[*symbols.Table]*Cache{}
)

// Install defines the built-in module in table and returns its cache.
// Calling it twice for the same table returns the first cache.
func Install(table *symbols.Table) *Cache {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if c, ok := caches[table]; ok {
		return c
	}

	scope := table.ModuleRoot(symbols.BuiltinModule)
	c := &Cache{byName: make(map[string]symbols.SymbolID)}
	entries := preludeEntries()
	for _, e := range entries {
		id := table.NewAggregate(scope, e.name, symbols.SymbolType, symbols.GenusBuiltin, source.NoSpan)
		table.Symbols.Get(id).Flags |= symbols.FlagBuiltin | symbols.FlagOpen
		c.byName[e.name] = id
	}
	for _, e := range entries {
		if e.promote == "" {
			continue
		}
		owner := table.Symbols.Get(c.byName[e.name])
		op := table.NewFunction(owner.Members, PromoteOperator, symbols.SymbolMethod, source.NoSpan)
		sym := table.Symbols.Get(op)
		sym.Flags |= symbols.FlagPure | symbols.FlagOperator | symbols.FlagBuiltin
		sym.Returns = symbols.Ref(c.byName[e.promote])
	}
	caches[table] = c
	return c
}

// For returns the cache previously installed for table, or nil.
func For(table *symbols.Table) *Cache {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	return caches[table]
}

// Release drops the cache entry of table.
func Release(table *symbols.Table) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	delete(caches, table)
}

// Lookup returns the built-in type by name.
func (c *Cache) Lookup(name string) (symbols.SymbolID, bool) {
	if c == nil {
		return symbols.NoSymbolID, false
	}
	id, ok := c.byName[name]
	return id, ok
}

// IsTop reports whether id is the universal top type.
func (c *Cache) IsTop(id symbols.SymbolID) bool {
	top, ok := c.Lookup(Any)
	return ok && id == top
}

// Resolve looks name up in the cache first and falls back to a scope walk
// from scope when no cache is available.
func Resolve(c *Cache, table *symbols.Table, scope symbols.ScopeID, name string) (symbols.SymbolID, bool) {
	if id, ok := c.Lookup(name); ok {
		return id, true
	}
	return table.ResolveType(scope, name)
}
