package builtins

import (
	"testing"

	"monogen/internal/symbols"
)

func TestInstallIsIdempotent(t *testing.T) {
	table := symbols.NewTable(symbols.Hints{}, nil)
	defer Release(table)
	first := Install(table)
	second := Install(table)
	if first != second {
		t.Fatalf("Install returned different caches")
	}
	if For(table) != first {
		t.Fatalf("For did not return installed cache")
	}
	id, ok := first.Lookup(Integer)
	if !ok || table.Name(id) != Integer {
		t.Fatalf("Integer missing from cache")
	}
	if !first.IsTop(mustLookup(t, first, Any)) {
		t.Fatalf("Any is not the top type")
	}
}

func TestIntegerPromotesToFloat(t *testing.T) {
	table := symbols.NewTable(symbols.Hints{}, nil)
	defer Release(table)
	c := Install(table)
	integer := mustLookup(t, c, Integer)
	ops := table.Lookup(table.Symbols.Get(integer).Members, PromoteOperator)
	if len(ops) != 1 {
		t.Fatalf("expected one promotion operator, got %d", len(ops))
	}
	if ret := table.Symbols.Get(ops[0]).Returns.Sym; ret != mustLookup(t, c, Float) {
		t.Fatalf("promotion returns %s", table.Name(ret))
	}
}

func TestResolveFallsBackToScopeWalk(t *testing.T) {
	table := symbols.NewTable(symbols.Hints{}, nil)
	defer Release(table)
	c := Install(table)
	app := table.ModuleRoot("app")
	viaWalk, ok := Resolve(nil, table, app, String)
	if !ok || viaWalk != mustLookup(t, c, String) {
		t.Fatalf("scope walk fallback failed")
	}
}

func mustLookup(t *testing.T, c *Cache, name string) symbols.SymbolID {
	t.Helper()
	id, ok := c.Lookup(name)
	if !ok {
		t.Fatalf("builtin %s missing", name)
	}
	return id
}
