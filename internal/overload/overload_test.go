package overload

import (
	"testing"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

type fixture struct {
	table *symbols.Table
	types *builtins.Cache
	app   symbols.ScopeID
	next  uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewTable(symbols.Hints{}, nil)
	t.Cleanup(func() { builtins.Release(table) })
	return &fixture{table: table, types: builtins.Install(table), app: table.ModuleRoot("app")}
}

func (fx *fixture) span() source.Span {
	fx.next += 10
	return source.Span{Start: fx.next, End: fx.next + 5}
}

func (fx *fixture) class(name string, genus symbols.Genus, super symbols.SymbolID, traits ...symbols.SymbolID) symbols.SymbolID {
	id := fx.table.NewAggregate(fx.app, name, symbols.SymbolType, genus, fx.span())
	sym := fx.table.Symbols.Get(id)
	if super.IsValid() {
		sym.Super = symbols.Ref(super)
	}
	for _, tr := range traits {
		sym.Traits = append(sym.Traits, symbols.Ref(tr))
	}
	return id
}

func (fx *fixture) method(owner symbols.SymbolID, name string, params ...symbols.SymbolID) symbols.SymbolID {
	id := fx.table.NewFunction(fx.table.Symbols.Get(owner).Members, name, symbols.SymbolMethod, fx.span())
	m := fx.table.Symbols.Get(id)
	for _, p := range params {
		m.Params = append(m.Params, fx.table.NewParam(id, "p", symbols.Ref(p), fx.span()))
	}
	return id
}

func (fx *fixture) builtin(name string) symbols.SymbolID {
	id, _ := fx.types.Lookup(name)
	return id
}

func TestCostModel(t *testing.T) {
	fx := newFixture(t)
	s := NewScorer(fx.table, fx.types)
	printable := fx.class("Printable", symbols.GenusTrait, symbols.NoSymbolID)
	base := fx.class("Base", symbols.GenusClass, symbols.NoSymbolID)
	mid := fx.class("Mid", symbols.GenusClass, base)
	leaf := fx.class("Leaf", symbols.GenusClass, mid, printable)
	other := fx.class("Other", symbols.GenusClass, symbols.NoSymbolID)

	cases := []struct {
		name     string
		from, to symbols.SymbolID
		want     float64
	}{
		{"exact", leaf, leaf, ExactCost},
		{"one super", mid, base, 0.05},
		{"two supers", leaf, base, 0.10},
		{"trait", leaf, printable, TraitCost},
		{"coercion", fx.builtin(builtins.Integer), fx.builtin(builtins.Float), CoercionCost},
		{"top", other, fx.builtin(builtins.Any), TopCost},
		{"unrelated", other, base, NoMatch},
		{"downcast", base, leaf, NoMatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Cost(tc.from, tc.to); !Equal(got, tc.want) {
				t.Fatalf("Cost = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParameterizedCostSumsArguments(t *testing.T) {
	fx := newFixture(t)
	s := NewScorer(fx.table, fx.types)
	base := fx.class("Base", symbols.GenusClass, symbols.NoSymbolID)
	child := fx.class("Child", symbols.GenusClass, base)
	list := fx.table.NewAggregate(fx.app, "List", symbols.SymbolTemplateType, symbols.GenusClass, fx.span())
	fx.table.Symbols.Get(list).Generic = &symbols.Generic{TypeParams: []symbols.SymbolID{
		fx.table.NewAggregate(fx.table.Symbols.Get(list).Members, "T", symbols.SymbolType, symbols.GenusConceptual, fx.span()),
	}}
	inst := func(name string, arg symbols.SymbolID) symbols.SymbolID {
		id := fx.table.NewAggregate(fx.app, name, symbols.SymbolType, symbols.GenusClass, fx.span())
		fx.table.Symbols.Get(id).Generic = &symbols.Generic{Origin: list, TypeArgs: []symbols.SymbolID{arg}}
		return id
	}
	ofChild, ofBase := inst("_List_child", child), inst("_List_base", base)
	if got := s.Cost(ofChild, ofBase); !Equal(got, SuperCost) {
		t.Fatalf("List of Child -> List of Base = %v", got)
	}
	if got := s.Cost(ofBase, ofChild); got != NoMatch {
		t.Fatalf("List of Base -> List of Child = %v", got)
	}
}

func TestTwoTraitsAreAmbiguous(t *testing.T) {
	fx := newFixture(t)
	walker := fx.class("Walker", symbols.GenusTrait, symbols.NoSymbolID)
	swimmer := fx.class("Swimmer", symbols.GenusTrait, symbols.NoSymbolID)
	duck := fx.class("Duck", symbols.GenusClass, symbols.NoSymbolID, walker, swimmer)
	pond := fx.class("Pond", symbols.GenusClass, symbols.NoSymbolID)
	fx.method(pond, "accept", walker)
	fx.method(pond, "accept", swimmer)

	s := NewScorer(fx.table, fx.types)
	res := s.Search(pond, "accept", []symbols.SymbolID{duck})
	if !res.Ambiguous() || len(res.AmbiguousCandidates()) != 2 {
		t.Fatalf("expected two tied candidates, got %+v", res.Candidates)
	}

	bag := diag.NewBag(0)
	r := NewResolver(s, diag.BagReporter{Bag: bag})
	if _, ok := r.ResolveCall(pond, "accept", []symbols.SymbolID{duck}, fx.span()); ok {
		t.Fatalf("ambiguous call must not resolve")
	}
	if bag.Count(diag.SemaMethodAmbiguous) != 1 {
		t.Fatalf("expected METHOD_AMBIGUOUS, got %v", bag.Items())
	}
	if notes := bag.Items()[0].Notes; len(notes) != 2 {
		t.Fatalf("expected a note per candidate, got %d", len(notes))
	}
}

func TestExactBeatsTrait(t *testing.T) {
	fx := newFixture(t)
	walker := fx.class("Walker", symbols.GenusTrait, symbols.NoSymbolID)
	duck := fx.class("Duck", symbols.GenusClass, symbols.NoSymbolID, walker)
	pond := fx.class("Pond", symbols.GenusClass, symbols.NoSymbolID)
	exact := fx.method(pond, "accept", duck)
	fx.method(pond, "accept", walker)

	bag := diag.NewBag(0)
	r := NewResolver(NewScorer(fx.table, fx.types), diag.BagReporter{Bag: bag})
	got, ok := r.ResolveCall(pond, "accept", []symbols.SymbolID{duck}, fx.span())
	if !ok || got != exact {
		t.Fatalf("expected exact match, got %v ok=%v", got, ok)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", bag.Items())
	}
}

func TestInheritedMethodsAndOverride(t *testing.T) {
	fx := newFixture(t)
	integer := fx.builtin(builtins.Integer)
	base := fx.class("Base", symbols.GenusClass, symbols.NoSymbolID)
	fx.method(base, "size", integer)
	derived := fx.class("Derived", symbols.GenusClass, base)
	own := fx.method(derived, "size", integer)

	res := NewScorer(fx.table, fx.types).Search(derived, "size", []symbols.SymbolID{integer})
	if len(res.Candidates) != 1 || res.Candidates[0].Method != own {
		t.Fatalf("override must hide the inherited method: %+v", res.Candidates)
	}

	bag := diag.NewBag(0)
	r := NewResolver(NewScorer(fx.table, fx.types), diag.BagReporter{Bag: bag})
	if _, ok := r.ResolveCall(derived, "missing", nil, fx.span()); ok || bag.Count(diag.SemaMethodNotResolved) != 1 {
		t.Fatalf("expected METHOD_NOT_RESOLVED")
	}
}

func TestDuplicateChecker(t *testing.T) {
	fx := newFixture(t)
	integer, str := fx.builtin(builtins.Integer), fx.builtin(builtins.String)
	clash := fx.class("Clash", symbols.GenusClass, symbols.NoSymbolID)
	a := fx.method(clash, "f", integer)
	b := fx.method(clash, "f", integer)
	fx.method(clash, "f", str)
	fx.method(clash, "g", integer)

	c := NewChecker(fx.table)
	dups := c.Check(clash)
	if len(dups) != 1 || len(dups[0].Methods) != 2 || dups[0].Methods[0] != a || dups[0].Methods[1] != b {
		t.Fatalf("unexpected duplicates %+v", dups)
	}

	bag := diag.NewBag(0)
	site := fx.span()
	if n := c.Report(clash, site, diag.BagReporter{Bag: bag}); n != 1 {
		t.Fatalf("Report returned %d", n)
	}
	d := bag.Items()[0]
	if d.Code != diag.SemaMethodDuplicated || d.Primary != site || len(d.Notes) != 2 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}
