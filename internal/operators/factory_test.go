package operators

import (
	"testing"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

type fixture struct {
	table   *symbols.Table
	types   *builtins.Cache
	factory *Factory
	app     symbols.ScopeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewTable(symbols.Hints{}, nil)
	t.Cleanup(func() { builtins.Release(table) })
	types := builtins.Install(table)
	return &fixture{
		table:   table,
		types:   types,
		factory: NewFactory(table, types),
		app:     table.ModuleRoot("app"),
	}
}

func (fx *fixture) builtin(t *testing.T, name string) symbols.SymbolID {
	t.Helper()
	id, ok := fx.types.Lookup(name)
	if !ok {
		t.Fatalf("missing builtin %s", name)
	}
	return id
}

func TestDefaultOperatorShape(t *testing.T) {
	fx := newFixture(t)
	point := fx.table.NewAggregate(fx.app, "Point", symbols.SymbolType, symbols.GenusRecord, source.Span{})

	lt, ok := fx.factory.DefaultOperator(point, "<")
	if !ok {
		t.Fatalf("< must have a default")
	}
	sym := fx.table.Symbols.Get(lt)
	if !sym.Has(symbols.FlagPure|symbols.FlagOperator|symbols.FlagSynthetic|symbols.FlagDefaulted) || sym.Access != symbols.AccessPublic {
		t.Fatalf("unexpected flags %v access %v", sym.Flags.Strings(), sym.Access)
	}
	if got := fx.table.ParamTypes(lt); len(got) != 1 || got[0] != point {
		t.Fatalf("< must take one Point, got %v", got)
	}
	if sym.Returns.Sym != fx.builtin(t, builtins.Boolean) {
		t.Fatalf("< must return Boolean")
	}
	if len(fx.table.Members(point)) != 0 {
		t.Fatalf("DefaultOperator must not insert into the aggregate")
	}

	hash, _ := fx.factory.DefaultOperator(point, "#?")
	if len(fx.table.Symbols.Get(hash).Params) != 0 || fx.table.Symbols.Get(hash).Returns.Sym != fx.builtin(t, builtins.Integer) {
		t.Fatalf("#? must be a simple Integer operator")
	}
	if _, ok := fx.factory.DefaultOperator(point, "+"); ok {
		t.Fatalf("+ has no default form")
	}
}

func TestAllOperatorSets(t *testing.T) {
	fx := newFixture(t)
	point := fx.table.NewAggregate(fx.app, "Point", symbols.SymbolType, symbols.GenusRecord, source.Span{})
	defaults := fx.factory.AllDefaultOperators(point)
	if len(defaults) != 11 {
		t.Fatalf("expected 11 default operators, got %d", len(defaults))
	}
	all := fx.factory.AllSyntheticOperators(point)
	if len(all) != len(defaultCatalog)+len(extraCatalog) {
		t.Fatalf("expected %d synthetic operators, got %d", len(defaultCatalog)+len(extraCatalog), len(all))
	}
	byName := map[string]*symbols.Symbol{}
	for _, id := range all {
		byName[fx.table.Name(id)] = fx.table.Symbols.Get(id)
	}
	if byName["+="].Has(symbols.FlagPure) {
		t.Fatalf("mutating operators must not be pure")
	}
	if byName["+"].Returns.Sym != point || len(byName["+"].Params) != 1 {
		t.Fatalf("+ must take and return the owner type")
	}
	if byName["close"].Returns.Sym != fx.builtin(t, builtins.Void) {
		t.Fatalf("close must return Void")
	}
	if _, ok := byName["#^"]; ok {
		t.Fatalf("promotion must never be synthesized")
	}
}

func TestFactoryWithoutCacheUsesScopeWalk(t *testing.T) {
	fx := newFixture(t)
	factory := NewFactory(fx.table, nil)
	point := fx.table.NewAggregate(fx.app, "Point", symbols.SymbolType, symbols.GenusRecord, source.Span{})
	id, ok := factory.DefaultOperator(point, "$")
	if !ok || fx.table.Symbols.Get(id).Returns.Sym != fx.builtin(t, builtins.String) {
		t.Fatalf("scope walk did not find String")
	}
}

func TestNewConceptualCarriesOperators(t *testing.T) {
	fx := newFixture(t)
	list := fx.table.NewAggregate(fx.app, "List", symbols.SymbolTemplateType, symbols.GenusClass, source.Span{})
	ph := fx.factory.NewConceptual(fx.table.Symbols.Get(list).Members, "T", source.Span{})
	if !fx.table.IsPlaceholder(ph) {
		t.Fatalf("NewConceptual did not build a placeholder")
	}
	members := fx.table.Symbols.Get(ph).Members
	if len(fx.table.Lookup(members, "T")) != 1 {
		t.Fatalf("placeholder constructor missing")
	}
	if len(fx.table.Lookup(members, "<~>")) != 1 || len(fx.table.Lookup(members, "==")) != 1 {
		t.Fatalf("placeholder operators missing")
	}
}

func TestConstrainClonesConstructors(t *testing.T) {
	fx := newFixture(t)
	number := fx.table.NewAggregate(fx.app, "Number", symbols.SymbolType, symbols.GenusClass, source.Span{})
	fx.factory.addConstructor(number, []symbols.TypeRef{symbols.Ref(fx.builtin(t, builtins.Integer))}, source.Span{})
	box := fx.table.NewAggregate(fx.app, "Box", symbols.SymbolTemplateType, symbols.GenusClass, source.Span{})
	ph := fx.factory.NewConceptual(fx.table.Symbols.Get(box).Members, "T", source.Span{})

	if err := fx.factory.Constrain(ph, number); err != nil {
		t.Fatalf("Constrain: %v", err)
	}
	if fx.table.Symbols.Get(ph).Super.Sym != number {
		t.Fatalf("placeholder must extend the constraint")
	}
	ctors := fx.table.Lookup(fx.table.Symbols.Get(ph).Members, "T")
	if len(ctors) != 2 {
		t.Fatalf("expected default plus cloned constructor, got %d", len(ctors))
	}
	if err := fx.factory.Constrain(number, ph); err == nil {
		t.Fatalf("constraining a non-placeholder must fail")
	}
}

func TestAddMissingDefaults(t *testing.T) {
	fx := newFixture(t)
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	point := fx.table.NewAggregate(fx.app, "Point", symbols.SymbolType, symbols.GenusRecord, source.Span{})
	members := fx.table.Symbols.Get(point).Members
	own := fx.table.NewFunction(members, "==", symbols.SymbolMethod, source.Span{})
	fx.table.Symbols.Get(own).Flags |= symbols.FlagOperator

	added := fx.factory.AddMissingDefaults(point, DefaultRequest{}, r)
	if len(added) != 10 {
		t.Fatalf("expected 10 added defaults, got %d", len(added))
	}
	if n := len(fx.table.Lookup(members, "==")); n != 1 {
		t.Fatalf("declared == must not be replaced, found %d", n)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestCheckDefaultDiagnostics(t *testing.T) {
	fx := newFixture(t)
	trait := fx.table.NewAggregate(fx.app, "Shape", symbols.SymbolType, symbols.GenusTrait, source.Span{})
	point := fx.table.NewAggregate(fx.app, "Point", symbols.SymbolType, symbols.GenusRecord, source.Span{})

	cases := []struct {
		name string
		agg  symbols.SymbolID
		req  DefaultRequest
		want diag.Code
	}{
		{"trait", trait, DefaultRequest{Name: "<"}, diag.SemaDefaultAndTrait},
		{"signature", point, DefaultRequest{Name: "<", HasSignature: true}, diag.SemaDefaultWithSignature},
		{"unsupported", point, DefaultRequest{Name: "+"}, diag.SemaOperatorDefaultNotSupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := diag.NewBag(0)
			if fx.factory.AddMissingDefaults(tc.agg, tc.req, diag.BagReporter{Bag: bag}) != nil {
				t.Fatalf("nothing should be added")
			}
			if bag.Count(tc.want) != 1 {
				t.Fatalf("expected %s, got %v", tc.want.ID(), bag.Items())
			}
		})
	}
}
