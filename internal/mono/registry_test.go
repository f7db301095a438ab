package mono

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/operators"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

type fixture struct {
	table   *symbols.Table
	types   *builtins.Cache
	factory *operators.Factory
	app     symbols.ScopeID
	bag     *diag.Bag
	insts   *InstantiationMap
	reg     *Registry
	next    uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := symbols.NewTable(symbols.Hints{}, nil)
	t.Cleanup(func() { builtins.Release(table) })
	types := builtins.Install(table)
	bag := diag.NewBag(0)
	insts := NewInstantiationMap()
	return &fixture{
		table:   table,
		types:   types,
		factory: operators.NewFactory(table, types),
		app:     table.ModuleRoot("app"),
		bag:     bag,
		insts:   insts,
		reg: NewRegistry(table, Options{
			Reporter: diag.NewLockedReporter(diag.BagReporter{Bag: bag}),
			Recorder: insts,
		}),
	}
}

func (fx *fixture) span() source.Span {
	fx.next += 10
	return source.Span{File: 1, Start: fx.next, End: fx.next + 5}
}

func (fx *fixture) builtin(t *testing.T, name string) symbols.SymbolID {
	t.Helper()
	id, ok := fx.types.Lookup(name)
	if !ok {
		t.Fatalf("builtin %s not installed", name)
	}
	return id
}

func (fx *fixture) generic(name string, params ...string) (symbols.SymbolID, []symbols.SymbolID) {
	id := fx.table.NewAggregate(fx.app, name, symbols.SymbolTemplateType, symbols.GenusClass, fx.span())
	sym := fx.table.Symbols.Get(id)
	sym.Generic = &symbols.Generic{}
	for _, p := range params {
		ph := fx.factory.NewConceptual(sym.Members, p, fx.span())
		sym.Generic.TypeParams = append(sym.Generic.TypeParams, ph)
	}
	return id, sym.Generic.TypeParams
}

func (fx *fixture) field(owner symbols.SymbolID, name string, typ symbols.TypeRef) symbols.SymbolID {
	return fx.table.Define(fx.table.Symbols.Get(owner).Members, &symbols.Symbol{
		Name: fx.table.Strings.Intern(name),
		Kind: symbols.SymbolField,
		Type: typ,
		Span: fx.span(),
	})
}

func (fx *fixture) method(owner symbols.SymbolID, name string, returns symbols.TypeRef, params ...symbols.TypeRef) symbols.SymbolID {
	id := fx.table.NewFunction(fx.table.Symbols.Get(owner).Members, name, symbols.SymbolMethod, fx.span())
	m := fx.table.Symbols.Get(id)
	m.Returns = returns
	for _, p := range params {
		m.Params = append(m.Params, fx.table.NewParam(id, "p", p, fx.span()))
	}
	return id
}

func ref(sym symbols.SymbolID, args ...symbols.SymbolID) symbols.TypeRef {
	out := symbols.TypeRef{Sym: sym}
	for _, a := range args {
		out.Args = append(out.Args, symbols.Ref(a))
	}
	return out
}

func (fx *fixture) methodsNamed(agg symbols.SymbolID, name string) []symbols.SymbolID {
	var out []symbols.SymbolID
	for _, m := range fx.table.Methods(agg) {
		if fx.table.Name(m) == name {
			out = append(out, m)
		}
	}
	return out
}

func TestResolveOrDefineMemoizesByName(t *testing.T) {
	fx := newFixture(t)
	list, params := fx.generic("List", "T")
	fx.method(list, "add", symbols.TypeRef{}, symbols.Ref(params[0]))
	integer := fx.builtin(t, builtins.Integer)

	first := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, fx.span())
	second := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, fx.span())

	if !first.Ok() || !first.Created {
		t.Fatalf("first request should create a shell: %+v", first)
	}
	if second.Sym != first.Sym || second.Created {
		t.Fatalf("second request should hit: first=%+v second=%+v", first, second)
	}
	if second.State != StatePopulated {
		t.Fatalf("expected populated, got %s", second.State)
	}
	if fx.reg.Len() != 1 {
		t.Fatalf("expected one registry entry, got %d", fx.reg.Len())
	}
	if !strings.HasPrefix(first.Name, "_List_") {
		t.Fatalf("unexpected canonical name %q", first.Name)
	}
	entry, ok := fx.insts.Lookup(first.Name)
	if !ok || len(entry.UseSites) != 2 {
		t.Fatalf("expected two recorded use sites, got %+v", entry)
	}
}

func TestConceptualArgumentsReturnDeclaration(t *testing.T) {
	fx := newFixture(t)
	list, _ := fx.generic("List", "T")
	_, outer := fx.generic("Outer", "U")

	res := fx.reg.ResolveOrDefine(list, outer, fx.span())
	if res.Sym != list || res.Created {
		t.Fatalf("expected the declaration itself, got %+v", res)
	}
	if fx.reg.Len() != 0 {
		t.Fatalf("no shell should be registered, got %d", fx.reg.Len())
	}
}

func TestSubstitutionRewritesMembers(t *testing.T) {
	fx := newFixture(t)
	list, params := fx.generic("List", "T")
	item := params[0]
	fx.field(list, "head", symbols.Ref(item))
	fx.method(list, "get", symbols.Ref(item), symbols.Ref(fx.builtin(t, builtins.Integer)))
	fx.factory.AddSyntheticConstructors(list)
	str := fx.builtin(t, builtins.String)

	res := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{str}, fx.span())
	if !res.Ok() || res.State != StatePopulated {
		t.Fatalf("unexpected result %+v", res)
	}
	shell := fx.table.Symbols.Get(res.Sym)
	if shell.Kind != symbols.SymbolType || !shell.Has(symbols.FlagSubstituted) {
		t.Fatalf("shell kind %s flags %v", shell.Kind, shell.Flags.Strings())
	}
	if fx.table.DisplayName(res.Sym) != "List of String" {
		t.Fatalf("display name %q", fx.table.DisplayName(res.Sym))
	}

	var head *symbols.Symbol
	for _, m := range fx.table.Members(res.Sym) {
		if s := fx.table.Symbols.Get(m); s.Kind == symbols.SymbolField {
			head = s
		}
		if fx.table.IsPlaceholder(m) {
			t.Fatalf("placeholder %s cloned into the shell", fx.table.Name(m))
		}
	}
	if head == nil || head.Type.Sym != str {
		t.Fatalf("field head not substituted: %+v", head)
	}

	get := fx.methodsNamed(res.Sym, "get")
	if len(get) != 1 || fx.table.Symbols.Get(get[0]).Returns.Sym != str {
		t.Fatalf("get() should return String")
	}

	ctors := fx.methodsNamed(res.Sym, res.Name)
	if len(ctors) != 2 {
		t.Fatalf("expected 2 renamed constructors, got %d", len(ctors))
	}
	for _, c := range ctors {
		cs := fx.table.Symbols.Get(c)
		if !cs.Has(symbols.FlagConstructor) || cs.Returns.Sym != res.Sym {
			t.Fatalf("constructor %s not rewritten to the shell", fx.table.Name(c))
		}
	}
	if len(fx.methodsNamed(res.Sym, "List")) != 0 {
		t.Fatalf("constructors kept the declaration name")
	}
	if err := Verify(fx.table, res.Sym); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestNestedArgumentsAndDependents(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	fx.field(list, "head", symbols.Ref(lp[0]))
	iter, ip := fx.generic("Iterator", "T")
	fx.field(iter, "current", symbols.Ref(ip[0]))
	dict, dp := fx.generic("Dict", "K", "V")
	fx.table.Symbols.Get(dict).Generic.Dependents = []symbols.Dependent{
		{Ref: ref(iter, dp[0]), Span: fx.span()},
	}
	integer := fx.builtin(t, builtins.Integer)
	date := fx.builtin(t, builtins.Date)

	site := UseSite{Span: fx.span()}
	out, ok := fx.reg.ResolveRef(symbols.TypeRef{
		Sym:  dict,
		Args: []symbols.TypeRef{symbols.Ref(integer), ref(list, date)},
	}, site)
	if !ok {
		t.Fatalf("ResolveRef failed: %v", fx.bag.Items())
	}
	if got := fx.table.DisplayName(out.Sym); got != "Dict of (Integer, List of Date)" {
		t.Fatalf("display name %q", got)
	}

	listDate := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{date}, fx.span())
	if listDate.Created || out.Args[1].Sym != listDate.Sym {
		t.Fatalf("List of Date should already exist as a side effect")
	}
	iterInt := fx.reg.ResolveOrDefine(iter, []symbols.SymbolID{integer}, fx.span())
	if iterInt.Created {
		t.Fatalf("Iterator of Integer should be instantiated as a dependent")
	}
	entry, ok := fx.insts.Lookup(iterInt.Name)
	if !ok || len(entry.UseSites) == 0 || entry.UseSites[0].Caller != out.Sym {
		t.Fatalf("dependent should record its requiring shell: %+v", entry)
	}
	if fx.reg.Len() != 3 {
		t.Fatalf("expected 3 shells, got %d", fx.reg.Len())
	}
}

func TestSelfReferenceResolvesToShell(t *testing.T) {
	fx := newFixture(t)
	node, np := fx.generic("Node", "T")
	fx.field(node, "value", symbols.Ref(np[0]))
	fx.field(node, "next", ref(node, np[0]))
	fx.method(node, "self", symbols.Ref(node))
	integer := fx.builtin(t, builtins.Integer)

	res := fx.reg.ResolveOrDefine(node, []symbols.SymbolID{integer}, fx.span())
	if res.State != StatePopulated {
		t.Fatalf("state %s", res.State)
	}
	for _, m := range fx.table.Members(res.Sym) {
		s := fx.table.Symbols.Get(m)
		if fx.table.Name(m) == "next" && s.Type.Sym != res.Sym {
			t.Fatalf("next should point at the shell, got %s", fx.table.DisplayName(s.Type.Sym))
		}
	}
	self := fx.methodsNamed(res.Sym, "self")
	if len(self) != 1 || fx.table.Symbols.Get(self[0]).Returns.Sym != res.Sym {
		t.Fatalf("bare self reference should become the shell")
	}
	if fx.reg.Len() != 1 {
		t.Fatalf("recursion created extra shells: %d", fx.reg.Len())
	}
}

func TestMutuallyRecursiveGenerics(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	iter, ip := fx.generic("Iterator", "T")
	fx.method(list, "iterator", ref(iter, lp[0]))
	fx.method(iter, "source", ref(list, ip[0]))
	integer := fx.builtin(t, builtins.Integer)

	listInt := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, fx.span())
	iterInt := fx.reg.ResolveOrDefine(iter, []symbols.SymbolID{integer}, fx.span())
	if iterInt.Created {
		t.Fatalf("Iterator of Integer should come from populating List of Integer")
	}
	if fx.reg.State(listInt.Sym) != StatePopulated || fx.reg.State(iterInt.Sym) != StatePopulated {
		t.Fatalf("both shells should be populated")
	}
	src := fx.methodsNamed(iterInt.Sym, "source")
	if len(src) != 1 || fx.table.Symbols.Get(src[0]).Returns.Sym != listInt.Sym {
		t.Fatalf("source() should return List of Integer")
	}
	if err := fx.reg.VerifyAll(); err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
}

func TestDuplicatesAppearOnlyAfterSubstitution(t *testing.T) {
	fx := newFixture(t)
	dict, dp := fx.generic("Dict", "K", "V")
	fx.method(dict, "set", symbols.TypeRef{}, symbols.Ref(dp[0]))
	fx.method(dict, "set", symbols.TypeRef{}, symbols.Ref(dp[1]))
	integer := fx.builtin(t, builtins.Integer)
	str := fx.builtin(t, builtins.String)

	fx.reg.ResolveOrDefine(dict, []symbols.SymbolID{integer, str}, fx.span())
	if n := fx.bag.Count(diag.SemaMethodDuplicated); n != 0 {
		t.Fatalf("Dict of (Integer, String) has no duplicates, got %d", n)
	}

	site := fx.span()
	fx.reg.ResolveOrDefine(dict, []symbols.SymbolID{integer, integer}, site)
	if n := fx.bag.Count(diag.SemaMethodDuplicated); n != 1 {
		t.Fatalf("expected exactly one duplicate report, got %d", n)
	}
	for _, d := range fx.bag.Items() {
		if d.Code == diag.SemaMethodDuplicated {
			if d.Primary != site {
				t.Fatalf("duplicate reported at %v, want %v", d.Primary, site)
			}
			if len(d.Notes) != 2 {
				t.Fatalf("expected a note per declaration, got %d", len(d.Notes))
			}
		}
	}
}

func TestArgumentCountMismatch(t *testing.T) {
	fx := newFixture(t)
	dict, _ := fx.generic("Dict", "K", "V")
	integer := fx.builtin(t, builtins.Integer)

	for _, args := range [][]symbols.SymbolID{{integer}, {integer, integer, integer}} {
		if res := fx.reg.ResolveOrDefine(dict, args, fx.span()); res.Ok() {
			t.Fatalf("%d args should be rejected", len(args))
		}
	}
	if n := fx.bag.Count(diag.SemaParameterCountMismatch); n != 2 {
		t.Fatalf("expected 2 count mismatches, got %d", n)
	}
	if fx.reg.Len() != 0 {
		t.Fatalf("no shell should be created")
	}
}

func TestNotATemplate(t *testing.T) {
	fx := newFixture(t)
	integer := fx.builtin(t, builtins.Integer)
	if res := fx.reg.ResolveOrDefine(integer, []symbols.SymbolID{integer}, fx.span()); res.Ok() {
		t.Fatalf("Integer is not generic")
	}
	if fx.bag.Count(diag.SemaNotATemplate) != 1 {
		t.Fatalf("expected NOT_A_TEMPLATE")
	}
}

func TestResolveRefRequiresParameterization(t *testing.T) {
	fx := newFixture(t)
	list, _ := fx.generic("List", "T")
	if _, ok := fx.reg.ResolveRef(symbols.Ref(list), UseSite{Span: fx.span()}); ok {
		t.Fatalf("bare template should be rejected")
	}
	if fx.bag.Count(diag.SemaTemplateRequiresParameterization) != 1 {
		t.Fatalf("expected TEMPLATE_TYPE_REQUIRES_PARAMETERIZATION")
	}
}

func TestPartialInstantiationCompletes(t *testing.T) {
	fx := newFixture(t)
	pair, pp := fx.generic("Pair", "K", "V")
	fx.field(pair, "key", symbols.Ref(pp[0]))
	fx.field(pair, "value", symbols.Ref(pp[1]))
	_, outer := fx.generic("Outer", "X")
	integer := fx.builtin(t, builtins.Integer)
	str := fx.builtin(t, builtins.String)

	partial := fx.reg.ResolveOrDefine(pair, []symbols.SymbolID{outer[0], integer}, fx.span())
	if !partial.Ok() || partial.Sym == pair {
		t.Fatalf("expected a partial shell, got %+v", partial)
	}
	if fx.table.Symbols.Get(partial.Sym).Kind != symbols.SymbolTemplateType {
		t.Fatalf("partial shell should stay a template")
	}

	viaPartial := fx.reg.ResolveOrDefine(partial.Sym, []symbols.SymbolID{str}, fx.span())
	direct := fx.reg.ResolveOrDefine(pair, []symbols.SymbolID{str, integer}, fx.span())
	if viaPartial.Sym != direct.Sym || direct.Created {
		t.Fatalf("completing the partial shell must reuse Pair of (String, Integer)")
	}
	if fx.reg.Len() != 2 {
		t.Fatalf("expected partial and concrete shells, got %d", fx.reg.Len())
	}
}

func TestPopulateIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	fx.method(list, "get", symbols.Ref(lp[0]))
	res := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{fx.builtin(t, builtins.Float)}, fx.span())

	before := len(fx.table.Members(res.Sym))
	if st := fx.reg.Populate(res.Sym, UseSite{}); st != StatePopulated {
		t.Fatalf("state %s", st)
	}
	if after := len(fx.table.Members(res.Sym)); after != before {
		t.Fatalf("second populate changed members: %d -> %d", before, after)
	}
	if st := fx.reg.Populate(list, UseSite{}); st != StateUnregistered {
		t.Fatalf("declarations are not registry entries, got %s", st)
	}
}

func TestGenericFunctionInstantiation(t *testing.T) {
	fx := newFixture(t)
	id := fx.table.NewFunction(fx.app, "identity", symbols.SymbolTemplateFunction, fx.span())
	fn := fx.table.Symbols.Get(id)
	ph := fx.factory.NewConceptual(fn.Members, "T", fx.span())
	fn.Generic = &symbols.Generic{TypeParams: []symbols.SymbolID{ph}}
	fn.Returns = symbols.Ref(ph)
	fn.Params = append(fn.Params, fx.table.NewParam(id, "x", symbols.Ref(ph), fx.span()))
	integer := fx.builtin(t, builtins.Integer)

	res := fx.reg.ResolveOrDefine(id, []symbols.SymbolID{integer}, fx.span())
	inst := fx.table.Symbols.Get(res.Sym)
	if inst.Kind != symbols.SymbolFunction {
		t.Fatalf("kind %s", inst.Kind)
	}
	if inst.Returns.Sym != integer || len(inst.Params) != 1 || fx.table.Symbols.Get(inst.Params[0]).Type.Sym != integer {
		t.Fatalf("signature not substituted")
	}
	entry, _ := fx.insts.Lookup(res.Name)
	if entry.Kind != InstFn {
		t.Fatalf("expected a function entry, got %s", entry.Kind)
	}
}

func TestSupertypeIsSubstituted(t *testing.T) {
	fx := newFixture(t)
	base, bp := fx.generic("Base", "T")
	fx.field(base, "x", symbols.Ref(bp[0]))
	derived, dp := fx.generic("Derived", "T")
	fx.table.Symbols.Get(derived).Super = ref(base, dp[0])
	date := fx.builtin(t, builtins.Date)

	res := fx.reg.ResolveOrDefine(derived, []symbols.SymbolID{date}, fx.span())
	baseDate := fx.reg.ResolveOrDefine(base, []symbols.SymbolID{date}, fx.span())
	if baseDate.Created {
		t.Fatalf("Base of Date should exist after populating Derived of Date")
	}
	if got := fx.table.Symbols.Get(res.Sym).Super.Sym; got != baseDate.Sym {
		t.Fatalf("super = %s", fx.table.DisplayName(got))
	}
}

func TestUnboundPlaceholderFailsShell(t *testing.T) {
	fx := newFixture(t)
	list, _ := fx.generic("List", "T")
	_, foreign := fx.generic("Other", "X")
	fx.method(list, "leak", symbols.Ref(foreign[0]))

	res := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{fx.builtin(t, builtins.Integer)}, fx.span())
	if res.State != StateFailed || fx.reg.State(res.Sym) != StateFailed {
		t.Fatalf("expected failed shell, got %s", res.State)
	}
	fatal := fx.reg.Fatal()
	if len(fatal) != 1 || fatal[0].Code != diag.ICEUnboundPlaceholder {
		t.Fatalf("unexpected fatal errors %v", fatal)
	}
	if fx.reg.Err() == nil || !fx.bag.HasInternal() {
		t.Fatalf("internal error should be reported")
	}
}

func TestConcurrentRequestsShareShell(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	fx.method(list, "get", symbols.Ref(lp[0]))
	integer := fx.builtin(t, builtins.Integer)

	const workers = 16
	ids := make([]symbols.SymbolID, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, source.Span{}).Sym
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got %d, worker 0 got %d", i, ids[i], ids[0])
		}
	}
	if fx.reg.Len() != 1 {
		t.Fatalf("expected one shell, got %d", fx.reg.Len())
	}
}

func TestConcurrentCallersSeeCompleteShell(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	const methods = 3000
	for i := range methods {
		fx.method(list, fmt.Sprintf("m%d", i), symbols.Ref(lp[0]), symbols.Ref(lp[0]))
	}
	integer := fx.builtin(t, builtins.Integer)

	const workers = 8
	results := make([]Result, workers)
	counts := make([]int, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, source.Span{})
			counts[i] = len(fx.table.Methods(results[i].Sym))
		}(i)
	}
	close(start)
	wg.Wait()

	for i, res := range results {
		if res.State != StatePopulated {
			t.Fatalf("worker %d returned a shell in state %s", i, res.State)
		}
		if counts[i] != methods {
			t.Fatalf("worker %d saw %d of %d methods", i, counts[i], methods)
		}
		if res.Sym != results[0].Sym {
			t.Fatalf("worker %d got shell %d, worker 0 got %d", i, res.Sym, results[0].Sym)
		}
	}
	for _, m := range fx.table.Methods(results[0].Sym) {
		if params := fx.table.Symbols.Get(m).Params; len(params) != 1 {
			t.Fatalf("%s has %d params", fx.table.Name(m), len(params))
		}
	}
}

func TestConcurrentMutualRecursionTerminates(t *testing.T) {
	for range 20 {
		fx := newFixture(t)
		list, lp := fx.generic("List", "T")
		iter, ip := fx.generic("Iterator", "T")
		for i := range 200 {
			fx.method(list, fmt.Sprintf("l%d", i), ref(iter, lp[0]))
			fx.method(iter, fmt.Sprintf("i%d", i), ref(list, ip[0]))
		}
		integer := fx.builtin(t, builtins.Integer)

		start := make(chan struct{})
		var wg sync.WaitGroup
		var listRes, iterRes Result
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			listRes = fx.reg.ResolveOrDefine(list, []symbols.SymbolID{integer}, source.Span{})
		}()
		go func() {
			defer wg.Done()
			<-start
			iterRes = fx.reg.ResolveOrDefine(iter, []symbols.SymbolID{integer}, source.Span{})
		}()
		close(start)
		wg.Wait()

		if listRes.State != StatePopulated || iterRes.State != StatePopulated {
			t.Fatalf("states %s and %s", listRes.State, iterRes.State)
		}
		if fx.reg.Len() != 2 {
			t.Fatalf("expected two shells, got %d", fx.reg.Len())
		}
		if n := len(fx.table.Methods(iterRes.Sym)); n != 200 {
			t.Fatalf("Iterator of Integer has %d methods", n)
		}
	}
}

func TestResolveRefRejectsFailedShell(t *testing.T) {
	fx := newFixture(t)
	box, _ := fx.generic("Box", "T")
	_, stray := fx.generic("Other", "U")
	fx.field(box, "item", symbols.Ref(stray[0]))
	integer := fx.builtin(t, builtins.Integer)

	if res := fx.reg.ResolveOrDefine(box, []symbols.SymbolID{integer}, fx.span()); res.State != StateFailed {
		t.Fatalf("expected failed shell, got %s", res.State)
	}
	if _, ok := fx.reg.ResolveRef(ref(box, integer), UseSite{Span: fx.span()}); ok {
		t.Fatalf("a failed shell must not resolve")
	}
	if len(fx.reg.Fatal()) != 1 {
		t.Fatalf("the failure should be recorded once, got %v", fx.reg.Fatal())
	}
}

func TestDescribeShowsSubstitutedSignatures(t *testing.T) {
	fx := newFixture(t)
	list, lp := fx.generic("List", "T")
	fx.method(list, "add", symbols.TypeRef{}, symbols.Ref(lp[0]))
	res := fx.reg.ResolveOrDefine(list, []symbols.SymbolID{fx.builtin(t, builtins.Character)}, fx.span())

	var buf bytes.Buffer
	if err := Describe(&buf, fx.table, res.Sym); err != nil {
		t.Fatalf("Describe: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "class List of Character") || !strings.Contains(out, "method add(p: Character): Void") {
		t.Fatalf("unexpected outline:\n%s", out)
	}
}
