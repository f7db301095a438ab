package mono

import (
	"monogen/internal/diag"
	"monogen/internal/overload"
	"monogen/internal/source"
	"monogen/internal/symbols"
	"monogen/internal/trace"
)

// Substitutor clones a generic declaration into a registered shell, replacing
// every placeholder with the shell's type arguments.
type Substitutor struct {
	reg     *Registry
	table   *symbols.Table
	checker *overload.Checker
}

// binder carries the state of one population.
type binder struct {
	s       *Substitutor
	shell   symbols.SymbolID
	base    symbols.SymbolID
	binding map[symbols.SymbolID]symbols.SymbolID
	caller  string
}

// Populate fills shell. It must be called at most once per shell, which the
// registry guarantees; internal errors are raised as *InternalError panics.
func (s *Substitutor) Populate(shell symbols.SymbolID, site UseSite) {
	sh := s.table.Symbols.Get(shell)
	if sh == nil || !sh.IsInstantiation() {
		panic(internalf(diag.ICECategoryMismatch, shell, "symbol #%d is not an instantiation shell", shell))
	}
	base := s.table.Symbols.Get(sh.Generic.Origin)
	if base == nil || base.Generic == nil {
		panic(internalf(diag.ICECategoryMismatch, shell, "origin of %s is not a generic declaration", s.table.Name(shell)))
	}
	if base.IsInstantiation() {
		panic(internalf(diag.ICEUnsubstitutedAncestor, shell,
			"%s was derived from the instantiation %s instead of its declaration",
			s.table.Name(shell), s.table.DisplayName(base.ID)))
	}
	params := base.Generic.TypeParams
	if len(params) != len(sh.Generic.TypeArgs) {
		panic(internalf(diag.ICECategoryMismatch, shell,
			"%s binds %d argument(s) for %d type parameter(s)", s.table.Name(shell), len(sh.Generic.TypeArgs), len(params)))
	}

	b := &binder{
		s:       s,
		shell:   shell,
		base:    base.ID,
		binding: make(map[symbols.SymbolID]symbols.SymbolID, len(params)),
		caller:  s.table.DisplayName(shell),
	}
	for i, p := range params {
		b.binding[p] = sh.Generic.TypeArgs[i]
	}

	for _, dep := range base.Generic.Dependents {
		b.replace(dep.Ref, dep.Span)
	}

	if base.Super.IsValid() {
		sh.Super = b.replace(base.Super, base.Span)
	}
	if len(base.Traits) > 0 {
		traits := make([]symbols.TypeRef, len(base.Traits))
		for i, tr := range base.Traits {
			traits[i] = b.replace(tr, base.Span)
		}
		sh.Traits = traits
	}

	if base.Kind.IsFunction() {
		b.cloneSignature(base, shell)
	} else {
		for _, m := range s.table.Members(base.ID) {
			member := s.table.Symbols.Get(m)
			switch member.Kind {
			case symbols.SymbolMethod:
				b.cloneMethod(member)
			case symbols.SymbolField:
				b.cloneField(member)
			}
		}
		s.checker.Report(shell, site.Span, s.reg.reporter)
	}

	sh.Flags |= symbols.FlagSubstituted
}

// replace maps a reference from the declaration's vocabulary to the shell's.
func (b *binder) replace(ref symbols.TypeRef, at source.Span) symbols.TypeRef {
	if !ref.IsValid() {
		return ref
	}
	table := b.s.table
	sym := table.Symbols.Get(ref.Sym)
	if sym == nil {
		panic(internalf(diag.ICECategoryMismatch, b.shell, "dangling type reference #%d", ref.Sym))
	}

	if sym.IsPlaceholder() {
		if bound, ok := b.binding[ref.Sym]; ok {
			return symbols.Ref(bound)
		}
		panic(internalf(diag.ICEUnboundPlaceholder, b.shell,
			"type parameter %s has no binding in %s", table.QualifiedName(ref.Sym), b.caller))
	}

	if ref.Sym == b.base && len(ref.Args) == 0 {
		return symbols.Ref(b.shell)
	}

	if len(ref.Args) == 0 || !table.IsGenericInNature(ref.Sym) {
		return ref.Clone()
	}

	out := symbols.TypeRef{Args: make([]symbols.TypeRef, len(ref.Args))}
	args := make([]symbols.SymbolID, len(ref.Args))
	for i, a := range ref.Args {
		out.Args[i] = b.replace(a, at)
		args[i] = out.Args[i].Sym
	}
	res := b.s.reg.resolve(table.Root(ref.Sym), args, UseSite{
		Span:   at,
		Caller: b.shell,
		Note:   "required by " + b.caller,
	}, true)
	if !res.Ok() {
		panic(internalf(diag.ICECategoryMismatch, b.shell,
			"%s could not be instantiated while populating %s", table.RefString(ref), b.caller))
	}
	if got := table.Symbols.Get(res.Sym); !got.Kind.IsType() && !got.Kind.IsFunction() {
		panic(internalf(diag.ICECategoryMismatch, b.shell,
			"%s resolved to a %s in a type position", table.RefString(ref), got.Kind))
	}
	out.Sym = res.Sym
	return out
}

func (b *binder) cloneField(src *symbols.Symbol) {
	table := b.s.table
	cp := src.Clone()
	cp.Type = b.replace(src.Type, src.Span)
	table.Define(table.Symbols.Get(b.shell).Members, cp)
}

func (b *binder) cloneMethod(src *symbols.Symbol) {
	table := b.s.table
	sh := table.Symbols.Get(b.shell)

	cp := src.Clone()
	cp.Params = nil
	cp.Members = symbols.NoScopeID
	if src.Has(symbols.FlagConstructor) {
		cp.Name = sh.Name
		cp.Returns = symbols.Ref(b.shell)
	} else {
		cp.Returns = b.replace(src.Returns, src.Span)
	}
	// parameter types are substituted before the method becomes visible in
	// the shell's scope
	types := make([]symbols.TypeRef, len(src.Params))
	for i, p := range src.Params {
		ps := table.Symbols.Get(p)
		types[i] = b.replace(ps.Type, ps.Span)
	}
	cp.Scope = sh.Members
	id := table.Symbols.New(cp)
	cp.Members = table.Scopes.New(symbols.ScopeFunction, sh.Members, id, source.NoStringID)
	params := make([]symbols.SymbolID, len(src.Params))
	for i, p := range src.Params {
		ps := table.Symbols.Get(p)
		params[i] = table.NewParam(id, table.Strings.MustLookup(ps.Name), types[i], ps.Span)
	}
	cp.Params = params
	table.Insert(sh.Members, id)

	trace.Point(b.s.reg.tracer, trace.ScopeMember, "clone", b.caller+"."+table.Name(id))
}

// cloneSignature substitutes the parameter and return types of a generic
// function into its instantiation.
func (b *binder) cloneSignature(src *symbols.Symbol, shell symbols.SymbolID) {
	table := b.s.table
	fn := table.Symbols.Get(shell)
	fn.Returns = b.replace(src.Returns, src.Span)
	for _, p := range src.Params {
		ps := table.Symbols.Get(p)
		fn.Params = append(fn.Params,
			table.NewParam(shell, table.Strings.MustLookup(ps.Name), b.replace(ps.Type, ps.Span), ps.Span))
	}
}
