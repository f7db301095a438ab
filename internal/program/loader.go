// Package program loads YAML program files into a symbol table and drives the
// instantiation requests and call checks they contain.
//
// Loading is split into phases so that every declaration of every file is
// known before anything is instantiated:
//
//	Define    create symbols, placeholders and members
//	Bind      resolve type expressions to declaration-level references
//	Complete  add defaulted operators, synthetic constructors, constraints
//	Realize   turn references into instantiations through the registry
//
// Instantiate and CheckCalls then run per unit and may run concurrently.
package program

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/mono"
	"monogen/internal/operators"
	"monogen/internal/overload"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Loader owns the declaration phases for a set of program files.
type Loader struct {
	table    *symbols.Table
	types    *builtins.Cache
	factory  *operators.Factory
	reg      *mono.Registry
	checker  *overload.Checker
	resolver *overload.Resolver
	reporter diag.Reporter

	units []*Unit
}

// Unit is one loaded program file.
type Unit struct {
	File   *source.File
	Doc    *Document
	Module symbols.ScopeID

	Types     []symbols.SymbolID
	Functions []symbols.SymbolID
	Instances []Instance
	Calls     []CallResult

	pending     []*pendingRef
	defaults    []pendingDefault
	constraints []pendingConstraint
}

// Instance is the outcome of one `instantiations` entry.
type Instance struct {
	Text string
	Span source.Span
	Ref  symbols.TypeRef
	OK   bool
}

// CallResult is the outcome of one `calls` entry.
type CallResult struct {
	Text   string
	Span   source.Span
	Target symbols.SymbolID
	OK     bool
}

type refKind uint8

const (
	refMember    refKind = iota // realized in place
	refDependent                // recorded on the generic, realized for side effects
)

type pendingRef struct {
	kind   refKind
	expr   Expr
	scope  symbols.ScopeID
	owner  symbols.SymbolID // declaration the reference appears in
	assign func(symbols.TypeRef)
	raw    symbols.TypeRef
}

type pendingDefault struct {
	agg symbols.SymbolID
	req operators.DefaultRequest
}

type pendingConstraint struct {
	placeholder symbols.SymbolID
	expr        Expr
	scope       symbols.ScopeID
}

// NewLoader creates a loader over table. Built-in types are installed on the
// table if they are not there yet.
func NewLoader(table *symbols.Table, reg *mono.Registry, reporter diag.Reporter) *Loader {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	types := builtins.Install(table)
	return &Loader{
		table:    table,
		types:    types,
		factory:  operators.NewFactory(table, types),
		reg:      reg,
		checker:  overload.NewChecker(table),
		resolver: overload.NewResolver(overload.NewScorer(table, types), reporter),
		reporter: reporter,
	}
}

// Units returns the units defined so far, in definition order.
func (l *Loader) Units() []*Unit { return l.units }

// Define creates the symbols declared by doc. Member types are left for Bind.
func (l *Loader) Define(file *source.File, doc *Document) *Unit {
	u := &Unit{
		File:   file,
		Doc:    doc,
		Module: l.table.ModuleRoot(doc.Module),
	}
	for i := range doc.Types {
		if id, ok := l.defineType(u, &doc.Types[i]); ok {
			u.Types = append(u.Types, id)
		}
	}
	for i := range doc.Functions {
		if id, ok := l.defineFunction(u, &doc.Functions[i]); ok {
			u.Functions = append(u.Functions, id)
		}
	}
	l.units = append(l.units, u)
	return u
}

// Prepare runs Bind, Complete and Realize over every defined unit.
func (l *Loader) Prepare() {
	l.Bind()
	l.Complete()
	l.Realize()
}

func (l *Loader) defineType(u *Unit, d *TypeDecl) (symbols.SymbolID, bool) {
	span := u.lineSpan(d.Pos)
	name := strings.TrimSpace(d.Name)
	if name == "" {
		diag.ReportError(l.reporter, diag.SynMissingName, span, "type declaration without a name").Emit()
		return symbols.NoSymbolID, false
	}
	genus, ok := symbols.ParseGenus(strings.TrimSpace(d.Genus))
	if !ok {
		diag.ReportError(l.reporter, diag.SynUnknownGenus, span,
			fmt.Sprintf("unknown genus %q for %s (expected class, record, trait or component)", d.Genus, name)).Emit()
		return symbols.NoSymbolID, false
	}
	if prev := l.table.Lookup(u.Module, name); len(prev) > 0 {
		diag.ReportError(l.reporter, diag.SemaDuplicateSymbol, span,
			fmt.Sprintf("%s is already declared in module %s", name, u.Doc.Module)).
			WithNote(l.table.Symbols.Get(prev[0]).Span, "previous declaration").
			Emit()
		return symbols.NoSymbolID, false
	}

	kind := symbols.SymbolType
	if len(d.Params) > 0 {
		kind = symbols.SymbolTemplateType
	}
	id := l.table.NewAggregate(u.Module, name, kind, genus, span)
	sym := l.table.Symbols.Get(id)
	if d.Open {
		sym.Flags |= symbols.FlagOpen
	}
	if d.Abstract {
		sym.Flags |= symbols.FlagAbstract
	}
	if len(d.Params) > 0 {
		sym.Generic = &symbols.Generic{}
		for _, p := range d.Params {
			if ph, ok := l.defineTypeParam(u, sym.Members, p); ok {
				sym.Generic.TypeParams = append(sym.Generic.TypeParams, ph)
			}
		}
	}

	if !d.Super.IsZero() {
		u.expect(refMember, d.Super, sym.Members, id, func(ref symbols.TypeRef) { sym.Super = ref })
	}
	if len(d.Traits) > 0 {
		sym.Traits = make([]symbols.TypeRef, len(d.Traits))
		for i, tr := range d.Traits {
			u.expect(refMember, tr, sym.Members, id, func(ref symbols.TypeRef) { sym.Traits[i] = ref })
		}
	}
	for i := range d.Fields {
		l.defineField(u, id, &d.Fields[i])
	}
	for i := range d.Methods {
		l.defineMethod(u, id, &d.Methods[i], false)
	}
	for i := range d.Operators {
		l.defineMethod(u, id, &d.Operators[i], true)
	}
	for _, use := range d.Uses {
		l.expectDependent(u, id, sym, use)
	}
	for _, def := range d.Defaults {
		u.defaults = append(u.defaults, pendingDefault{agg: id, req: operators.DefaultRequest{
			Name:         def.Name,
			Span:         u.lineSpan(def.Pos),
			HasSignature: def.HasSignature,
		}})
	}
	return id, true
}

func (l *Loader) defineTypeParam(u *Unit, scope symbols.ScopeID, p TypeParamDecl) (symbols.SymbolID, bool) {
	span := u.lineSpan(p.Pos)
	if p.Name == "" {
		diag.ReportError(l.reporter, diag.SynMissingName, span, "type parameter without a name").Emit()
		return symbols.NoSymbolID, false
	}
	ph := l.factory.NewConceptual(scope, p.Name, span)
	if !p.Constrain.IsZero() {
		u.constraints = append(u.constraints, pendingConstraint{placeholder: ph, expr: p.Constrain, scope: scope})
	}
	return ph, true
}

func (l *Loader) defineField(u *Unit, owner symbols.SymbolID, f *FieldDecl) {
	span := u.lineSpan(f.Pos)
	if strings.TrimSpace(f.Name) == "" {
		diag.ReportError(l.reporter, diag.SynMissingName, span, "field without a name").Emit()
		return
	}
	access, ok := l.parseAccess(f.Access, span)
	if !ok {
		return
	}
	members := l.table.Symbols.Get(owner).Members
	id := l.table.Define(members, &symbols.Symbol{
		Name:   l.table.Strings.Intern(strings.TrimSpace(f.Name)),
		Kind:   symbols.SymbolField,
		Access: access,
		Span:   span,
	})
	field := l.table.Symbols.Get(id)
	u.expect(refMember, f.Type, members, owner, func(ref symbols.TypeRef) { field.Type = ref })
}

func (l *Loader) defineMethod(u *Unit, owner symbols.SymbolID, m *MethodDecl, operator bool) {
	span := u.lineSpan(m.Pos)
	name := strings.TrimSpace(m.Name)
	if m.Constructor {
		name = l.table.Name(owner)
	}
	if name == "" {
		diag.ReportError(l.reporter, diag.SynMissingName, span, "method without a name").Emit()
		return
	}
	access, ok := l.parseAccess(m.Access, span)
	if !ok {
		return
	}
	id := l.table.NewFunction(l.table.Symbols.Get(owner).Members, name, symbols.SymbolMethod, span)
	method := l.table.Symbols.Get(id)
	method.Access = access
	if operator {
		method.Flags |= symbols.FlagOperator
	}
	if m.Override {
		method.Flags |= symbols.FlagOverride
	}
	if m.Pure {
		method.Flags |= symbols.FlagPure
	}
	if m.Abstract {
		method.Flags |= symbols.FlagAbstract
	}
	switch {
	case m.Constructor:
		method.Flags |= symbols.FlagConstructor
		method.Returns = symbols.Ref(owner)
	case !m.Returns.IsZero():
		u.expect(refMember, m.Returns, method.Members, owner, func(ref symbols.TypeRef) { method.Returns = ref })
	}
	l.defineParams(u, id, owner, m.Params)
}

func (l *Loader) defineParams(u *Unit, fn, owner symbols.SymbolID, params []ParamDecl) {
	scope := l.table.Symbols.Get(fn).Members
	for i, p := range params {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		pid := l.table.NewParam(fn, name, symbols.TypeRef{}, u.lineSpan(p.Pos))
		param := l.table.Symbols.Get(pid)
		fnSym := l.table.Symbols.Get(fn)
		fnSym.Params = append(fnSym.Params, pid)
		u.expect(refMember, p.Type, scope, owner, func(ref symbols.TypeRef) { param.Type = ref })
	}
}

func (l *Loader) defineFunction(u *Unit, d *FunctionDecl) (symbols.SymbolID, bool) {
	span := u.lineSpan(d.Pos)
	name := strings.TrimSpace(d.Name)
	if name == "" {
		diag.ReportError(l.reporter, diag.SynMissingName, span, "function without a name").Emit()
		return symbols.NoSymbolID, false
	}
	kind := symbols.SymbolFunction
	if len(d.TypeParams) > 0 {
		kind = symbols.SymbolTemplateFunction
	}
	id := l.table.NewFunction(u.Module, name, kind, span)
	fn := l.table.Symbols.Get(id)
	if len(d.TypeParams) > 0 {
		fn.Generic = &symbols.Generic{}
		for _, p := range d.TypeParams {
			if ph, ok := l.defineTypeParam(u, fn.Members, p); ok {
				fn.Generic.TypeParams = append(fn.Generic.TypeParams, ph)
			}
		}
	}
	if !d.Returns.IsZero() {
		u.expect(refMember, d.Returns, fn.Members, id, func(ref symbols.TypeRef) { fn.Returns = ref })
	}
	l.defineParams(u, id, id, d.Params)
	for _, use := range d.Uses {
		l.expectDependent(u, id, fn, use)
	}
	return id, true
}

func (l *Loader) expectDependent(u *Unit, owner symbols.SymbolID, sym *symbols.Symbol, use Expr) {
	span := u.exprSpan(use, nil)
	scope := sym.Members
	u.expect(refDependent, use, scope, owner, func(ref symbols.TypeRef) {
		if sym.Generic == nil {
			return
		}
		sym.Generic.Dependents = append(sym.Generic.Dependents, symbols.Dependent{Ref: ref, Span: span})
	})
}

func (l *Loader) parseAccess(s string, span source.Span) (symbols.Access, bool) {
	switch strings.TrimSpace(s) {
	case "", "public":
		return symbols.AccessPublic, true
	case "protected":
		return symbols.AccessProtected, true
	case "private":
		return symbols.AccessPrivate, true
	}
	diag.ReportError(l.reporter, diag.SynMalformedDocument, span,
		fmt.Sprintf("unknown access modifier %q", s)).Emit()
	return symbols.AccessPublic, false
}

func (u *Unit) expect(kind refKind, e Expr, scope symbols.ScopeID, owner symbols.SymbolID, assign func(symbols.TypeRef)) {
	u.pending = append(u.pending, &pendingRef{kind: kind, expr: e, scope: scope, owner: owner, assign: assign})
}

// Bind resolves every pending type expression to a declaration-level
// reference: names are looked up, nothing is instantiated yet.
func (l *Loader) Bind() {
	for _, u := range l.units {
		for _, p := range u.pending {
			ref, ok := l.bindExpr(u, p.expr, p.scope)
			if !ok {
				continue
			}
			p.raw = ref
			p.assign(ref)
		}
	}
}

// Complete adds defaulted operators and synthetic constructors to every
// declared type, then applies type parameter constraints.
func (l *Loader) Complete() {
	for _, u := range l.units {
		for _, d := range u.defaults {
			l.factory.AddMissingDefaults(d.agg, d.req, l.reporter)
		}
		for _, id := range u.Types {
			l.factory.AddSyntheticConstructors(id)
		}
	}
	for _, u := range l.units {
		for _, c := range u.constraints {
			span := u.exprSpan(c.expr, nil)
			raw, ok := l.bindExpr(u, c.expr, c.scope)
			if !ok {
				continue
			}
			ref, ok := l.reg.ResolveRef(raw, mono.UseSite{Span: span})
			if !ok {
				continue
			}
			if err := l.factory.Constrain(c.placeholder, ref.Sym); err != nil {
				diag.ReportError(l.reporter, diag.SemaInvalidConstraint, span, err.Error()).Emit()
			}
		}
	}
}

// Realize replaces bound references with instantiations, creating partial
// instantiations inside generic declarations and concrete ones elsewhere.
// Afterwards the own methods of every non-generic type are checked for
// colliding signatures.
func (l *Loader) Realize() {
	for _, u := range l.units {
		for _, p := range u.pending {
			if !p.raw.IsValid() {
				continue
			}
			if p.raw.Sym == p.owner && len(p.raw.Args) == 0 {
				continue
			}
			site := mono.UseSite{Span: u.exprSpan(p.expr, nil), Caller: p.owner}
			ref, ok := l.reg.ResolveRef(p.raw, site)
			if p.kind == refDependent {
				continue
			}
			if !ok {
				ref = symbols.TypeRef{}
			}
			p.assign(ref)
		}
	}
	for _, u := range l.units {
		for _, id := range u.Types {
			if !l.table.IsGenericInNature(id) {
				l.checker.Report(id, l.table.Symbols.Get(id).Span, l.reporter)
			}
		}
	}
}

// Instantiate realizes the unit's explicit instantiation requests.
func (l *Loader) Instantiate(u *Unit) {
	for _, e := range u.Doc.Instantiations {
		inst := Instance{Text: e.Text, Span: u.exprSpan(e, nil)}
		if ref, ok := l.realize(u, e, u.Module); ok {
			inst.Ref = ref
			inst.OK = true
		}
		u.Instances = append(u.Instances, inst)
	}
}

// CheckCalls resolves every call entry of the unit with the overload resolver.
func (l *Loader) CheckCalls(u *Unit) {
	for i := range u.Doc.Calls {
		c := &u.Doc.Calls[i]
		res := CallResult{Span: u.lineSpan(c.Pos)}
		res.Text = callText(c)
		res.Target, res.OK = l.checkCall(u, c, res.Span)
		u.Calls = append(u.Calls, res)
	}
}

func (l *Loader) checkCall(u *Unit, c *CallDecl, span source.Span) (symbols.SymbolID, bool) {
	args := make([]symbols.SymbolID, 0, len(c.Args))
	for _, a := range c.Args {
		ref, ok := l.realize(u, a, u.Module)
		if !ok {
			return symbols.NoSymbolID, false
		}
		args = append(args, ref.Sym)
	}

	switch {
	case !c.Receiver.IsZero():
		recv, ok := l.realize(u, c.Receiver, u.Module)
		if !ok {
			return symbols.NoSymbolID, false
		}
		return l.resolver.ResolveCall(recv.Sym, strings.TrimSpace(c.Method), args, span)

	case len(c.TypeArgs) > 0:
		fn, ok := l.table.Resolve(u.Module, strings.TrimSpace(c.Function), func(k symbols.SymbolKind) bool {
			return k == symbols.SymbolTemplateFunction
		})
		if !ok {
			diag.ReportError(l.reporter, diag.SemaNotATemplate, span,
				fmt.Sprintf("%q is not a generic function", c.Function)).Emit()
			return symbols.NoSymbolID, false
		}
		typeArgs := make([]symbols.SymbolID, 0, len(c.TypeArgs))
		for _, ta := range c.TypeArgs {
			ref, ok := l.realize(u, ta, u.Module)
			if !ok {
				return symbols.NoSymbolID, false
			}
			typeArgs = append(typeArgs, ref.Sym)
		}
		inst := l.reg.ResolveOrDefineAt(fn, typeArgs, mono.UseSite{Span: span})
		if !inst.Ok() {
			return symbols.NoSymbolID, false
		}
		return l.resolver.ResolveInstance(inst.Sym, args, span)

	case strings.TrimSpace(c.Function) != "":
		return l.resolver.ResolveFunction(u.Module, strings.TrimSpace(c.Function), args, span)
	}

	diag.ReportError(l.reporter, diag.SynBadCallShape, span,
		"call needs either a receiver and a method or a function").Emit()
	return symbols.NoSymbolID, false
}

func callText(c *CallDecl) string {
	var b strings.Builder
	switch {
	case !c.Receiver.IsZero():
		b.WriteString(strings.TrimSpace(c.Receiver.Text))
		b.WriteString(".")
		b.WriteString(strings.TrimSpace(c.Method))
	default:
		b.WriteString(strings.TrimSpace(c.Function))
		if len(c.TypeArgs) > 0 {
			b.WriteString("[")
			for i, ta := range c.TypeArgs {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(strings.TrimSpace(ta.Text))
			}
			b.WriteString("]")
		}
	}
	b.WriteString("(")
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strings.TrimSpace(a.Text))
	}
	b.WriteString(")")
	return b.String()
}

// realize binds and instantiates an expression in one step.
func (l *Loader) realize(u *Unit, e Expr, scope symbols.ScopeID) (symbols.TypeRef, bool) {
	raw, ok := l.bindExpr(u, e, scope)
	if !ok {
		return symbols.TypeRef{}, false
	}
	return l.reg.ResolveRef(raw, mono.UseSite{Span: u.exprSpan(e, nil)})
}

func (l *Loader) bindExpr(u *Unit, e Expr, scope symbols.ScopeID) (symbols.TypeRef, bool) {
	te, err := ParseTypeExpr(e.Text)
	if err != nil {
		span := u.exprSpan(e, nil)
		if se, ok := err.(*SyntaxError); ok {
			span = u.exprSpan(e, &TypeExpr{Start: se.Offset, End: se.Offset + 1})
		}
		diag.ReportError(l.reporter, diag.SynBadTypeExpr, span, err.Error()).Emit()
		return symbols.TypeRef{}, false
	}
	return l.bindTypeExpr(u, e, te, scope)
}

func (l *Loader) bindTypeExpr(u *Unit, e Expr, te *TypeExpr, scope symbols.ScopeID) (symbols.TypeRef, bool) {
	id, ok := l.lookupType(te, scope)
	if !ok {
		diag.ReportError(l.reporter, diag.SemaTypeNotResolved, u.exprSpan(e, te),
			fmt.Sprintf("unknown type %q", te.Name)).Emit()
		return symbols.TypeRef{}, false
	}
	ref := symbols.Ref(id)
	for _, arg := range te.Args {
		ar, ok := l.bindTypeExpr(u, e, arg, scope)
		if !ok {
			return symbols.TypeRef{}, false
		}
		ref.Args = append(ref.Args, ar)
	}
	return ref, true
}

func (l *Loader) lookupType(te *TypeExpr, scope symbols.ScopeID) (symbols.SymbolID, bool) {
	module, name := te.Module()
	if module == "" {
		if id, ok := l.table.Resolve(scope, name, symbols.SymbolKind.IsType); ok {
			return id, true
		}
		return builtins.Resolve(l.types, l.table, scope, name)
	}
	ms, ok := l.table.LookupModule(module)
	if !ok {
		return symbols.NoSymbolID, false
	}
	for _, id := range l.table.Lookup(ms, name) {
		if l.table.Symbols.Get(id).Kind.IsType() {
			return id, true
		}
	}
	return symbols.NoSymbolID, false
}

func (u *Unit) offset(pos Pos) uint32 {
	line, err := safecast.Conv[uint32](pos.Line)
	if err != nil {
		return 0
	}
	col, err := safecast.Conv[uint32](pos.Column)
	if err != nil {
		return 0
	}
	return u.File.Offset(source.LineCol{Line: line, Col: col})
}

// lineSpan covers the rest of the line starting at pos.
func (u *Unit) lineSpan(pos Pos) source.Span {
	start := u.offset(pos)
	end := start
	for int(end) < len(u.File.Content) && u.File.Content[end] != '\n' {
		end++
	}
	return source.Span{File: u.File.ID, Start: start, End: end}
}

// exprSpan covers the whole expression, or the sub-expression sub of it.
func (u *Unit) exprSpan(e Expr, sub *TypeExpr) source.Span {
	start := u.offset(e.Pos)
	if e.quoted {
		start++
	}
	from, to := 0, len(e.Text)
	if sub != nil {
		from, to = sub.Start, sub.End
		if to > len(e.Text) {
			to = len(e.Text)
		}
	}
	lo, err := safecast.Conv[uint32](from)
	if err != nil {
		lo = 0
	}
	hi, err := safecast.Conv[uint32](to)
	if err != nil {
		hi = lo
	}
	return source.Span{File: u.File.ID, Start: start + lo, End: start + hi}
}
