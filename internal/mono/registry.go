package mono

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"monogen/internal/diag"
	"monogen/internal/naming"
	"monogen/internal/overload"
	"monogen/internal/source"
	"monogen/internal/symbols"
	"monogen/internal/trace"
)

// Recorder observes every resolve-or-define request, hit or miss.
type Recorder interface {
	RecordInstantiation(kind InstantiationKind, name string, generic symbols.SymbolID, typeArgs []symbols.SymbolID, shell symbols.SymbolID, site UseSite)
}

// Options configure a Registry. Zero values are usable: diagnostics are
// dropped, nothing is recorded and tracing is off.
type Options struct {
	Reporter diag.Reporter
	Recorder Recorder
	Tracer   trace.Tracer
	Checker  *overload.Checker
}

// Result describes the outcome of a resolve-or-define request.
type Result struct {
	Sym     symbols.SymbolID
	Name    string
	State   State
	Created bool
}

// Ok reports whether the request produced a symbol.
func (r Result) Ok() bool { return r.Sym.IsValid() }

// Entry is a registry row as exposed to callers.
type Entry struct {
	Name    string
	Shell   symbols.SymbolID
	Generic symbols.SymbolID
	Args    []symbols.SymbolID
	State   State
}

type entry struct {
	name  string
	shell symbols.SymbolID
	state State
	done  chan struct{} // closed once state is Populated or Failed
}

// Registry memoizes instantiations by canonical name and drives their
// population. It is safe for concurrent use.
//
// A request for a shell another goroutine is still populating waits until
// that population ends. Requests made by a population itself never wait: they
// get the shell in whatever state it is, which is what lets self-referential
// and mutually referential generics terminate.
type Registry struct {
	table    *symbols.Table
	reporter diag.Reporter
	recorder Recorder
	tracer   trace.Tracer
	subst    *Substitutor

	mu      sync.Mutex
	byName  map[string]*entry
	byShell map[symbols.SymbolID]*entry
	order   []*entry
	fatal   []*InternalError
}

// NewRegistry creates an empty registry over table.
func NewRegistry(table *symbols.Table, opts Options) *Registry {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	if opts.Checker == nil {
		opts.Checker = overload.NewChecker(table)
	}
	r := &Registry{
		table:    table,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		tracer:   opts.Tracer,
		byName:   make(map[string]*entry),
		byShell:  make(map[symbols.SymbolID]*entry),
	}
	r.subst = &Substitutor{reg: r, table: table, checker: opts.Checker}
	return r
}

// Table returns the symbol table the registry defines shells in.
func (r *Registry) Table() *symbols.Table { return r.table }

// ResolveOrDefine returns the instantiation of generic with args, creating and
// populating it on first request. generic may be a declaration or a partial
// instantiation; in the latter case args fill its open positions.
//
// When every argument is conceptual no shell is created and the declaration
// itself is returned. Invalid requests are reported at site and yield a
// Result without symbol.
//
// The returned shell is complete: its State is Populated or Failed.
func (r *Registry) ResolveOrDefine(generic symbols.SymbolID, args []symbols.SymbolID, site source.Span) Result {
	return r.resolve(generic, args, UseSite{Span: site}, false)
}

// ResolveOrDefineAt is ResolveOrDefine with a full use site.
func (r *Registry) ResolveOrDefineAt(generic symbols.SymbolID, args []symbols.SymbolID, site UseSite) Result {
	return r.resolve(generic, args, site, false)
}

// resolve is the resolve-or-define step. nested is set for requests made
// while populating another shell; those return a shell still being populated
// instead of waiting for it.
func (r *Registry) resolve(generic symbols.SymbolID, args []symbols.SymbolID, site UseSite, nested bool) Result {
	sym := r.table.Symbols.Get(generic)
	if sym == nil || !r.table.IsGenericInNature(generic) {
		diag.ReportError(r.reporter, diag.SemaNotATemplate, site.Span,
			fmt.Sprintf("%s is not a template and cannot be parameterized", r.describe(generic))).Emit()
		return Result{}
	}

	base, full, err := naming.Base(r.table, generic, args)
	if err != nil {
		if errors.Is(err, naming.ErrArgCount) {
			expected := len(sym.Generic.TypeParams)
			if sym.IsInstantiation() {
				expected = len(naming.OpenPositions(r.table, generic))
			}
			diag.ReportError(r.reporter, diag.SemaParameterCountMismatch, site.Span,
				fmt.Sprintf("%s expects %d type argument(s), got %d", r.table.DisplayName(generic), expected, len(args))).
				WithNote(sym.Span, "declared here").
				Emit()
			return Result{}
		}
		diag.ReportError(r.reporter, diag.SemaNotATemplate, site.Span, err.Error()).Emit()
		return Result{}
	}
	for i, a := range full {
		as := r.table.Symbols.Get(a)
		if as == nil || !as.Kind.IsType() {
			diag.ReportError(r.reporter, diag.SemaTypeNotResolved, site.Span,
				fmt.Sprintf("type argument %d of %s is not a type", i+1, r.table.Name(base))).Emit()
			return Result{}
		}
	}

	name := naming.ForBase(r.table, base, full)
	kind := InstType
	if r.table.Symbols.Get(base).Kind.IsFunction() {
		kind = InstFn
	}
	if name == r.table.Name(base) {
		return Result{Sym: base, Name: name, State: StatePopulated}
	}

	r.mu.Lock()
	if e, ok := r.byName[name]; ok {
		state := e.state
		r.mu.Unlock()
		r.record(kind, name, base, full, e.shell, site)
		if !nested && !state.Done() {
			state = r.wait(e)
		}
		return Result{Sym: e.shell, Name: name, State: state}
	}
	shell := r.newShell(base, full, name)
	e := &entry{name: name, shell: shell, state: StateRegistered, done: make(chan struct{})}
	r.byName[name] = e
	r.byShell[shell] = e
	r.order = append(r.order, e)
	r.mu.Unlock()

	r.record(kind, name, base, full, shell, site)
	state := r.Populate(shell, site)
	return Result{Sym: shell, Name: name, State: state, Created: true}
}

// wait blocks until e's population ends and returns its final state.
func (r *Registry) wait(e *entry) State {
	<-e.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.state
}

func (r *Registry) record(kind InstantiationKind, name string, base symbols.SymbolID, args []symbols.SymbolID, shell symbols.SymbolID, site UseSite) {
	if r.recorder != nil {
		r.recorder.RecordInstantiation(kind, name, base, args, shell, site)
	}
}

// newShell defines the empty instantiation symbol next to its declaration.
// Called with r.mu held.
func (r *Registry) newShell(base symbols.SymbolID, args []symbols.SymbolID, name string) symbols.SymbolID {
	decl := r.table.Symbols.Get(base)
	concrete := true
	for _, a := range args {
		if r.table.IsConceptual(a) {
			concrete = false
			break
		}
	}
	scope := r.table.ModuleOf(base)
	if !scope.IsValid() {
		scope = decl.Scope
	}

	var id symbols.SymbolID
	if decl.Kind.IsFunction() {
		kind := symbols.SymbolFunction
		if !concrete {
			kind = symbols.SymbolTemplateFunction
		}
		id = r.table.NewFunction(scope, name, kind, decl.Span)
	} else {
		kind := symbols.SymbolType
		if !concrete {
			kind = symbols.SymbolTemplateType
		}
		id = r.table.NewAggregate(scope, name, kind, decl.Genus, decl.Span)
	}
	shell := r.table.Symbols.Get(id)
	shell.Flags = decl.Flags & (symbols.FlagOpen | symbols.FlagAbstract | symbols.FlagPure)
	shell.Access = decl.Access
	shell.Generic = &symbols.Generic{
		Origin:   base,
		TypeArgs: append([]symbols.SymbolID(nil), args...),
	}
	return id
}

// Populate fills a registered shell. Only the first call does any work; later
// calls, including re-entrant ones made while the shell is being populated,
// return the current state without waiting. Internal errors raised during
// population mark the shell Failed and are reported as ICE diagnostics.
func (r *Registry) Populate(shell symbols.SymbolID, site UseSite) (state State) {
	r.mu.Lock()
	e, ok := r.byShell[shell]
	if !ok {
		r.mu.Unlock()
		return StateUnregistered
	}
	if e.state != StateRegistered {
		state = e.state
		r.mu.Unlock()
		return state
	}
	e.state = StatePopulating
	r.mu.Unlock()
	defer close(e.done)

	span := trace.Start(r.tracer, trace.ScopeInstance, "populate", nil).
		Attr("shell", r.table.DisplayName(shell))
	defer func() {
		if rec := recover(); rec != nil {
			ie, isInternal := rec.(*InternalError)
			if !isInternal {
				ie = internalf(diag.ICEPopulationPanic, shell, "panic while populating %s: %v", r.table.DisplayName(shell), rec)
			}
			if ie.Site == (source.Span{}) {
				ie.Site = site.Span
			}
			r.fail(e, ie)
			span.End("failed")
			state = StateFailed
		}
	}()

	r.subst.Populate(shell, site)

	r.mu.Lock()
	e.state = StatePopulated
	r.mu.Unlock()
	span.End("populated")
	return StatePopulated
}

func (r *Registry) fail(e *entry, ie *InternalError) {
	r.mu.Lock()
	e.state = StateFailed
	r.fatal = append(r.fatal, ie)
	r.mu.Unlock()

	b := diag.ReportError(r.reporter, ie.Code, ie.Site, "internal error: "+ie.Msg)
	if sym := r.table.Symbols.Get(e.shell); sym != nil {
		b.WithNote(sym.Span, "while instantiating "+r.table.DisplayName(e.shell))
	}
	b.Emit()
}

// ResolveRef resolves a use-site reference bottom-up: arguments first, then
// the parameterized symbol itself. It returns false after reporting when any
// part of the reference is invalid, and for shells whose population failed
// (the ICE has already been reported).
func (r *Registry) ResolveRef(ref symbols.TypeRef, site UseSite) (symbols.TypeRef, bool) {
	sym := r.table.Symbols.Get(ref.Sym)
	if sym == nil {
		return ref, false
	}
	if len(ref.Args) == 0 {
		if sym.Generic != nil && !sym.IsInstantiation() && len(sym.Generic.TypeParams) > 0 {
			diag.ReportError(r.reporter, diag.SemaTemplateRequiresParameterization, site.Span,
				fmt.Sprintf("template %s must be parameterized here", r.table.Name(ref.Sym))).
				WithNote(sym.Span, "declared here").
				Emit()
			return ref, false
		}
		return ref, true
	}

	out := symbols.TypeRef{Args: make([]symbols.TypeRef, len(ref.Args))}
	args := make([]symbols.SymbolID, len(ref.Args))
	for i, a := range ref.Args {
		ra, ok := r.ResolveRef(a, site)
		if !ok {
			return ref, false
		}
		out.Args[i] = ra
		args[i] = ra.Sym
	}
	res := r.resolve(ref.Sym, args, site, false)
	if !res.Ok() || res.State == StateFailed {
		return ref, false
	}
	out.Sym = res.Sym
	return out, true
}

// State returns the population state of a shell.
func (r *Registry) State(shell symbols.SymbolID) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byShell[shell]; ok {
		return e.state
	}
	return StateUnregistered
}

// Lookup finds a shell by canonical name.
func (r *Registry) Lookup(name string) (symbols.SymbolID, State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byName[name]; ok {
		return e.shell, e.state, true
	}
	return symbols.NoSymbolID, StateUnregistered, false
}

// Len returns the number of registered shells.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Entries returns all registered shells in creation order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	rows := make([]Entry, len(r.order))
	for i, e := range r.order {
		rows[i] = Entry{Name: e.name, Shell: e.shell, State: e.state}
	}
	r.mu.Unlock()
	for i := range rows {
		if sym := r.table.Symbols.Get(rows[i].Shell); sym != nil && sym.Generic != nil {
			rows[i].Generic = sym.Generic.Origin
			rows[i].Args = append([]symbols.SymbolID(nil), sym.Generic.TypeArgs...)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Shell < rows[j].Shell })
	return rows
}

// Fatal returns the internal errors raised so far. A non-empty result means
// the compilation unit must not be considered successful.
func (r *Registry) Fatal() []*InternalError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*InternalError(nil), r.fatal...)
}

// Err joins all internal errors, or returns nil.
func (r *Registry) Err() error {
	fatal := r.Fatal()
	if len(fatal) == 0 {
		return nil
	}
	errs := make([]error, len(fatal))
	for i, ie := range fatal {
		errs[i] = ie
	}
	return errors.Join(errs...)
}

func (r *Registry) describe(id symbols.SymbolID) string {
	if r.table.Symbols.Get(id) == nil {
		return fmt.Sprintf("symbol #%d", id)
	}
	return r.table.DisplayName(id)
}
