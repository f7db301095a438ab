package symbols

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"monogen/internal/source"
)

// BuiltinModule is the module every scope walk falls back to.
const BuiltinModule = "builtin"

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner

	mu      sync.RWMutex
	modRoot map[string]ScopeID
	modKeys []string
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
		modRoot: make(map[string]ScopeID),
	}
}

// ModuleRoot returns (and creates if needed) the scope of the named module.
func (t *Table) ModuleRoot(module string) ScopeID {
	t.mu.RLock()
	scope, ok := t.modRoot[module]
	t.mu.RUnlock()
	if ok {
		return scope
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if scope, ok := t.modRoot[module]; ok {
		return scope
	}
	scope = t.Scopes.New(ScopeModule, NoScopeID, NoSymbolID, t.Strings.Intern(module))
	t.modRoot[module] = scope
	t.modKeys = append(t.modKeys, module)
	return scope
}

// Modules lists module names in creation order.
func (t *Table) Modules() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.modKeys...)
}

// LookupModule returns the module scope without creating it.
func (t *Table) LookupModule(module string) (ScopeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	scope, ok := t.modRoot[module]
	return scope, ok
}

// Allocate stores sym without making it visible in any scope.
func (t *Table) Allocate(sym *Symbol) SymbolID {
	return t.Symbols.New(sym)
}

// Define stores sym and inserts it into scope under its name.
func (t *Table) Define(scope ScopeID, sym *Symbol) SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		panic(fmt.Errorf("symbols.Define: invalid scope %d", scope))
	}
	sym.Scope = scope
	id := t.Symbols.New(sym)
	sc.Insert(sym.Name, id)
	return id
}

// Insert makes an already allocated symbol visible in scope.
func (t *Table) Insert(scope ScopeID, id SymbolID) {
	sc := t.Scopes.Get(scope)
	sym := t.Symbols.Get(id)
	if sc == nil || sym == nil {
		panic(fmt.Errorf("symbols.Insert: invalid scope %d or symbol %d", scope, id))
	}
	sc.Insert(sym.Name, id)
}

// NewAggregate defines a type symbol together with its member scope.
func (t *Table) NewAggregate(scope ScopeID, name string, kind SymbolKind, genus Genus, span source.Span) SymbolID {
	id := t.Define(scope, &Symbol{
		Name:  t.Strings.Intern(name),
		Kind:  kind,
		Genus: genus,
		Span:  span,
	})
	t.Symbols.Get(id).Members = t.Scopes.New(ScopeType, scope, id, source.NoStringID)
	return id
}

// NewFunction defines a function-like symbol with its parameter scope.
func (t *Table) NewFunction(scope ScopeID, name string, kind SymbolKind, span source.Span) SymbolID {
	id := t.Define(scope, &Symbol{
		Name: t.Strings.Intern(name),
		Kind: kind,
		Span: span,
	})
	t.Symbols.Get(id).Members = t.Scopes.New(ScopeFunction, scope, id, source.NoStringID)
	return id
}

// NewParam allocates a parameter owned by fn's scope.
func (t *Table) NewParam(fn SymbolID, name string, typ TypeRef, span source.Span) SymbolID {
	owner := t.Symbols.Get(fn)
	scope := owner.Members
	if !scope.IsValid() {
		scope = owner.Scope
	}
	return t.Define(scope, &Symbol{
		Name: t.Strings.Intern(name),
		Kind: SymbolParam,
		Type: typ,
		Span: span,
	})
}

// Lookup returns the symbols named name declared directly in scope.
func (t *Table) Lookup(scope ScopeID, name string) []SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return nil
	}
	return sc.Lookup(t.Strings.Intern(name))
}

// Resolve walks from scope outwards through parents, then falls back to the
// builtin module. The first match of an accepted kind wins.
func (t *Table) Resolve(scope ScopeID, name string, accept func(SymbolKind) bool) (SymbolID, bool) {
	key := t.Strings.Intern(name)
	visitedBuiltin := false
	builtin, hasBuiltin := t.LookupModule(BuiltinModule)
	for cur := scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if sc == nil {
			break
		}
		if cur == builtin {
			visitedBuiltin = true
		}
		for _, id := range sc.Lookup(key) {
			if sym := t.Symbols.Get(id); sym != nil && (accept == nil || accept(sym.Kind)) {
				return id, true
			}
		}
		cur = sc.Parent
	}
	if hasBuiltin && !visitedBuiltin {
		for _, id := range t.Scopes.Get(builtin).Lookup(key) {
			if sym := t.Symbols.Get(id); sym != nil && (accept == nil || accept(sym.Kind)) {
				return id, true
			}
		}
	}
	return NoSymbolID, false
}

// ResolveType resolves a name that must denote a type.
func (t *Table) ResolveType(scope ScopeID, name string) (SymbolID, bool) {
	return t.Resolve(scope, name, func(k SymbolKind) bool { return k.IsType() || k.IsFunction() })
}

// Name returns the simple name of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return "<invalid>"
	}
	return t.Strings.MustLookup(sym.Name)
}

// ModuleOf returns the module scope enclosing the symbol.
func (t *Table) ModuleOf(id SymbolID) ScopeID {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return NoScopeID
	}
	for cur := sym.Scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if sc == nil {
			return NoScopeID
		}
		if sc.Kind == ScopeModule {
			return cur
		}
		cur = sc.Parent
	}
	return NoScopeID
}

// QualifiedName renders module::Name, module::Owner.member for members.
func (t *Table) QualifiedName(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return "<invalid>"
	}
	name := t.Strings.MustLookup(sym.Name)
	sc := t.Scopes.Get(sym.Scope)
	if sc == nil {
		return name
	}
	if sc.Kind == ScopeModule {
		return t.Strings.MustLookup(sc.Name) + "::" + name
	}
	if sc.Owner.IsValid() {
		return t.QualifiedName(sc.Owner) + "." + name
	}
	return name
}

// Root returns the generic declaration a symbol was instantiated from, or the
// symbol itself.
func (t *Table) Root(id SymbolID) SymbolID {
	sym := t.Symbols.Get(id)
	if sym != nil && sym.IsInstantiation() {
		return sym.Generic.Origin
	}
	return id
}

// IsPlaceholder reports whether id is a conceptual type parameter.
func (t *Table) IsPlaceholder(id SymbolID) bool {
	return t.Symbols.Get(id).IsPlaceholder()
}

// IsGenericInNature holds for generic declarations with type parameters and
// for instantiations that still carry at least one conceptual argument.
func (t *Table) IsGenericInNature(id SymbolID) bool {
	sym := t.Symbols.Get(id)
	if sym == nil || sym.Generic == nil {
		return false
	}
	g := sym.Generic
	if !g.Origin.IsValid() {
		return len(g.TypeParams) > 0
	}
	for _, arg := range g.TypeArgs {
		if t.IsConceptual(arg) {
			return true
		}
	}
	return false
}

// IsConceptual reports whether id still needs substitution to become concrete.
func (t *Table) IsConceptual(id SymbolID) bool {
	return t.IsPlaceholder(id) || t.IsGenericInNature(id)
}

// IsFullyParameterized holds for instantiations whose arguments are all concrete.
func (t *Table) IsFullyParameterized(id SymbolID) bool {
	sym := t.Symbols.Get(id)
	return sym.IsInstantiation() && !t.IsGenericInNature(id)
}

// DisplayName renders a symbol the way users write it: `Dict of (Integer, List of Date)`.
func (t *Table) DisplayName(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return "<invalid>"
	}
	if sym.IsInstantiation() {
		args := make([]string, len(sym.Generic.TypeArgs))
		for i, a := range sym.Generic.TypeArgs {
			args[i] = t.DisplayName(a)
		}
		return joinOf(t.Name(sym.Generic.Origin), args)
	}
	return t.Strings.MustLookup(sym.Name)
}

// RefString renders a TypeRef with its use-site arguments.
func (t *Table) RefString(ref TypeRef) string {
	if !ref.IsValid() {
		return "<none>"
	}
	if len(ref.Args) == 0 {
		return t.DisplayName(ref.Sym)
	}
	args := make([]string, len(ref.Args))
	for i, a := range ref.Args {
		args[i] = t.RefString(a)
	}
	return joinOf(t.Name(t.Root(ref.Sym)), args)
}

func joinOf(base string, args []string) string {
	if len(args) == 1 {
		return base + " of " + args[0]
	}
	return base + " of (" + strings.Join(args, ", ") + ")"
}

// Members returns the member symbols of an aggregate in declaration order.
func (t *Table) Members(id SymbolID) []SymbolID {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return nil
	}
	sc := t.Scopes.Get(sym.Members)
	if sc == nil {
		return nil
	}
	return sc.Symbols()
}

// Methods returns the member methods (constructors and operators included).
func (t *Table) Methods(id SymbolID) []SymbolID {
	members := t.Members(id)
	out := members[:0:0]
	for _, m := range members {
		if s := t.Symbols.Get(m); s != nil && s.Kind == SymbolMethod {
			out = append(out, m)
		}
	}
	return out
}

// ParamTypes lists the resolved parameter types of a method or function.
func (t *Table) ParamTypes(fn SymbolID) []SymbolID {
	sym := t.Symbols.Get(fn)
	if sym == nil {
		return nil
	}
	out := make([]SymbolID, len(sym.Params))
	for i, p := range sym.Params {
		if ps := t.Symbols.Get(p); ps != nil {
			out[i] = ps.Type.Sym
		}
	}
	return out
}
