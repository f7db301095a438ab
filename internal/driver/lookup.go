package driver

import (
	"fmt"
	"slices"
	"strings"

	"monogen/internal/builtins"
	"monogen/internal/program"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Lookup finds the symbol a type expression names after a run, instantiating
// it when the run never asked for it. Unqualified names are searched in the
// built-ins first and then in every module; a name declared in several
// modules must be qualified.
func (r *Result) Lookup(text string) (symbols.SymbolID, error) {
	te, err := program.ParseTypeExpr(strings.TrimSpace(text))
	if err != nil {
		return symbols.NoSymbolID, err
	}
	return r.lookupExpr(te)
}

func (r *Result) lookupExpr(te *program.TypeExpr) (symbols.SymbolID, error) {
	base, err := r.lookupName(te)
	if err != nil || len(te.Args) == 0 {
		return base, err
	}
	args := make([]symbols.SymbolID, len(te.Args))
	for i, a := range te.Args {
		if args[i], err = r.lookupExpr(a); err != nil {
			return symbols.NoSymbolID, err
		}
	}
	res := r.Registry.ResolveOrDefine(base, args, source.NoSpan)
	if !res.Ok() {
		return symbols.NoSymbolID, fmt.Errorf("cannot instantiate %s", te)
	}
	return res.Sym, nil
}

func (r *Result) lookupName(te *program.TypeExpr) (symbols.SymbolID, error) {
	module, name := te.Module()
	if module != "" {
		scope, ok := r.Table.LookupModule(module)
		if !ok {
			return symbols.NoSymbolID, fmt.Errorf("unknown module %q", module)
		}
		if id, ok := r.findType(scope, name); ok {
			return id, nil
		}
		return symbols.NoSymbolID, fmt.Errorf("%s is not declared in module %s", name, module)
	}

	if id, ok := builtins.For(r.Table).Lookup(name); ok {
		return id, nil
	}
	var found []symbols.SymbolID
	var where []string
	for _, mod := range r.Table.Modules() {
		scope, _ := r.Table.LookupModule(mod)
		if id, ok := r.findType(scope, name); ok {
			found = append(found, id)
			where = append(where, mod)
		}
	}
	switch len(found) {
	case 0:
		return symbols.NoSymbolID, fmt.Errorf("type %s not found", name)
	case 1:
		return found[0], nil
	}
	slices.Sort(where)
	return symbols.NoSymbolID, fmt.Errorf("%s is ambiguous, qualify it with one of: %s", name, strings.Join(where, ", "))
}

func (r *Result) findType(scope symbols.ScopeID, name string) (symbols.SymbolID, bool) {
	for _, id := range r.Table.Lookup(scope, name) {
		if sym := r.Table.Symbols.Get(id); sym != nil && (sym.Kind.IsType() || sym.Kind.IsFunction()) {
			return id, true
		}
	}
	return symbols.NoSymbolID, false
}
