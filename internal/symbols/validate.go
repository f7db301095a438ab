package symbols

import (
	"errors"
	"fmt"
)

// Validate walks the arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	for _, id := range t.Symbols.IDs() {
		sym := t.Symbols.Get(id)
		if sym.ID != id {
			errs = append(errs, fmt.Errorf("symbol %d carries id %d", id, sym.ID))
		}
		if sym.Kind == SymbolInvalid {
			errs = append(errs, fmt.Errorf("symbol %d has invalid kind", id))
		}
		if sym.Scope.IsValid() && t.Scopes.Get(sym.Scope) == nil {
			errs = append(errs, fmt.Errorf("symbol %d references missing scope %d", id, sym.Scope))
		}
		if sym.Members.IsValid() {
			if sc := t.Scopes.Get(sym.Members); sc == nil || sc.Owner != id {
				errs = append(errs, fmt.Errorf("symbol %d member scope %d has wrong owner", id, sym.Members))
			}
		}
		for _, p := range sym.Params {
			if ps := t.Symbols.Get(p); ps == nil || ps.Kind != SymbolParam {
				errs = append(errs, fmt.Errorf("symbol %d param %d is not a parameter", id, p))
			}
		}
		if sym.IsInstantiation() {
			errs = append(errs, t.validateInstantiation(id, sym)...)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) validateInstantiation(id SymbolID, sym *Symbol) []error {
	var errs []error
	origin := t.Symbols.Get(sym.Generic.Origin)
	if origin == nil || origin.Generic == nil {
		return []error{fmt.Errorf("instantiation %d has no generic origin", id)}
	}
	if origin.IsInstantiation() {
		errs = append(errs, fmt.Errorf("instantiation %d originates from another instantiation %d", id, origin.ID))
	}
	if len(sym.Generic.TypeArgs) != len(origin.Generic.TypeParams) {
		errs = append(errs, fmt.Errorf("instantiation %d binds %d args for %d params",
			id, len(sym.Generic.TypeArgs), len(origin.Generic.TypeParams)))
	}
	for _, a := range sym.Generic.TypeArgs {
		if as := t.Symbols.Get(a); as == nil || !as.Kind.IsType() {
			errs = append(errs, fmt.Errorf("instantiation %d argument %d is not a type", id, a))
		}
	}
	return errs
}
