package mono

import (
	"errors"
	"fmt"

	"monogen/internal/symbols"
)

// Verify checks that a populated, fully concrete shell no longer mentions any
// conceptual type: not in its ancestors, member types, or signatures.
func Verify(table *symbols.Table, shell symbols.SymbolID) error {
	sh := table.Symbols.Get(shell)
	if sh == nil || !sh.IsInstantiation() {
		return fmt.Errorf("symbol #%d is not an instantiation", shell)
	}
	if table.IsGenericInNature(shell) {
		return nil
	}
	name := table.DisplayName(shell)

	var errs []error
	check := func(what string, ref symbols.TypeRef) {
		if sym := conceptualIn(table, ref); sym.IsValid() {
			errs = append(errs, fmt.Errorf("%s: %s still refers to %s", name, what, table.DisplayName(sym)))
		}
	}

	check("supertype", sh.Super)
	for _, tr := range sh.Traits {
		check("trait", tr)
	}
	check("return type", sh.Returns)
	for _, p := range sh.Params {
		check("parameter "+table.Name(p), table.Symbols.Get(p).Type)
	}
	for _, m := range table.Members(shell) {
		member := table.Symbols.Get(m)
		switch member.Kind {
		case symbols.SymbolField:
			check("field "+table.Name(m), member.Type)
		case symbols.SymbolMethod:
			check("method "+table.Name(m), member.Returns)
			for _, p := range member.Params {
				check("parameter "+table.Name(p)+" of "+table.Name(m), table.Symbols.Get(p).Type)
			}
		}
	}
	return errors.Join(errs...)
}

// VerifyAll runs Verify over every populated entry of the registry.
func (r *Registry) VerifyAll() error {
	var errs []error
	for _, e := range r.Entries() {
		if e.State != StatePopulated {
			continue
		}
		if err := Verify(r.table, e.Shell); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func conceptualIn(table *symbols.Table, ref symbols.TypeRef) symbols.SymbolID {
	if !ref.IsValid() {
		return symbols.NoSymbolID
	}
	if table.IsConceptual(ref.Sym) {
		return ref.Sym
	}
	for _, a := range ref.Args {
		if sym := conceptualIn(table, a); sym.IsValid() {
			return sym
		}
	}
	return symbols.NoSymbolID
}
