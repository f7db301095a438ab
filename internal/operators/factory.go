package operators

import (
	"fmt"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Factory synthesizes operator methods for aggregates.
type Factory struct {
	table *symbols.Table
	types *builtins.Cache
}

// NewFactory binds a factory to table. types may be nil; built-in result
// types are then found by a scope walk from the aggregate.
func NewFactory(table *symbols.Table, types *builtins.Cache) *Factory {
	return &Factory{table: table, types: types}
}

// DefaultOperator builds the default implementation of name for agg. The
// operator is owned by agg but not inserted into its members. The second
// result is false when name has no default form or its types cannot be resolved.
func (f *Factory) DefaultOperator(agg symbols.SymbolID, name string) (symbols.SymbolID, bool) {
	spec, ok := LookupDefault(name)
	if !ok {
		return symbols.NoSymbolID, false
	}
	return f.create(agg, spec, symbols.FlagDefaulted)
}

// AllDefaultOperators builds every defaultable operator for agg.
func (f *Factory) AllDefaultOperators(agg symbols.SymbolID) []symbols.SymbolID {
	return f.createAll(agg, defaultCatalog, symbols.FlagDefaulted)
}

// AllSyntheticOperators builds the defaults plus the arithmetic, bitwise,
// mutation and stream operators a conceptual type parameter is assumed to have.
func (f *Factory) AllSyntheticOperators(agg symbols.SymbolID) []symbols.SymbolID {
	out := f.createAll(agg, defaultCatalog, symbols.FlagDefaulted)
	return append(out, f.createAll(agg, extraCatalog, 0)...)
}

func (f *Factory) createAll(agg symbols.SymbolID, specs []Spec, extra symbols.SymbolFlags) []symbols.SymbolID {
	out := make([]symbols.SymbolID, 0, len(specs))
	for _, spec := range specs {
		if id, ok := f.create(agg, spec, extra); ok {
			out = append(out, id)
		}
	}
	return out
}

func (f *Factory) create(agg symbols.SymbolID, spec Spec, extra symbols.SymbolFlags) (symbols.SymbolID, bool) {
	owner := f.table.Symbols.Get(agg)
	if owner == nil || !owner.Members.IsValid() {
		return symbols.NoSymbolID, false
	}

	var ret symbols.TypeRef
	switch spec.Result {
	case ResultSame:
		ret = symbols.Ref(agg)
	case ResultVoid:
		id, ok := builtins.Resolve(f.types, f.table, owner.Scope, builtins.Void)
		if !ok {
			return symbols.NoSymbolID, false
		}
		ret = symbols.Ref(id)
	default:
		id, ok := builtins.Resolve(f.types, f.table, owner.Scope, spec.Builtin)
		if !ok {
			return symbols.NoSymbolID, false
		}
		ret = symbols.Ref(id)
	}

	flags := symbols.FlagOperator | symbols.FlagSynthetic | extra
	if spec.Pure {
		flags |= symbols.FlagPure
	}
	id := f.table.Allocate(&symbols.Symbol{
		Name:    f.table.Strings.Intern(spec.Name),
		Kind:    symbols.SymbolMethod,
		Flags:   flags,
		Access:  symbols.AccessPublic,
		Span:    owner.Span,
		Scope:   owner.Members,
		Returns: ret,
	})
	op := f.table.Symbols.Get(id)
	op.Members = f.table.Scopes.New(symbols.ScopeFunction, owner.Members, id, source.NoStringID)
	if spec.Shape == ShapeSameType {
		op.Params = append(op.Params, f.table.NewParam(id, "param", symbols.Ref(agg), owner.Span))
	}
	return id, true
}

// NewConceptual creates a conceptual type parameter in scope. The placeholder
// gets a synthetic constructor and every synthetic operator so that generic
// bodies can use them before any concrete type is known.
func (f *Factory) NewConceptual(scope symbols.ScopeID, name string, span source.Span) symbols.SymbolID {
	id := f.table.NewAggregate(scope, name, symbols.SymbolType, symbols.GenusConceptual, span)
	f.addConstructor(id, nil, span)
	for _, op := range f.AllSyntheticOperators(id) {
		f.table.Insert(f.table.Symbols.Get(id).Members, op)
	}
	return id
}

// Constrain makes placeholder extend constraint and clones the constructors
// of the constraining type, so `T constrain by Number` can be built like a Number.
func (f *Factory) Constrain(placeholder, constraint symbols.SymbolID) error {
	ph := f.table.Symbols.Get(placeholder)
	if !ph.IsPlaceholder() {
		return fmt.Errorf("%s is not a type parameter", f.table.Name(placeholder))
	}
	target := f.table.Symbols.Get(constraint)
	if target == nil || !target.Kind.IsType() || target.IsPlaceholder() {
		return fmt.Errorf("%s cannot constrain a type parameter", f.table.DisplayName(constraint))
	}
	ph.Super = symbols.Ref(constraint)
	for _, m := range f.table.Methods(constraint) {
		ctor := f.table.Symbols.Get(m)
		if !ctor.Has(symbols.FlagConstructor) || len(ctor.Params) == 0 {
			continue
		}
		params := make([]symbols.TypeRef, len(ctor.Params))
		for i, p := range ctor.Params {
			params[i] = f.table.Symbols.Get(p).Type.Clone()
		}
		f.addConstructor(placeholder, params, ph.Span)
	}
	return nil
}

// AddSyntheticConstructors gives agg a no-argument constructor and one taking
// every field, unless constructors with those signatures already exist.
func (f *Factory) AddSyntheticConstructors(agg symbols.SymbolID) {
	owner := f.table.Symbols.Get(agg)
	if owner == nil || owner.Genus == symbols.GenusTrait {
		return
	}
	var fields []symbols.TypeRef
	for _, m := range f.table.Members(agg) {
		if s := f.table.Symbols.Get(m); s.Kind == symbols.SymbolField {
			fields = append(fields, s.Type.Clone())
		}
	}
	if !f.hasConstructor(agg, nil) {
		f.addConstructor(agg, nil, owner.Span)
	}
	if len(fields) > 0 && !f.hasConstructor(agg, fields) {
		f.addConstructor(agg, fields, owner.Span)
	}
}

func (f *Factory) hasConstructor(agg symbols.SymbolID, params []symbols.TypeRef) bool {
	for _, m := range f.table.Methods(agg) {
		if !f.table.Symbols.Get(m).Has(symbols.FlagConstructor) {
			continue
		}
		got := f.table.ParamTypes(m)
		if len(got) != len(params) {
			continue
		}
		same := true
		for i := range got {
			if got[i] != params[i].Sym {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func (f *Factory) addConstructor(agg symbols.SymbolID, params []symbols.TypeRef, span source.Span) symbols.SymbolID {
	owner := f.table.Symbols.Get(agg)
	id := f.table.NewFunction(owner.Members, f.table.Name(agg), symbols.SymbolMethod, span)
	ctor := f.table.Symbols.Get(id)
	ctor.Flags |= symbols.FlagConstructor | symbols.FlagSynthetic
	ctor.Returns = symbols.Ref(agg)
	for i, p := range params {
		ctor.Params = append(ctor.Params, f.table.NewParam(id, fmt.Sprintf("arg%d", i), p, span))
	}
	return id
}

// DefaultRequest is one `default operator` clause of a declaration. An empty
// Name asks for every defaultable operator.
type DefaultRequest struct {
	Name         string
	Span         source.Span
	HasSignature bool
}

// CheckDefault validates a default request against agg and reports problems.
func (f *Factory) CheckDefault(agg symbols.SymbolID, req DefaultRequest, r diag.Reporter) bool {
	owner := f.table.Symbols.Get(agg)
	if owner.Genus == symbols.GenusTrait {
		diag.ReportError(r, diag.SemaDefaultAndTrait, req.Span,
			fmt.Sprintf("trait %s cannot default operators", f.table.Name(agg))).
			WithNote(owner.Span, "trait declared here").
			Emit()
		return false
	}
	if req.HasSignature {
		diag.ReportError(r, diag.SemaDefaultWithSignature, req.Span,
			fmt.Sprintf("defaulted operator %q must not declare parameters or a return type", req.Name)).
			Emit()
		return false
	}
	if req.Name != "" {
		if _, ok := LookupDefault(req.Name); !ok {
			diag.ReportError(r, diag.SemaOperatorDefaultNotSupported, req.Span,
				fmt.Sprintf("operator %q has no default implementation", req.Name)).
				Emit()
			return false
		}
	}
	return true
}

// AddMissingDefaults applies a default request: only operators agg does not
// already declare are synthesized and inserted. It returns the inserted IDs.
func (f *Factory) AddMissingDefaults(agg symbols.SymbolID, req DefaultRequest, r diag.Reporter) []symbols.SymbolID {
	if !f.CheckDefault(agg, req, r) {
		return nil
	}
	names := []string{req.Name}
	if req.Name == "" {
		names = DefaultNames()
	}
	owner := f.table.Symbols.Get(agg)
	var added []symbols.SymbolID
	for _, name := range names {
		if len(f.table.Lookup(owner.Members, name)) > 0 {
			continue
		}
		id, ok := f.DefaultOperator(agg, name)
		if !ok {
			diag.ReportError(r, diag.SemaOperatorDefaultNotSupported, req.Span,
				fmt.Sprintf("cannot default operator %q for %s", name, f.table.Name(agg))).
				Emit()
			continue
		}
		f.table.Symbols.Get(id).Span = req.Span
		f.table.Insert(owner.Members, id)
		added = append(added, id)
	}
	return added
}
