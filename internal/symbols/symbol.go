package symbols

import (
	"slices"

	"monogen/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolModule
	SymbolType
	SymbolTemplateType
	SymbolFunction
	SymbolTemplateFunction
	SymbolMethod
	SymbolField
	SymbolParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolModule:
		return "module"
	case SymbolType:
		return "type"
	case SymbolTemplateType:
		return "template type"
	case SymbolFunction:
		return "function"
	case SymbolTemplateFunction:
		return "template function"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolParam:
		return "param"
	default:
		return "invalid"
	}
}

// IsType reports whether symbols of this kind can appear in type positions.
func (k SymbolKind) IsType() bool {
	return k == SymbolType || k == SymbolTemplateType
}

// IsFunction reports whether the kind is a top-level function (generic or not).
func (k SymbolKind) IsFunction() bool {
	return k == SymbolFunction || k == SymbolTemplateFunction
}

// Genus refines aggregate type symbols.
type Genus uint8

const (
	GenusNone Genus = iota
	GenusClass
	GenusRecord
	GenusTrait
	GenusComponent
	GenusBuiltin
	GenusConceptual
)

var genusNames = [...]string{
	GenusNone:       "none",
	GenusClass:      "class",
	GenusRecord:     "record",
	GenusTrait:      "trait",
	GenusComponent:  "component",
	GenusBuiltin:    "builtin",
	GenusConceptual: "conceptual",
}

func (g Genus) String() string {
	if int(g) < len(genusNames) {
		return genusNames[g]
	}
	return "none"
}

// ParseGenus maps a declaration keyword to a Genus.
func ParseGenus(s string) (Genus, bool) {
	switch s {
	case "", "class":
		return GenusClass, true
	case "record":
		return GenusRecord, true
	case "trait":
		return GenusTrait, true
	case "component":
		return GenusComponent, true
	}
	return GenusNone, false
}

// SymbolFlags encode symbol attributes for quick checks.
type SymbolFlags uint16

const (
	FlagPure SymbolFlags = 1 << iota
	FlagOpen
	FlagAbstract
	FlagOperator
	FlagConstructor
	FlagOverride
	FlagSynthetic
	FlagDefaulted
	FlagExtern
	FlagSubstituted
	FlagBuiltin
)

var flagLabels = []struct {
	flag  SymbolFlags
	label string
}{
	{FlagPure, "pure"},
	{FlagOpen, "open"},
	{FlagAbstract, "abstract"},
	{FlagOperator, "operator"},
	{FlagConstructor, "constructor"},
	{FlagOverride, "override"},
	{FlagSynthetic, "synthetic"},
	{FlagDefaulted, "defaulted"},
	{FlagExtern, "extern"},
	{FlagSubstituted, "substituted"},
	{FlagBuiltin, "builtin"},
}

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, l := range flagLabels {
		if f&l.flag != 0 {
			labels = append(labels, l.label)
		}
	}
	return labels
}

// Access is the declared visibility of a member.
type Access uint8

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "public"
	}
}

// TypeRef is the use-site form of a type: the resolved symbol plus the
// argument structure it was written with. Args stay meaningful even when Sym
// collapsed to a generic declaration because every argument was conceptual.
type TypeRef struct {
	Sym  SymbolID
	Args []TypeRef
}

// Ref wraps a plain symbol as a TypeRef without arguments.
func Ref(id SymbolID) TypeRef { return TypeRef{Sym: id} }

func (r TypeRef) IsValid() bool { return r.Sym.IsValid() }

// Equal compares structure, not just the resolved symbol.
func (r TypeRef) Equal(other TypeRef) bool {
	if r.Sym != other.Sym || len(r.Args) != len(other.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

func (r TypeRef) Clone() TypeRef {
	if len(r.Args) == 0 {
		return TypeRef{Sym: r.Sym}
	}
	args := make([]TypeRef, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.Clone()
	}
	return TypeRef{Sym: r.Sym, Args: args}
}

// Dependent records a generic-in-generic use made inside a generic
// declaration, e.g. `Iterator of T` inside `List of T`.
type Dependent struct {
	Ref  TypeRef
	Span source.Span
}

// Generic carries the parameterization data of a possibly generic symbol.
type Generic struct {
	// TypeParams are the conceptual placeholders of a declaration.
	TypeParams []SymbolID
	// TypeArgs are the bindings of an instantiation, positionally matching
	// the TypeParams of Origin.
	TypeArgs []SymbolID
	// Origin is the declaration this symbol was instantiated from.
	Origin     SymbolID
	Dependents []Dependent
}

func (g *Generic) clone() *Generic {
	if g == nil {
		return nil
	}
	return &Generic{
		TypeParams: slices.Clone(g.TypeParams),
		TypeArgs:   slices.Clone(g.TypeArgs),
		Origin:     g.Origin,
		Dependents: slices.Clone(g.Dependents),
	}
}

// Symbol is a named semantic entity. Aggregates own a member scope; methods
// and functions own parameter symbols.
type Symbol struct {
	ID      SymbolID
	Name    source.StringID
	Kind    SymbolKind
	Genus   Genus
	Flags   SymbolFlags
	Access  Access
	Span    source.Span
	Scope   ScopeID // enclosing scope
	Members ScopeID // own member scope (aggregates only)

	Type    TypeRef // fields and params
	Params  []SymbolID
	Returns TypeRef

	Super  TypeRef
	Traits []TypeRef

	Generic *Generic
}

// Has reports whether all bits of f are set.
func (s *Symbol) Has(f SymbolFlags) bool {
	return s != nil && s.Flags&f == f
}

// IsPlaceholder reports whether s is a conceptual type parameter such as T.
func (s *Symbol) IsPlaceholder() bool {
	return s != nil && s.Kind == SymbolType && s.Genus == GenusConceptual
}

// IsInstantiation reports whether s was produced from a generic declaration.
func (s *Symbol) IsInstantiation() bool {
	return s != nil && s.Generic != nil && s.Generic.Origin.IsValid()
}

// Clone makes a shallow structural copy suitable for re-parenting. The copy
// has no ID until it is stored in the arena.
func (s *Symbol) Clone() *Symbol {
	cp := *s
	cp.ID = NoSymbolID
	cp.Params = slices.Clone(s.Params)
	cp.Type = s.Type.Clone()
	cp.Returns = s.Returns.Clone()
	cp.Super = s.Super.Clone()
	if s.Traits != nil {
		cp.Traits = make([]TypeRef, len(s.Traits))
		for i, tr := range s.Traits {
			cp.Traits[i] = tr.Clone()
		}
	}
	cp.Generic = s.Generic.clone()
	return &cp
}
