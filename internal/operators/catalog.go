package operators

import "monogen/internal/builtins"

// Shape describes the parameter list of a synthesized operator.
type Shape uint8

const (
	// ShapeSimple operators take no arguments (`?`, `$`, `abs`).
	ShapeSimple Shape = iota
	// ShapeSameType operators take one argument of the owning type.
	ShapeSameType
)

// ResultKind describes how the return type is derived.
type ResultKind uint8

const (
	// ResultBuiltin returns the named built-in type.
	ResultBuiltin ResultKind = iota
	// ResultSame returns the owning aggregate.
	ResultSame
	// ResultVoid has no value.
	ResultVoid
)

// Spec is one entry of the operator catalog.
type Spec struct {
	Name    string
	Shape   Shape
	Result  ResultKind
	Builtin string // for ResultBuiltin
	Pure    bool
	// Defaultable operators may be requested with `default operator`.
	Defaultable bool
}

func comparison(name, result string) Spec {
	return Spec{Name: name, Shape: ShapeSameType, Result: ResultBuiltin, Builtin: result, Pure: true, Defaultable: true}
}

func simple(name, result string) Spec {
	return Spec{Name: name, Shape: ShapeSimple, Result: ResultBuiltin, Builtin: result, Pure: true}
}

func sameTypeTo(name, result string) Spec {
	return Spec{Name: name, Shape: ShapeSameType, Result: ResultBuiltin, Builtin: result, Pure: true}
}

func returnsSelf(name string) Spec {
	return Spec{Name: name, Shape: ShapeSimple, Result: ResultSame, Pure: true}
}

func combine(name string, pure bool) Spec {
	return Spec{Name: name, Shape: ShapeSameType, Result: ResultSame, Pure: pure}
}

// defaultCatalog lists operators that can be defaulted, in declaration order.
var defaultCatalog = []Spec{
	comparison("<", builtins.Boolean),
	comparison("<=", builtins.Boolean),
	comparison(">", builtins.Boolean),
	comparison(">=", builtins.Boolean),
	comparison("==", builtins.Boolean),
	comparison("<>", builtins.Boolean),
	comparison("<=>", builtins.Integer),
	{Name: "?", Shape: ShapeSimple, Result: ResultBuiltin, Builtin: builtins.Boolean, Pure: true, Defaultable: true},
	{Name: "$", Shape: ShapeSimple, Result: ResultBuiltin, Builtin: builtins.String, Pure: true, Defaultable: true},
	{Name: "$$", Shape: ShapeSimple, Result: ResultBuiltin, Builtin: builtins.JSON, Pure: true, Defaultable: true},
	{Name: "#?", Shape: ShapeSimple, Result: ResultBuiltin, Builtin: builtins.Integer, Pure: true, Defaultable: true},
}

// extraCatalog holds operators a conceptual placeholder supports on top of the defaults.
// The promotion operator #^ is never synthesized.
var extraCatalog = []Spec{
	returnsSelf("#<"),
	returnsSelf("#>"),
	returnsSelf("~"),
	returnsSelf("abs"),
	simple("empty", builtins.Boolean),
	simple("length", builtins.Integer),
	combine(">>", true),
	combine("<<", true),
	combine("and", true),
	combine("or", true),
	combine("xor", true),
	sameTypeTo("mod", builtins.Integer),
	sameTypeTo("rem", builtins.Integer),
	sameTypeTo("contains", builtins.Boolean),
	sameTypeTo("matches", builtins.Boolean),
	{Name: "close", Shape: ShapeSimple, Result: ResultVoid, Pure: true},
	combine("+", true),
	combine("-", true),
	combine("*", true),
	combine("/", true),
	combine(":~:", false),
	combine(":^:", false),
	combine(":=:", false),
	combine("|", false),
	combine("+=", false),
	combine("-=", false),
	combine("*=", false),
	combine("/=", false),
	combine("++", false),
	combine("--", false),
	sameTypeTo("<~>", builtins.Integer),
}

var defaultIndex = func() map[string]Spec {
	m := make(map[string]Spec, len(defaultCatalog))
	for _, s := range defaultCatalog {
		m[s.Name] = s
	}
	return m
}()

// LookupDefault returns the catalog entry of a defaultable operator.
func LookupDefault(name string) (Spec, bool) {
	s, ok := defaultIndex[name]
	return s, ok
}

// DefaultNames lists every operator that supports `default operator`.
func DefaultNames() []string {
	out := make([]string, len(defaultCatalog))
	for i, s := range defaultCatalog {
		out[i] = s.Name
	}
	return out
}
