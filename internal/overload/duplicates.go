package overload

import (
	"fmt"
	"strings"

	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Duplicate is a group of own methods of one aggregate whose signatures
// collide: same name, same parameter types.
type Duplicate struct {
	Name    string
	Methods []symbols.SymbolID
}

// Checker finds colliding signatures. Check is pure; Report emits diagnostics.
type Checker struct {
	table *symbols.Table
}

func NewChecker(table *symbols.Table) *Checker {
	return &Checker{table: table}
}

// Check groups the aggregate's own methods by signature. Inherited members are
// not considered. Groups come back in declaration order of their first member.
func (c *Checker) Check(agg symbols.SymbolID) []Duplicate {
	groups := map[string]int{}
	var out []Duplicate
	for _, m := range c.table.Methods(agg) {
		key := c.signatureKey(m)
		if idx, ok := groups[key]; ok {
			out[idx].Methods = append(out[idx].Methods, m)
			continue
		}
		groups[key] = len(out)
		out = append(out, Duplicate{Name: c.table.Name(m), Methods: []symbols.SymbolID{m}})
	}
	dups := out[:0]
	for _, d := range out {
		if len(d.Methods) > 1 {
			dups = append(dups, d)
		}
	}
	return dups
}

func (c *Checker) signatureKey(m symbols.SymbolID) string {
	var b strings.Builder
	b.WriteString(c.table.Name(m))
	for _, p := range c.table.ParamTypes(m) {
		fmt.Fprintf(&b, "|%d", p)
	}
	return b.String()
}

// Report emits one METHOD_DUPLICATED per colliding group at site, with a note
// at every declaration in the group. It returns the number of groups.
func (c *Checker) Report(agg symbols.SymbolID, site source.Span, r diag.Reporter) int {
	dups := c.Check(agg)
	for _, d := range dups {
		b := diag.ReportError(r, diag.SemaMethodDuplicated, site,
			fmt.Sprintf("method %q is duplicated in %s: %d declarations share the signature (%s)",
				d.Name, c.table.DisplayName(agg), len(d.Methods), c.paramList(d.Methods[0])))
		for _, m := range d.Methods {
			b.WithNote(c.table.Symbols.Get(m).Span, "declared here")
		}
		b.Emit()
	}
	return len(dups)
}

func (c *Checker) paramList(m symbols.SymbolID) string {
	params := c.table.ParamTypes(m)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = c.table.DisplayName(p)
	}
	return strings.Join(names, ", ")
}
