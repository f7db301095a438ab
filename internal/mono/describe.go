package mono

import (
	"fmt"
	"io"
	"strings"

	"monogen/internal/symbols"
)

// Describe writes a readable outline of a type or function: its header,
// ancestors and members with substituted signatures.
func Describe(w io.Writer, table *symbols.Table, id symbols.SymbolID) error {
	sym := table.Symbols.Get(id)
	if sym == nil {
		return fmt.Errorf("unknown symbol #%d", id)
	}

	var b strings.Builder
	header := sym.Kind.String()
	if sym.Kind.IsType() && sym.Genus != symbols.GenusNone {
		header = sym.Genus.String()
	}
	fmt.Fprintf(&b, "%s %s", header, table.DisplayName(id))
	if sym.IsInstantiation() {
		fmt.Fprintf(&b, " (%s)", table.Name(id))
	}
	if sym.Super.IsValid() {
		fmt.Fprintf(&b, " is %s", table.RefString(sym.Super))
	}
	if len(sym.Traits) > 0 {
		traits := make([]string, len(sym.Traits))
		for i, tr := range sym.Traits {
			traits[i] = table.RefString(tr)
		}
		fmt.Fprintf(&b, " with %s", strings.Join(traits, ", "))
	}
	if flags := sym.Flags.Strings(); len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, " "))
	}
	b.WriteByte('\n')

	if sym.Kind.IsFunction() {
		fmt.Fprintf(&b, "  %s\n", signature(table, sym))
	}
	for _, m := range table.Members(id) {
		member := table.Symbols.Get(m)
		switch member.Kind {
		case symbols.SymbolField:
			fmt.Fprintf(&b, "  field %s: %s\n", table.Name(m), table.RefString(member.Type))
		case symbols.SymbolMethod:
			kind := "method"
			switch {
			case member.Has(symbols.FlagConstructor):
				kind = "constructor"
			case member.Has(symbols.FlagOperator):
				kind = "operator"
			}
			fmt.Fprintf(&b, "  %s %s", kind, signature(table, member))
			if member.Has(symbols.FlagSynthetic) {
				b.WriteString(" [synthetic]")
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func signature(table *symbols.Table, fn *symbols.Symbol) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = table.Name(p) + ": " + table.RefString(table.Symbols.Get(p).Type)
	}
	ret := "Void"
	if fn.Returns.IsValid() {
		ret = table.RefString(fn.Returns)
	}
	return fmt.Sprintf("%s(%s): %s", table.Strings.MustLookup(fn.Name), strings.Join(params, ", "), ret)
}
