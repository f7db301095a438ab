// Package naming computes the canonical name of a generic instantiation.
//
// Two requests for the same generic with the same arguments always produce the
// same name, which is what the instantiation registry memoizes on. A request
// whose arguments are all conceptual names the generic declaration itself.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"monogen/internal/symbols"
)

// ErrArgCount is returned when the arguments do not fit the open positions.
var ErrArgCount = errors.New("argument count does not match open positions")

// Base resolves generic to its declaration and fills the open positions of a
// partial instantiation with args. The returned slice is freshly allocated.
func Base(table *symbols.Table, generic symbols.SymbolID, args []symbols.SymbolID) (symbols.SymbolID, []symbols.SymbolID, error) {
	sym := table.Symbols.Get(generic)
	if sym == nil || sym.Generic == nil {
		return symbols.NoSymbolID, nil, fmt.Errorf("%d is not generic", generic)
	}
	if !sym.IsInstantiation() {
		if len(args) != len(sym.Generic.TypeParams) {
			return generic, nil, ErrArgCount
		}
		return generic, append([]symbols.SymbolID(nil), args...), nil
	}
	open := OpenPositions(table, generic)
	if len(args) != len(open) {
		return sym.Generic.Origin, nil, ErrArgCount
	}
	full := append([]symbols.SymbolID(nil), sym.Generic.TypeArgs...)
	for i, pos := range open {
		full[pos] = args[i]
	}
	return sym.Generic.Origin, full, nil
}

// OpenPositions lists the argument positions of a partial instantiation that
// are still bound to a placeholder.
func OpenPositions(table *symbols.Table, partial symbols.SymbolID) []int {
	sym := table.Symbols.Get(partial)
	if sym == nil || !sym.IsInstantiation() {
		return nil
	}
	var out []int
	for i, a := range sym.Generic.TypeArgs {
		if table.IsPlaceholder(a) {
			out = append(out, i)
		}
	}
	return out
}

// NameFor returns the canonical name for generic applied to args.
func NameFor(table *symbols.Table, generic symbols.SymbolID, args []symbols.SymbolID) (string, error) {
	base, full, err := Base(table, generic, args)
	if err != nil {
		return "", err
	}
	return ForBase(table, base, full), nil
}

// ForBase names a declaration applied to a complete argument list.
//
// The hash input is the declaration's qualified name followed by one token per
// argument: `?n` for a placeholder, n being the index where that placeholder
// first appears, and the qualified name of anything else. Equal placeholders
// thus share a token while distinct ones don't. A generic-in-nature argument
// (`Iterator of T` used inside another generic) contributes its own name, so
// `Dict of (Integer, Iterator of T)` and `Dict of (Integer, Node of T)` stay
// apart.
func ForBase(table *symbols.Table, base symbols.SymbolID, args []symbols.SymbolID) string {
	allConceptual := true
	for _, a := range args {
		if !table.IsConceptual(a) {
			allConceptual = false
			break
		}
	}
	if allConceptual {
		return table.Name(base)
	}

	var b strings.Builder
	b.WriteString(table.QualifiedName(base))
	for i, a := range args {
		b.WriteByte('_')
		if table.IsPlaceholder(a) {
			b.WriteByte('?')
			b.WriteString(strconv.Itoa(firstIndex(args, a, i)))
			continue
		}
		b.WriteString(table.QualifiedName(a))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "_" + table.Name(base) + "_" + strings.ToUpper(hex.EncodeToString(sum[:]))
}

func firstIndex(args []symbols.SymbolID, a symbols.SymbolID, upto int) int {
	for i := 0; i < upto; i++ {
		if args[i] == a {
			return i
		}
	}
	return upto
}
