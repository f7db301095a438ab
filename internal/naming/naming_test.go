package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"monogen/internal/source"
	"monogen/internal/symbols"
)

type world struct {
	table   *symbols.Table
	app     symbols.ScopeID
	integer symbols.SymbolID
	date    symbols.SymbolID
}

func newWorld() *world {
	table := symbols.NewTable(symbols.Hints{}, nil)
	lang := table.ModuleRoot("lang")
	return &world{
		table:   table,
		app:     table.ModuleRoot("app"),
		integer: table.NewAggregate(lang, "Integer", symbols.SymbolType, symbols.GenusBuiltin, source.Span{}),
		date:    table.NewAggregate(lang, "Date", symbols.SymbolType, symbols.GenusBuiltin, source.Span{}),
	}
}

func (w *world) generic(name string, params ...string) (symbols.SymbolID, []symbols.SymbolID) {
	id := w.table.NewAggregate(w.app, name, symbols.SymbolTemplateType, symbols.GenusClass, source.Span{})
	sym := w.table.Symbols.Get(id)
	sym.Generic = &symbols.Generic{}
	for _, p := range params {
		ph := w.table.NewAggregate(sym.Members, p, symbols.SymbolType, symbols.GenusConceptual, source.Span{})
		sym.Generic.TypeParams = append(sym.Generic.TypeParams, ph)
	}
	return id, sym.Generic.TypeParams
}

func (w *world) partial(origin symbols.SymbolID, args ...symbols.SymbolID) symbols.SymbolID {
	id := w.table.NewAggregate(w.app, ForBase(w.table, origin, args), symbols.SymbolTemplateType, symbols.GenusClass, source.Span{})
	w.table.Symbols.Get(id).Generic = &symbols.Generic{Origin: origin, TypeArgs: args}
	return id
}

func mustName(t *testing.T, w *world, generic symbols.SymbolID, args ...symbols.SymbolID) string {
	t.Helper()
	name, err := NameFor(w.table, generic, args)
	if err != nil {
		t.Fatalf("NameFor: %v", err)
	}
	return name
}

func TestOwnTypeParameterNamesTheGeneric(t *testing.T) {
	w := newWorld()
	g, params := w.generic("aGenericType", "T")
	if got := mustName(t, w, g, params...); got != "aGenericType" {
		t.Fatalf("got %q", got)
	}
}

func TestOuterConceptualArgumentsNameTheGeneric(t *testing.T) {
	w := newWorld()
	g, _ := w.generic("aGenericType", "S", "T")
	_, outer := w.generic("outerGenericType", "U", "V")
	if got := mustName(t, w, g, outer...); got != "aGenericType" {
		t.Fatalf("got %q", got)
	}
}

func TestConcreteArgumentsHash(t *testing.T) {
	w := newWorld()
	g, _ := w.generic("aGenericType", "S", "T")

	intDate := mustName(t, w, g, w.integer, w.date)
	dateInt := mustName(t, w, g, w.date, w.integer)
	if intDate == dateInt {
		t.Fatalf("argument order must change the name")
	}
	sum := sha256.Sum256([]byte("app::aGenericType_lang::Integer_lang::Date"))
	want := "_aGenericType_" + strings.ToUpper(hex.EncodeToString(sum[:]))
	if intDate != want {
		t.Fatalf("got %q, want %q", intDate, want)
	}
	if again := mustName(t, w, g, []symbols.SymbolID{w.integer, w.date}...); again != intDate {
		t.Fatalf("name is not deterministic")
	}
}

func TestConceptualPositionsAreDistinguished(t *testing.T) {
	w := newWorld()
	g, _ := w.generic("aGenericType", "A", "B", "C")
	_, outer := w.generic("outer", "P", "Q")
	_, other := w.generic("other", "R")
	p, q, r := outer[0], outer[1], other[0]

	tInt := mustName(t, w, g, p, w.integer, w.integer)
	intT := mustName(t, w, g, w.integer, p, w.integer)
	if tInt == intT {
		t.Fatalf("(T, Integer) and (Integer, T) must differ")
	}
	if renamed := mustName(t, w, g, r, w.integer, w.integer); renamed != tInt {
		t.Fatalf("placeholder identity must not matter: %q vs %q", renamed, tInt)
	}
	same := mustName(t, w, g, p, p, w.integer)
	distinct := mustName(t, w, g, p, q, w.integer)
	if same == distinct {
		t.Fatalf("(P, P, Integer) and (P, Q, Integer) must differ")
	}
}

func TestPartialTraversesToBase(t *testing.T) {
	w := newWorld()
	pair, _ := w.generic("Pair", "K", "V")
	_, outer := w.generic("Outer", "X")
	partial := w.partial(pair, outer[0], w.integer)

	viaPartial := mustName(t, w, partial, w.date)
	direct := mustName(t, w, pair, w.date, w.integer)
	if viaPartial != direct {
		t.Fatalf("partial path %q differs from direct %q", viaPartial, direct)
	}
	if got := OpenPositions(w.table, partial); len(got) != 1 || got[0] != 0 {
		t.Fatalf("OpenPositions = %v", got)
	}
}

func TestArgCountMismatch(t *testing.T) {
	w := newWorld()
	pair, _ := w.generic("Pair", "K", "V")
	for _, args := range [][]symbols.SymbolID{{w.integer}, {w.integer, w.integer, w.integer}} {
		if _, err := NameFor(w.table, pair, args); !errors.Is(err, ErrArgCount) {
			t.Fatalf("expected ErrArgCount for %d args, got %v", len(args), err)
		}
	}
	if _, err := NameFor(w.table, w.integer, []symbols.SymbolID{w.date}); err == nil {
		t.Fatalf("non-generic must be rejected")
	}
}

func TestGenericArgumentsKeepTheirIdentity(t *testing.T) {
	w := newWorld()
	dict, _ := w.generic("Dict", "K", "V")
	iterator, _ := w.generic("Iterator", "T")
	node, _ := w.generic("Node", "T")

	viaIterator := mustName(t, w, dict, w.integer, iterator)
	viaNode := mustName(t, w, dict, w.integer, node)
	if viaIterator == viaNode {
		t.Fatalf("(Integer, Iterator) and (Integer, Node) share %q", viaIterator)
	}
	sum := sha256.Sum256([]byte("app::Dict_lang::Integer_app::Iterator"))
	if want := "_Dict_" + strings.ToUpper(hex.EncodeToString(sum[:])); viaIterator != want {
		t.Fatalf("got %q, want %q", viaIterator, want)
	}

	_, outer := w.generic("Holder", "X")
	pair, _ := w.generic("Pair", "A", "B")
	p1 := w.partial(pair, w.integer, outer[0])
	p2 := w.partial(pair, w.date, outer[0])
	if mustName(t, w, dict, w.integer, p1) == mustName(t, w, dict, w.integer, p2) {
		t.Fatalf("distinct partial instantiations must name distinct shells")
	}
}
