// Package overload scores argument-to-parameter assignability and uses the
// scores to pick methods, detect ambiguous calls and find signatures that
// collide once generic parameters are substituted.
package overload

import (
	"math"

	"monogen/internal/builtins"
	"monogen/internal/symbols"
)

// Cost constants of the matching model. Lower is better.
const (
	ExactCost    = 0.0
	SuperCost    = 0.05 // per superclass level
	TraitCost    = 0.10 // per trait hop
	CoercionCost = 0.5  // implicit promotion through #^
	TopCost      = 20.0 // anything to the universal top type
	NoMatch      = -1.0

	// Tolerance below which two candidate costs are considered equal.
	Tolerance = 0.001
)

// Scorer computes assignment costs over a symbol table. It never mutates the table.
type Scorer struct {
	table *symbols.Table
	types *builtins.Cache
}

func NewScorer(table *symbols.Table, types *builtins.Cache) *Scorer {
	return &Scorer{table: table, types: types}
}

// Cost returns the cost of passing a value of type from where to is expected,
// or NoMatch.
func (s *Scorer) Cost(from, to symbols.SymbolID) float64 {
	if !from.IsValid() || !to.IsValid() {
		return NoMatch
	}
	if from == to {
		return ExactCost
	}
	if c := s.hierarchyCost(from, to, map[symbols.SymbolID]bool{}); c >= 0 {
		return c
	}
	if c := s.parameterizedCost(from, to); c >= 0 {
		return c
	}
	if s.types.IsTop(to) {
		return TopCost
	}
	if s.promotes(from, to) {
		return CoercionCost
	}
	return NoMatch
}

// hierarchyCost finds the cheapest path from `from` up to `to` through
// superclasses and traits.
func (s *Scorer) hierarchyCost(from, to symbols.SymbolID, visiting map[symbols.SymbolID]bool) float64 {
	if from == to {
		return ExactCost
	}
	if visiting[from] {
		return NoMatch
	}
	sym := s.table.Symbols.Get(from)
	if sym == nil {
		return NoMatch
	}
	visiting[from] = true
	defer delete(visiting, from)

	best := NoMatch
	consider := func(step float64, next symbols.SymbolID) {
		if !next.IsValid() {
			return
		}
		if c := s.hierarchyCost(next, to, visiting); c >= 0 {
			if total := step + c; best < 0 || total < best {
				best = total
			}
		}
	}
	consider(SuperCost, sym.Super.Sym)
	for _, tr := range sym.Traits {
		consider(TraitCost, tr.Sym)
	}
	if best >= 0 {
		best = math.Round(best*1000) / 1000
	}
	return best
}

// parameterizedCost scores two instantiations of the same generic by the sum
// of their argument costs.
func (s *Scorer) parameterizedCost(from, to symbols.SymbolID) float64 {
	fs, ts := s.table.Symbols.Get(from), s.table.Symbols.Get(to)
	if !fs.IsInstantiation() || !ts.IsInstantiation() || fs.Generic.Origin != ts.Generic.Origin {
		return NoMatch
	}
	if len(fs.Generic.TypeArgs) != len(ts.Generic.TypeArgs) {
		return NoMatch
	}
	total := ExactCost
	for i := range fs.Generic.TypeArgs {
		c := s.Cost(fs.Generic.TypeArgs[i], ts.Generic.TypeArgs[i])
		if c < 0 {
			return NoMatch
		}
		total += c
	}
	return total
}

func (s *Scorer) promotes(from, to symbols.SymbolID) bool {
	sym := s.table.Symbols.Get(from)
	if sym == nil || !sym.Members.IsValid() {
		return false
	}
	for _, id := range s.table.Lookup(sym.Members, builtins.PromoteOperator) {
		if op := s.table.Symbols.Get(id); op.Returns.Sym == to && len(op.Params) == 0 {
			return true
		}
	}
	return false
}

// Equal reports whether two costs are within Tolerance.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}
