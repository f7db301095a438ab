package overload

import (
	"slices"
	"sort"

	"monogen/internal/symbols"
)

// Candidate is a method considered for a call together with its total cost.
type Candidate struct {
	Method symbols.SymbolID
	Cost   float64
}

// SearchResult holds the viable candidates for one call, cheapest first.
type SearchResult struct {
	Name       string
	Candidates []Candidate
}

// Best returns the cheapest candidate.
func (r SearchResult) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Ambiguous reports whether the two cheapest candidates cost the same.
func (r SearchResult) Ambiguous() bool {
	return len(r.Candidates) > 1 && Equal(r.Candidates[0].Cost, r.Candidates[1].Cost)
}

// AmbiguousCandidates returns every candidate tied with the best one.
func (r SearchResult) AmbiguousCandidates() []Candidate {
	if !r.Ambiguous() {
		return nil
	}
	best := r.Candidates[0].Cost
	out := []Candidate{}
	for _, c := range r.Candidates {
		if !Equal(c.Cost, best) {
			break
		}
		out = append(out, c)
	}
	return out
}

// Search finds methods named name callable on agg with args, including the
// ones inherited through superclasses and traits. An inherited method whose
// parameters match one already collected is treated as overridden.
func (s *Scorer) Search(agg symbols.SymbolID, name string, args []symbols.SymbolID) SearchResult {
	res := SearchResult{Name: name}
	var collected []symbols.SymbolID
	seen := map[symbols.SymbolID]bool{}
	queue := []symbols.SymbolID{agg}
	for depth := 0; len(queue) > 0; depth++ {
		shallower := len(collected)
		next := []symbols.SymbolID(nil)
		for _, owner := range queue {
			if seen[owner] {
				continue
			}
			seen[owner] = true
			sym := s.table.Symbols.Get(owner)
			if sym == nil {
				continue
			}
			for _, m := range s.table.Lookup(sym.Members, name) {
				ms := s.table.Symbols.Get(m)
				if ms.Kind != symbols.SymbolMethod {
					continue
				}
				if depth > 0 && (ms.Access == symbols.AccessPrivate || ms.Has(symbols.FlagConstructor)) {
					continue
				}
				if s.overridden(collected[:shallower], m) {
					continue
				}
				collected = append(collected, m)
			}
			if sym.Super.IsValid() {
				next = append(next, sym.Super.Sym)
			}
			for _, tr := range sym.Traits {
				next = append(next, tr.Sym)
			}
		}
		queue = next
	}
	res.Candidates = s.score(collected, args)
	return res
}

// SearchScope finds free functions named name in scope.
func (s *Scorer) SearchScope(scope symbols.ScopeID, name string, args []symbols.SymbolID) SearchResult {
	var fns []symbols.SymbolID
	for _, id := range s.table.Lookup(scope, name) {
		if s.table.Symbols.Get(id).Kind == symbols.SymbolFunction {
			fns = append(fns, id)
		}
	}
	return SearchResult{Name: name, Candidates: s.score(fns, args)}
}

func (s *Scorer) score(methods []symbols.SymbolID, args []symbols.SymbolID) []Candidate {
	var out []Candidate
	for _, m := range methods {
		params := s.table.ParamTypes(m)
		if len(params) != len(args) {
			continue
		}
		total := ExactCost
		ok := true
		for i := range params {
			c := s.Cost(args[i], params[i])
			if c < 0 {
				ok = false
				break
			}
			total += c
		}
		if ok {
			out = append(out, Candidate{Method: m, Cost: total})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost < out[j].Cost })
	return out
}

func (s *Scorer) overridden(collected []symbols.SymbolID, m symbols.SymbolID) bool {
	params := s.table.ParamTypes(m)
	for _, c := range collected {
		if slices.Equal(s.table.ParamTypes(c), params) {
			return true
		}
	}
	return false
}
