package overload

import (
	"fmt"
	"strings"

	"monogen/internal/diag"
	"monogen/internal/source"
	"monogen/internal/symbols"
)

// Resolver selects the method for a call and reports unresolved or ambiguous calls.
type Resolver struct {
	scorer   *Scorer
	table    *symbols.Table
	reporter diag.Reporter
}

func NewResolver(scorer *Scorer, reporter diag.Reporter) *Resolver {
	return &Resolver{scorer: scorer, table: scorer.table, reporter: reporter}
}

// ResolveCall picks the method for `agg.name(args...)`. On ambiguity it
// reports METHOD_AMBIGUOUS and returns false.
func (r *Resolver) ResolveCall(agg symbols.SymbolID, name string, args []symbols.SymbolID, site source.Span) (symbols.SymbolID, bool) {
	res := r.scorer.Search(agg, name, args)
	return r.pick(res, r.table.DisplayName(agg)+"."+name, args, site)
}

// ResolveFunction picks a free function named name in scope.
func (r *Resolver) ResolveFunction(scope symbols.ScopeID, name string, args []symbols.SymbolID, site source.Span) (symbols.SymbolID, bool) {
	res := r.scorer.SearchScope(scope, name, args)
	return r.pick(res, name, args, site)
}

// ResolveInstance checks that an already selected function, typically a
// generic function instantiation, accepts args.
func (r *Resolver) ResolveInstance(fn symbols.SymbolID, args []symbols.SymbolID, site source.Span) (symbols.SymbolID, bool) {
	res := SearchResult{Name: r.table.Name(fn), Candidates: r.scorer.score([]symbols.SymbolID{fn}, args)}
	return r.pick(res, r.table.DisplayName(fn), args, site)
}

func (r *Resolver) pick(res SearchResult, what string, args []symbols.SymbolID, site source.Span) (symbols.SymbolID, bool) {
	best, ok := res.Best()
	if !ok {
		diag.ReportError(r.reporter, diag.SemaMethodNotResolved, site,
			fmt.Sprintf("no %s accepts (%s)", what, r.argList(args))).
			Emit()
		return symbols.NoSymbolID, false
	}
	if res.Ambiguous() {
		b := diag.ReportError(r.reporter, diag.SemaMethodAmbiguous, site,
			fmt.Sprintf("call %s(%s) is ambiguous: candidates match at cost %.2f",
				what, r.argList(args), best.Cost))
		for _, c := range res.AmbiguousCandidates() {
			b.WithNote(r.table.Symbols.Get(c.Method).Span,
				fmt.Sprintf("candidate %s(%s)", r.table.QualifiedName(c.Method), r.argList(r.table.ParamTypes(c.Method))))
		}
		b.Emit()
		return symbols.NoSymbolID, false
	}
	return best.Method, true
}

func (r *Resolver) argList(args []symbols.SymbolID) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = r.table.DisplayName(a)
	}
	return strings.Join(names, ", ")
}
