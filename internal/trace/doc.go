// Package trace records the timeline of a monogen run.
//
// A run opens one driver span, one pass span per pipeline phase and, from
// LevelDetail on, one instance span for every shell the registry populates.
// LevelDebug adds a point event per cloned member. Tracing is off by default
// and a disabled tracer costs one interface call per event site.
//
//	monogen check --trace=- --trace-level=detail program.yaml
//	monogen check --trace=run.chrome.json program.yaml
//
// Stream tracers write events as they happen (text, NDJSON or the Chrome
// trace event format). Ring tracers keep the last events in memory so the
// driver can dump them when an internal error aborts population.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	run := trace.Start(tracer, trace.ScopeDriver, "run", nil)
//	ctx = trace.WithSpan(ctx, run)
//	pass := trace.Start(tracer, trace.ScopePass, "instantiate", trace.SpanFromContext(ctx))
//	defer pass.End("")
package trace
