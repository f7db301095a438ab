package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"monogen/internal/builtins"
	"monogen/internal/diag"
	"monogen/internal/mono"
	"monogen/internal/observ"
	"monogen/internal/program"
	"monogen/internal/project"
	"monogen/internal/source"
	"monogen/internal/symbols"
	"monogen/internal/trace"
)

// Options configure a run.
type Options struct {
	// Paths are program files or directories. When empty the manifest found
	// from Dir decides.
	Paths          []string
	Dir            string
	Jobs           int
	MaxDiagnostics int
	NoCache        bool
	CacheDir       string
	Timings        bool

	Tracer    trace.Tracer
	Heartbeat time.Duration
	// CrashDump receives the trace ring buffer when an internal error occurs.
	CrashDump io.Writer
	Observer  PhaseObserver
	Progress  ProgressSink
}

// Result is everything a run produced.
type Result struct {
	Inputs    *Inputs
	Files     *source.FileSet
	Table     *symbols.Table
	Registry  *mono.Registry
	Instances *mono.InstantiationMap
	Units     []*program.Unit
	Bag       *diag.Bag
	Timer     *observ.Timer
	Key       project.Digest
	// Snapshot is set when the run was clean and the cache is enabled.
	Snapshot *Snapshot
	// Fatal joins the internal errors raised during the run.
	Fatal error
}

// Exit status of a run.
const (
	ExitOK       = 0
	ExitErrors   = 1
	ExitInternal = 3
)

// Release drops the per-table caches held for the run's symbol table.
func (r *Result) Release() {
	if r != nil && r.Table != nil {
		builtins.Release(r.Table)
	}
}

// ExitCode maps the outcome to the process exit status.
func (r *Result) ExitCode() int {
	switch {
	case r == nil:
		return ExitErrors
	case r.Fatal != nil || r.Bag.HasInternal():
		return ExitInternal
	case r.Bag.HasErrors():
		return ExitErrors
	}
	return ExitOK
}

type runner struct {
	opts   Options
	tracer trace.Tracer
	root   *trace.Span
	timer  *observ.Timer
}

// Run loads the program files, instantiates every requested generic and
// checks every call. Operational failures (unreadable manifest, cancelled
// context) are returned as errors; problems in the programs are diagnostics
// in Result.Bag.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	r := &runner{opts: opts, tracer: opts.Tracer, timer: observ.NewTimer()}
	r.root = trace.Start(r.tracer, trace.ScopeDriver, "run", trace.SpanFromContext(ctx))
	ctx = trace.WithSpan(trace.WithTracer(ctx, r.tracer), r.root)

	res, err := r.run(ctx)
	detail := "ok"
	if err != nil {
		detail = err.Error()
	} else if code := res.ExitCode(); code != ExitOK {
		detail = fmt.Sprintf("exit %d", code)
	}
	r.root.End(detail)
	return res, err
}

func (r *runner) run(ctx context.Context) (*Result, error) {
	inputs, err := ResolveInputs(&r.opts)
	if err != nil {
		return nil, err
	}
	jobs := r.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bag := diag.NewBag(r.opts.MaxDiagnostics)
	reporter := diag.NewLockedReporter(diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
	table := symbols.NewTable(symbols.Hints{Symbols: 256, Scopes: 64}, nil)
	instances := mono.NewInstantiationMap()
	reg := mono.NewRegistry(table, mono.Options{
		Reporter: reporter,
		Recorder: instances,
		Tracer:   r.tracer,
	})
	loader := program.NewLoader(table, reg, reporter)
	hb := trace.StartHeartbeat(r.tracer, r.opts.Heartbeat, func() string {
		return fmt.Sprintf("%d shells", reg.Len())
	})
	defer hb.Stop()

	res := &Result{
		Inputs:    inputs,
		Files:     source.NewFileSetWithBase(inputs.Root),
		Table:     table,
		Registry:  reg,
		Instances: instances,
		Bag:       bag,
		Timer:     r.timer,
	}
	if len(inputs.Files) == 0 {
		diag.ReportError(reporter, diag.ProjNoSources, source.Span{},
			fmt.Sprintf("no program files under %s", inputs.Root)).Emit()
		return res, nil
	}

	var docs []*program.Document
	err = r.phase("load", func() (string, error) {
		var loadErr error
		docs, loadErr = r.load(ctx, res, reporter, jobs)
		return fmt.Sprintf("%d files", len(inputs.Files)), loadErr
	})
	if err != nil {
		return res, err
	}
	res.Key = inputKey(inputs, res.Files)

	_ = r.phase("define", func() (string, error) {
		for i, f := range res.Files.Files() {
			if docs[i] != nil {
				loader.Define(f, docs[i])
			}
		}
		res.Units = loader.Units()
		return fmt.Sprintf("%d units", len(res.Units)), nil
	})
	_ = r.phase("prepare", func() (string, error) {
		loader.Prepare()
		return "", nil
	})
	err = r.phase("instantiate", func() (string, error) {
		err := r.forEachUnit(ctx, res.Units, jobs, StageInstantiate, func(u *program.Unit) bool {
			loader.Instantiate(u)
			return allInstancesOK(u)
		})
		return fmt.Sprintf("%d shells", reg.Len()), err
	})
	if err != nil {
		return res, err
	}
	err = r.phase("calls", func() (string, error) {
		return "", r.forEachUnit(ctx, res.Units, jobs, StageCalls, func(u *program.Unit) bool {
			loader.CheckCalls(u)
			return allCallsOK(u)
		})
	})
	if err != nil {
		return res, err
	}

	if fatal := reg.Err(); fatal != nil {
		res.Fatal = fatal
		r.dumpRing()
	}
	bag.Sort()
	bag.Dedup()

	if !r.opts.NoCache && !bag.HasErrors() && res.Fatal == nil {
		_ = r.phase("snapshot", func() (string, error) {
			cache, err := OpenSnapshotCache("monogen", r.opts.CacheDir)
			if err != nil {
				return "cache unavailable", nil
			}
			snap := NewSnapshot(res.Key, inputs.Package, inputs.Files, reg)
			if err := cache.Put(snap); err != nil {
				return "write failed: " + err.Error(), nil
			}
			res.Snapshot = snap
			return snap.RunID.String(), nil
		})
	}

	if r.opts.Timings {
		appendTimingDiagnostic(bag, timingPayload{Kind: "run", Path: inputs.Root, Report: r.timer.Report()})
	}
	return res, nil
}

// load reads every input into the file set and decodes the documents in
// parallel. docs[i] is nil when file i could not be used.
func (r *runner) load(ctx context.Context, res *Result, reporter diag.Reporter, jobs int) ([]*program.Document, error) {
	files := make([]*source.File, 0, len(res.Inputs.Files))
	for _, path := range res.Inputs.Files {
		id, err := res.Files.Load(path)
		if err != nil {
			id = res.Files.AddVirtual(path, nil)
			diag.ReportError(reporter, diag.IOLoadFileError, source.Span{File: id},
				"failed to load file: "+err.Error()).Emit()
		}
		files = append(files, res.Files.Get(id))
	}

	docs := make([]*program.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, f := range files {
		if len(f.Content) == 0 && f.Flags&source.FileVirtual != 0 {
			r.progress(Event{File: f.Path, Stage: StageParse, Status: StatusError})
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r.progress(Event{File: f.Path, Stage: StageParse, Status: StatusWorking})
			doc, err := program.Parse(bytes.NewReader(f.Content))
			if err != nil {
				diag.ReportError(reporter, diag.SynMalformedDocument, firstLine(f), err.Error()).Emit()
				r.progress(Event{File: f.Path, Stage: StageParse, Status: StatusError, Err: err, Elapsed: time.Since(start)})
				return nil
			}
			docs[i] = doc
			r.progress(Event{File: f.Path, Stage: StageParse, Status: StatusWorking, Elapsed: time.Since(start)})
			return nil
		})
	}
	return docs, g.Wait()
}

// forEachUnit runs fn over the units on at most jobs goroutines. fn reports
// whether the unit came through its stage cleanly.
func (r *runner) forEachUnit(ctx context.Context, units []*program.Unit, jobs int, stage Stage, fn func(*program.Unit) bool) error {
	if len(units) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r.progress(Event{File: u.File.Path, Stage: stage, Status: StatusWorking})
			status := StatusWorking
			if !fn(u) {
				status = StatusError
			} else if stage == StageCalls {
				status = StatusDone
			}
			r.progress(Event{File: u.File.Path, Stage: stage, Status: status, Elapsed: time.Since(start)})
			return nil
		})
	}
	return g.Wait()
}

func allInstancesOK(u *program.Unit) bool {
	for _, inst := range u.Instances {
		if !inst.OK {
			return false
		}
	}
	return true
}

func allCallsOK(u *program.Unit) bool {
	for _, c := range u.Calls {
		if !c.OK {
			return false
		}
	}
	return true
}

func (r *runner) phase(name string, fn func() (string, error)) error {
	r.progress(Event{Stage: Stage(name), Status: StatusWorking})
	span := trace.Start(r.tracer, trace.ScopePass, name, r.root)
	idx := r.timer.Begin(name)
	r.observe(PhaseEvent{Name: name, Status: PhaseStart})
	start := time.Now()

	note, err := fn()
	if err != nil && note == "" {
		note = err.Error()
	}
	r.timer.End(idx, note)
	span.End(note)
	r.observe(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	return err
}

func (r *runner) observe(ev PhaseEvent) {
	if r.opts.Observer != nil {
		r.opts.Observer(ev)
	}
}

func (r *runner) dumpRing() {
	if r.opts.CrashDump == nil {
		return
	}
	ring := trace.FindRing(r.tracer)
	if ring == nil {
		return
	}
	fmt.Fprintln(r.opts.CrashDump, "== trace ring buffer ==")
	_ = ring.Dump(r.opts.CrashDump, trace.FormatText)
}

// firstLine spans the first line of f, so file-level diagnostics still carry
// a position.
func firstLine(f *source.File) source.Span {
	end := len(f.Content)
	if i := bytes.IndexByte(f.Content, '\n'); i >= 0 {
		end = i
	}
	n, err := safecast.Conv[uint32](end)
	if err != nil {
		return source.Span{File: f.ID}
	}
	return source.Span{File: f.ID, End: n}
}
