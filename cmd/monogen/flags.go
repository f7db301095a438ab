package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"monogen/internal/diagfmt"
	"monogen/internal/driver"
)

type globalFlags struct {
	color          string
	format         string
	pathMode       string
	ui             string
	jobs           int
	maxDiagnostics int
	timings        bool
	noCache        bool
	cacheDir       string
	withNotes      bool

	traceOutput    string
	traceLevel     string
	traceMode      string
	traceRingSize  int
	traceHeartbeat time.Duration

	// resolved in apply
	paths  diagfmt.PathMode
	uiMode uiMode
}

func (g *globalFlags) register(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&g.color, "color", "auto", "colorize output (auto|on|off)")
	f.StringVar(&g.format, "format", "pretty", "output format (pretty|json)")
	f.StringVar(&g.pathMode, "path-mode", "auto", "how file paths are printed (auto|absolute|relative|basename)")
	f.StringVar(&g.ui, "ui", "auto", "progress view (auto|on|off)")
	f.IntVar(&g.jobs, "jobs", 0, "max parallel workers (0=manifest or GOMAXPROCS)")
	f.IntVar(&g.maxDiagnostics, "max-diagnostics", 0, "maximum number of diagnostics to keep (0=manifest or unlimited)")
	f.BoolVar(&g.timings, "timings", false, "show timing information")
	f.BoolVar(&g.noCache, "no-cache", false, "neither read nor write the snapshot cache")
	f.StringVar(&g.cacheDir, "cache-dir", "", "snapshot cache directory")
	f.BoolVar(&g.withNotes, "with-notes", true, "include diagnostic notes in output")

	f.StringVar(&g.traceOutput, "trace", "", "trace output file (- for stderr)")
	f.StringVar(&g.traceLevel, "trace-level", "off", "trace level (off|error|phase|detail|debug)")
	f.StringVar(&g.traceMode, "trace-mode", "ring", "trace storage (stream|ring|both)")
	f.IntVar(&g.traceRingSize, "trace-ring-size", 4096, "events kept by the ring buffer")
	f.DurationVar(&g.traceHeartbeat, "trace-heartbeat", 0, "emit a heartbeat event at this interval (0=off)")
}

func (g *globalFlags) apply(cmd *cobra.Command) error {
	switch strings.ToLower(g.color) {
	case "auto":
		// fatih/color already looked at the terminal and NO_COLOR
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", g.color)
	}

	switch g.format {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", g.format)
	}

	mode, ok := diagfmt.ParsePathMode(g.pathMode)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", g.pathMode)
	}
	g.paths = mode

	ui, err := parseUIMode(g.ui)
	if err != nil {
		return err
	}
	g.uiMode = ui

	if g.jobs < 0 || g.maxDiagnostics < 0 {
		return fmt.Errorf("--jobs and --max-diagnostics must not be negative")
	}
	return nil
}

// driverOptions builds run options from the flags. The returned cleanup
// flushes and closes the tracer and must always be called.
func (g *globalFlags) driverOptions(cmd *cobra.Command, paths []string) (driver.Options, func(), error) {
	dir, err := os.Getwd()
	if err != nil {
		return driver.Options{}, func() {}, err
	}
	tracer, cleanup, err := setupTracing(cmd, g)
	if err != nil {
		return driver.Options{}, func() {}, err
	}
	opts := driver.Options{
		Paths:          paths,
		Dir:            dir,
		Jobs:           g.jobs,
		MaxDiagnostics: g.maxDiagnostics,
		NoCache:        g.noCache,
		CacheDir:       g.cacheDir,
		Timings:        g.timings,
		Tracer:         tracer,
		Heartbeat:      g.traceHeartbeat,
		CrashDump:      cmd.ErrOrStderr(),
	}
	return opts, cleanup, nil
}
