package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"monogen/internal/trace"
)

// setupTracing builds the tracer requested by the trace flags and attaches it
// to the command context. The cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, g *globalFlags) (trace.Tracer, func(), error) {
	level, err := trace.ParseLevel(g.traceLevel)
	if err != nil {
		return nil, nil, err
	}
	if level == trace.LevelOff && g.traceOutput == "" {
		return trace.Nop, func() {}, nil
	}
	if level == trace.LevelOff {
		// an output file without a level means the phase view
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(g.traceMode)
	if err != nil {
		return nil, nil, err
	}
	if g.traceOutput != "" && mode == trace.ModeRing {
		mode = trace.ModeBoth
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: g.traceOutput,
		RingSize:   g.traceRingSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
