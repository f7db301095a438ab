package main

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"monogen/internal/driver"
	"monogen/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs the driver in the background while the progress view
// consumes its events.
func runWithUI(ctx context.Context, title string, opts driver.Options) (*driver.Result, error) {
	resolved := opts
	inputs, err := driver.ResolveInputs(&resolved)
	if err != nil {
		return nil, err
	}
	// keyed the way the file set stores paths
	files := make([]string, len(inputs.Files))
	for i, f := range inputs.Files {
		files[i] = filepath.ToSlash(filepath.Clean(f))
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, opts)
		close(events)
		outcomeCh <- runOutcome{result: res, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// run executes the driver, with the progress view when it is enabled.
func (g *globalFlags) run(ctx context.Context, title string, opts driver.Options) (*driver.Result, error) {
	if progressView(g.uiMode, g.format, processUIEnv()) {
		return runWithUI(ctx, title, opts)
	}
	return driver.Run(ctx, opts)
}
