package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"monogen/internal/driver"
	"monogen/internal/ui"
)

func newInstancesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "instances [paths...]",
		Short: "List every instantiation the program needs",
		Long: `List the instantiated types and functions in creation order. A snapshot
from an earlier clean run over identical inputs is used when available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstances(cmd, g, args)
		},
	}
}

func runInstances(cmd *cobra.Command, g *globalFlags, args []string) error {
	opts, cleanup, err := g.driverOptions(cmd, args)
	defer cleanup()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !opts.NoCache {
		snap, ok, err := driver.LoadSnapshot(opts)
		if err != nil {
			return err
		}
		if ok {
			return g.printInstances(out, snap, true)
		}
	}

	res, err := g.run(cmd.Context(), "instantiating", opts)
	if err != nil {
		return err
	}
	defer res.Release()
	if res.ExitCode() != driver.ExitOK {
		if err := g.printDiagnostics(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return exitFor(res)
	}
	snap := res.Snapshot
	if snap == nil {
		snap = driver.NewSnapshot(res.Key, res.Inputs.Package, res.Inputs.Files, res.Registry)
	}
	return g.printInstances(out, snap, false)
}

type instanceJSON struct {
	Name    string   `json:"name"`
	Display string   `json:"display"`
	Kind    string   `json:"kind"`
	Generic string   `json:"generic"`
	Args    []string `json:"args"`
	State   string   `json:"state"`
	Members int      `json:"members"`
}

type instancesJSON struct {
	Package   string         `json:"package"`
	Key       string         `json:"key"`
	RunID     string         `json:"run_id"`
	Cached    bool           `json:"cached"`
	Instances []instanceJSON `json:"instances"`
}

func (g *globalFlags) printInstances(w io.Writer, snap *driver.Snapshot, cached bool) error {
	if g.format == "json" {
		payload := instancesJSON{
			Package:   snap.Package,
			Key:       snap.Key.Hex(),
			RunID:     snap.RunID.String(),
			Cached:    cached,
			Instances: make([]instanceJSON, 0, len(snap.Entries)),
		}
		for _, e := range snap.Entries {
			payload.Instances = append(payload.Instances, instanceJSON(e))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	renderInstanceTable(w, snap, cached, terminalWidth())
	return nil
}

func renderInstanceTable(w io.Writer, snap *driver.Snapshot, cached bool, width int) {
	nameWidth := len("INSTANCE")
	genericWidth := len("GENERIC")
	for _, e := range snap.Entries {
		nameWidth = max(nameWidth, runewidth.StringWidth(e.Display))
		genericWidth = max(genericWidth, runewidth.StringWidth(e.Generic))
	}
	if width > 0 {
		// kind, state and members take about 24 cells
		nameWidth = min(nameWidth, max(16, width-genericWidth-24))
	}

	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		bold.Sprint(runewidth.FillRight("INSTANCE", nameWidth)),
		bold.Sprint(runewidth.FillRight("GENERIC", genericWidth)),
		bold.Sprint("KIND"),
		bold.Sprint(runewidth.FillRight("STATE", 9)),
		bold.Sprint("MEMBERS"))
	for _, e := range snap.Entries {
		fmt.Fprintf(w, "%s  %s  %-4s  %s  %7d\n",
			runewidth.FillRight(ui.Truncate(e.Display, nameWidth), nameWidth),
			runewidth.FillRight(e.Generic, genericWidth),
			e.Kind,
			stateColor(e.State).Sprint(runewidth.FillRight(e.State, 9)),
			e.Members)
	}

	summary := fmt.Sprintf("%d instantiations in %s", len(snap.Entries), snap.Package)
	if cached {
		summary += fmt.Sprintf(" (cached %s)", snap.Created.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, color.New(color.Faint).Sprint(summary))
}

func stateColor(state string) *color.Color {
	switch state {
	case "populated":
		return color.New(color.FgGreen)
	case "registered", "populating":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
