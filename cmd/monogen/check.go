package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"monogen/internal/diag"
	"monogen/internal/diagfmt"
	"monogen/internal/driver"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Instantiate the program and report diagnostics",
		Long: `Load the program files (or the sources of the monogen.toml project),
instantiate every requested generic, resolve every call and print the
diagnostics. Exits with 1 when errors were found and 3 on an internal error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, args)
		},
	}
}

func runCheck(cmd *cobra.Command, g *globalFlags, args []string) error {
	opts, cleanup, err := g.driverOptions(cmd, args)
	defer cleanup()
	if err != nil {
		return err
	}
	res, err := g.run(cmd.Context(), "checking", opts)
	if err != nil {
		return err
	}
	defer res.Release()

	out := cmd.OutOrStdout()
	if err := g.printDiagnostics(out, res); err != nil {
		return err
	}
	if g.format == "pretty" {
		if g.timings {
			fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
		}
		if onlyTimings(res.Bag) {
			fmt.Fprintf(out, "%s %d instantiations, no problems\n", color.GreenString("ok"), res.Registry.Len())
		}
	}
	return exitFor(res)
}

// printDiagnostics renders the bag in the selected format. The pretty form
// leaves the timings out; they are printed as a summary instead.
func (g *globalFlags) printDiagnostics(w io.Writer, res *driver.Result) error {
	if g.format == "json" {
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         g.paths,
			IncludeNotes:     g.withNotes,
		})
	}
	diagfmt.Pretty(w, withoutTimings(res.Bag), res.Files, diagfmt.PrettyOpts{
		Color:     !color.NoColor,
		PathMode:  g.paths,
		Width:     terminalWidth(),
		ShowNotes: g.withNotes,
	})
	return nil
}

func withoutTimings(bag *diag.Bag) *diag.Bag {
	out := diag.NewBag(0)
	for _, d := range bag.Items() {
		if d.Code != diag.ObsTimings {
			out.Add(d)
		}
	}
	return out
}

func onlyTimings(bag *diag.Bag) bool {
	return bag.Len() == bag.Count(diag.ObsTimings)
}

func exitFor(res *driver.Result) error {
	if code := res.ExitCode(); code != driver.ExitOK {
		return &exitError{code: code}
	}
	return nil
}
