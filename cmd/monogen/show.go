package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"monogen/internal/driver"
	"monogen/internal/mono"
)

func newShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> [paths...]",
		Short: "Describe a type or function after substitution",
		Long: `Print the members of a type or function with their substituted
signatures, e.g. monogen show "Dict of (String, Integer)". The type is
instantiated on demand when the program never asked for it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, g, args[0], args[1:])
		},
	}
}

func runShow(cmd *cobra.Command, g *globalFlags, expr string, paths []string) error {
	opts, cleanup, err := g.driverOptions(cmd, paths)
	defer cleanup()
	if err != nil {
		return err
	}
	// the answer is about one type, the snapshot does not help
	opts.NoCache = true
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

	id, err := res.Lookup(expr)
	if err != nil {
		return fmt.Errorf("show %s: %w", expr, err)
	}
	return mono.Describe(cmd.OutOrStdout(), res.Table, id)
}
