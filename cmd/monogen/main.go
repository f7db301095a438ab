package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"monogen/internal/version"
)

// exitError carries a process exit status through cobra without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "monogen",
		Short:         "Instantiate generic programs and resolve their calls",
		Long:          `monogen expands every generic type and function a program asks for and reports ambiguous or unresolved calls`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.apply(cmd)
		},
	}
	g.register(root)

	root.AddCommand(newCheckCmd(g))
	root.AddCommand(newInstancesCmd(g))
	root.AddCommand(newShowCmd(g))
	root.AddCommand(newCacheCmd(g))
	root.AddCommand(newVersionCmd(g))
	return root
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	os.Exit(1)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth is the width of stdout in cells, or 0 when unknown.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
