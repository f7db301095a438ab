package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"monogen/internal/driver"
)

func newCacheCmd(g *globalFlags) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cleanup, err := g.driverOptions(cmd, nil)
			defer cleanup()
			if err != nil {
				return err
			}
			dir, err := driver.CleanCache(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed snapshots in %s\n", dir)
			return nil
		},
	})
	return cacheCmd
}
