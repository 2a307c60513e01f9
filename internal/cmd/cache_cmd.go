package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phantom-go/phantom/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache used by get --cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return err
			}
			n, err := cache.ClearAll(dir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(statusOut(cmd), "Removed %d cached response(s)\n", n)
			return nil
		}),
	})
	return cmd
}
