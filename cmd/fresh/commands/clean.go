package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/fresh/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stored fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prune, _ := cmd.Flags().GetBool("prune")
			cache, _ := cmd.Flags().GetBool("cache")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Prune: prune,
				Cache: cache,
			})
		},
	}

	cmd.Flags().BoolP("prune", "p", false, "Only remove fingerprints of units no longer in the workspace")
	cmd.Flags().Bool("cache", false, "Also remove the content digest cache")

	return cmd
}
