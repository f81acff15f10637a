package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/fresh/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [units...]",
		Short: "Rebuild dirty units and commit their fingerprints",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")

			return c.app.Build(cmd.Context(), args, app.BuildOptions{
				JSON:  jsonOut,
				Force: force,
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print outcomes as a JSON document instead of build output")
	cmd.Flags().BoolP("force", "f", false, "Rebuild every selected unit")
	return cmd
}
