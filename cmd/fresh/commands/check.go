package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/fresh/internal/app"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [units...]",
		Short: "Report which units are fresh without building",
		Long: "Check compares the current inputs of every selected unit and its " +
			"dependencies with the fingerprint committed by the last successful build. " +
			"No units selects the whole workspace.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")
			exitCode, _ := cmd.Flags().GetBool("exit-code")

			return c.app.Check(cmd.Context(), args, app.CheckOptions{
				JSON:        jsonOut,
				Force:       force,
				FailOnDirty: exitCode,
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print verdicts as a JSON document")
	cmd.Flags().BoolP("force", "f", false, "Report every unit as dirty")
	cmd.Flags().Bool("exit-code", false, "Exit with status 1 when a unit is dirty")
	return cmd
}
