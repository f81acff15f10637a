package commands

import "github.com/spf13/cobra"

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [units...]",
		Short: "Show the stored fingerprint of each unit",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Status(cmd.Context(), args)
		},
	}
}
