// Package commands implements the CLI commands for the fresh build checker.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/fresh/internal/adapters/config"
	"go.trai.ch/fresh/internal/app"
	"go.trai.ch/fresh/internal/build"
	"go.trai.ch/fresh/internal/core/domain"
)

// CLI represents the command line interface for fresh.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Check(ctx context.Context, targets []string, opts app.CheckOptions) error
	Build(ctx context.Context, targets []string, opts app.BuildOptions) error
	Status(ctx context.Context, targets []string) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	BindFlags(flags *pflag.FlagSet) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "fresh",
		Short:         "Decide which crates of a workspace need rebuilding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.BindFlags(cmd.Flags())
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyMode, string(domain.DetectTimestamp), "Change detection: timestamp or checksum")
	flags.String(config.KeyDigest, string(domain.DigestBlake3), "Content digest: blake3 or sha256")
	flags.String(config.KeyBuildDir, domain.DefaultBuildDirName, "Build output directory, relative to the workspace root")
	flags.IntP(config.KeyJobs, "j", 0, "Units checked in parallel (default: number of CPUs)")
	flags.Bool(config.KeyLogJSON, false, "Log as JSON")
	flags.String(config.KeyMetricsFile, "", "Write Prometheus metrics to this file after the run")
	flags.BoolP(config.KeyVerbose, "v", false, "Show debug output")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
