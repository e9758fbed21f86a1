// Package cmd implements the viewbridge CLI commands.
//
// Each subcommand lives in its own file and registers itself with
// RegisterCommand from init.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "viewbridge",
	Short: "viewbridge - typed data channels between a host and named native views",
	Long: `viewbridge binds named native views to per-view data stores and carries
integer, float, bool, string, object and array values between a host
application and those views.

Use "viewbridge <command> --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return rootCmd.Execute()
}
