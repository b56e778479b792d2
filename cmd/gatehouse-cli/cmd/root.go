package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatehouse-cli",
	Short: "Gatehouse CLI tool",
	Long: `Gatehouse CLI is a command-line companion for the Gatehouse server.

Available commands:
  users            Print the static user list served on the landing page
  password check   Check a password against the sign-up password rules
  version          Print the CLI version

Use "gatehouse-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
