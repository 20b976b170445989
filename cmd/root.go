// Package cmd provides the command-line interface for stud.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/logging"
)

var (
	// cfgFile is an explicit configuration file given with --config.
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stud",
	Short: "Stud ties git branches, commits and pull requests to Jira issues",
	Long: `Stud is a CLI tool for a branch-per-ticket workflow. It reads issues from JIRA,
creates branches named after them, writes conventional commit messages from
issue metadata and opens GitHub pull requests for the current branch.

Configuration is read from $XDG_CONFIG_HOME/stud/config.yaml (or ./.stud.yaml)
and the environment. Run 'stud config init' to create a starting file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetupLogger(os.Stderr, logging.LevelDebug)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return ExecuteContext(context.Background())
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// ExecuteContext runs the root command with ctx available to every handler.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/stud/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
