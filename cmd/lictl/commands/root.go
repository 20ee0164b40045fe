// Package commands implements the CLI commands for lictl.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/entraops/lictl/cmd/lictl/cmdutil"
	catalogcmd "github.com/entraops/lictl/cmd/lictl/commands/catalog"
	licensecmd "github.com/entraops/lictl/cmd/lictl/commands/license"
	"github.com/entraops/lictl/internal/logger"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lictl",
	Short: "License state reconciliation for directory accounts",
	Long: `lictl reconciles license entitlements for directory accounts.

It resolves target accounts from literals or CSV files, computes the
desired license state per account, diffs it against the directory, and
applies only the changes that are needed.

Use "lictl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")

		cfg, err := cmdutil.LoadConfig()
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if cmdutil.IsVerbose() {
			level = "DEBUG"
		}
		return logger.Init(logger.Config{
			Level:  level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/lictl/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Directory API base URL (overrides config)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides config)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml|csv)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(catalogcmd.Cmd)
	rootCmd.AddCommand(licensecmd.Cmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
