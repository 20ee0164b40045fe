// Package license implements the license subcommands.
package license

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for license operations.
var Cmd = &cobra.Command{
	Use:   "license",
	Short: "Inspect and reconcile license assignments",
	Long:  `Inspect and reconcile the license assignments of directory accounts.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(assignCmd)
}
