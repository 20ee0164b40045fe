// Package catalog implements the catalog subcommands.
package catalog

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for catalog operations.
var Cmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the subscription catalog",
	Long:  `Inspect the SKUs and service plans the directory tenant is subscribed to.`,
}

func init() {
	Cmd.AddCommand(listCmd)
}
