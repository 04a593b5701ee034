package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the top-level bookshelf command; subcommand packages register
// themselves on it from init.
var RootCmd = &cobra.Command{
	Use:           "bookshelf",
	Short:         "Bookshelf CLI",
	Long:          "Command line interface for interacting with the Bookshelf review API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
