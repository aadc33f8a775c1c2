package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the amctl command tree (spec.md §6).
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "amctl",
		Short:         "supervise long-running applications, restarting them on exit or log trigger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newListCommand())
	root.AddCommand(newStartCommand())
	root.AddCommand(newStopCommand())
	root.AddCommand(newRestartCommand())
	root.AddCommand(newDeleteCommand())
	root.AddCommand(newSaveCommand())
	root.AddCommand(newLoadCommand())
	root.AddCommand(newLogCommand())
	root.AddCommand(newStartupCommand())
	root.AddCommand(newAPICommand())

	return root
}
