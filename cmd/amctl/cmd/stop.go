package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "stop <id|all>",
		Aliases: []string{"sto"},
		Short:   "signal an application's process tree to stop",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := a.facade.Resolve(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				wasRunning, err := a.stopID(id)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s application %d: %v\n", red("failed to stop"), id, err)
					continue
				}
				if !wasRunning {
					fmt.Printf("application %d %s\n", id, gray("already stopped"))
					continue
				}
				fmt.Printf("%s application %d\n", green("stopped"), id)
			}
			return nil
		},
	}
}
