package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "restart <id|all>",
		Aliases: []string{"re"},
		Short:   "stop then start an application (spawns a fresh monitor either way)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			ids, err := a.facade.Resolve(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := a.startID(ctx, id); err != nil {
					fmt.Fprintf(os.Stderr, "%s application %d: %v\n", red("failed to restart"), id, err)
					continue
				}
				fmt.Printf("%s application %d\n", green("restarted"), id)
			}
			return nil
		},
	}
}
