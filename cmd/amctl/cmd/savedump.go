package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "snapshot the catalog and current liveness to dump.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.facade.Save(); err != nil {
				return err
			}
			fmt.Printf("%s dump.json (%s)\n", green("saved"), a.tree.Dump)
			return nil
		},
	}
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "load",
		Aliases: []string{"ld"},
		Short:   "stop every running application and restore the catalog from dump.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.facade.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("%s catalog from %s; restart applications with `amctl start all`\n", green("restored"), a.tree.Dump)
			return nil
		},
	}
}
