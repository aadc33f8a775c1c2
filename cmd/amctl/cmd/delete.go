package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id|all>",
		Aliases: []string{"del"},
		Short:   "stop and remove an application from the catalog",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			if args[0] == "all" && !yes {
				if !confirm("delete every cataloged application? [y/N] ") {
					fmt.Println("aborted")
					return nil
				}
			}

			ids, err := a.facade.Resolve(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := a.stopID(id); err != nil {
					fmt.Fprintf(os.Stderr, "%s application %d: %v\n", red("failed to stop"), id, err)
				}
				if err := a.facade.Delete(ctx, id); err != nil {
					fmt.Fprintf(os.Stderr, "%s application %d: %v\n", red("failed to delete"), id, err)
					continue
				}
				fmt.Printf("%s application %d\n", green("deleted"), id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt when deleting all applications")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
