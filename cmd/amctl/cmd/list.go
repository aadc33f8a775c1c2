package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nyxwatch/am3/internal/catalog"
)

func newListCommand() *cobra.Command {
	var checkDump bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "list every cataloged application and its running status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			rows, err := a.facade.List()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"id", "name", "status", "uuid"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, r := range rows {
				table.Append([]string{
					strconv.FormatInt(r.ID, 10),
					r.Name,
					statusText(r.Running),
					r.UUID,
				})
			}
			if len(rows) == 0 {
				fmt.Println(gray("no applications cataloged"))
			} else {
				table.Render()
			}

			if checkDump {
				return reportDumpConsistency(a, len(rows) > 0)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkDump, "check-dump", false, "compare the live catalog against the last saved dump.json")
	return cmd
}

// reportDumpConsistency prints app_manager.py:list_apps's config-consistency
// check: whether the catalog document (ignoring system_boot_time) and the
// list() snapshot still match the last `amctl save`.
func reportDumpConsistency(a *app, haveApps bool) error {
	configsMatch, listsMatch, err := a.facade.CheckDump()
	if err != nil {
		if errors.Is(err, catalog.ErrNoDump) {
			if haveApps {
				fmt.Println(gray(fmt.Sprintf("no application list saved yet; run %s to save it", green("amctl save"))))
			}
			return nil
		}
		return err
	}

	fmt.Printf("app config consistent: %v\n", configsMatch)
	fmt.Printf("app status list consistent: %v\n", listsMatch)
	if !configsMatch || !listsMatch {
		fmt.Println(gray(fmt.Sprintf("catalog has changed since the last save; run %s to update dump.json", green("amctl save"))))
	}
	return nil
}
