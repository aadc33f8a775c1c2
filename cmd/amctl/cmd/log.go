package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxwatch/am3/internal/logtail"
)

func newLogCommand() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "log [id]",
		Short: "print (or follow) an application's log file, or the control log if no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			path := a.tree.CtlLog
			if len(args) == 1 {
				ids, err := a.facade.Resolve(args[0])
				if err != nil {
					return err
				}
				if len(ids) != 1 {
					return fmt.Errorf("log: give exactly one application id")
				}
				cfg, err := a.facade.Get(ids[0])
				if err != nil {
					return err
				}
				if cfg.AppLogPath == "" {
					fmt.Println(gray("no log path recorded for this application"))
					return nil
				}
				path = cfg.AppLogPath
			}

			if follow {
				return logtail.Follow(cmd.Context(), path, lines, os.Stdout)
			}
			out, err := logtail.Lines(path, lines)
			if err != nil {
				return err
			}
			for _, line := range out {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new lines as they are appended")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of trailing lines to show")
	return cmd
}
