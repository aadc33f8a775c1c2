// Command amctl is the control front end (spec.md §4, L8, external): it
// parses operator commands and dispatches to the catalog façade (L6) and
// dump/restore (L7), and spawns the supervision engine (L5) as a detached
// process. Command-tree construction follows
// cklxx-elephant.ai/cmd/cobra_cli.go's cobra.Command{Use, Short, Long,
// RunE} shape; colorized status output follows the same file's
// color.New(...).SprintFunc() helpers.
package main

import (
	"fmt"
	"os"

	"github.com/nyxwatch/am3/cmd/amctl/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
