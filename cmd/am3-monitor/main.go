// Command am3-monitor is the detached supervision engine for exactly one
// application (spec.md §4.5, §5, §9). It is never invoked directly by an
// operator: the catalog façade's start path (cmd/amctl) spawns it as a
// session-detached child and then exits, leaving am3-monitor reparented to
// init for the lifetime of the application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/ctllog"
	"github.com/nyxwatch/am3/internal/supervisor"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: am3-monitor <app-id>")
		os.Exit(2)
	}
	id, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid app id %q: %v\n", os.Args[1], err)
		os.Exit(2)
	}

	tree, err := am3path.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve am3 home: %v\n", err)
		os.Exit(1)
	}

	log, err := ctllog.New(tree.CtlLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.Named("monitor").With(zap.Int64("id", id))

	store := catalog.NewStore(log, tree, 0)
	facade := catalog.NewFacade(log, store, tree)

	cfg, err := facade.Get(id)
	if err != nil {
		log.Error("load application config failed; exiting", zap.Error(err))
		os.Exit(1)
	}

	// The engine treats termination signals as immediate process-tree
	// shutdown (spec.md §5 "Cancellation"); it is not required to write a
	// clean exit record beyond what the engine already logs.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	eng := supervisor.NewEngine(log, cfg)
	if err := eng.Run(ctx); err != nil {
		log.Error("engine exited with error", zap.Error(err))
		os.Exit(1)
	}
}
