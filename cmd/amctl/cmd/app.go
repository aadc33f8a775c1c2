// Package cmd builds the amctl command tree (spec.md §4, L8). Command
// construction follows cklxx-elephant.ai/cmd/cobra_cli.go's
// cobra.Command{Use, Short, Long, RunE} shape and its
// color.New(...).SprintFunc() status-coloring helpers.
package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/apprun"
	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/ctllog"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

// lockTimeout bounds how long a CLI invocation waits for another amctl
// process (or the remote bridge) to release the catalog lock, per
// spec.md §6's note that the control tool must not hang indefinitely on
// contention.
const lockTimeout = 5 * time.Second

// app bundles the dependencies every subcommand needs: a logger writing to
// both the console and am3.log, the resolved am3 home, and the catalog
// façade.
type app struct {
	log    *zap.Logger
	tree   am3path.Tree
	store  *catalog.Store
	facade *catalog.Facade
}

func newApp(ctx context.Context) (*app, error) {
	tree, err := am3path.Resolve()
	if err != nil {
		return nil, err
	}

	log, err := ctllog.NewDevelopment()
	if err != nil {
		return nil, err
	}
	fileLog, err := ctllog.New(tree.CtlLog)
	if err != nil {
		return nil, err
	}
	log = zap.New(zapcore.NewTee(log.Core(), fileLog.Core())).Named("amctl")

	store := catalog.NewStore(log, tree, lockTimeout)
	if err := store.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	facade := catalog.NewFacade(log, store, tree)

	return &app{log: log, tree: tree, store: store, facade: facade}, nil
}

func (a *app) startID(ctx context.Context, id int64) error {
	return apprun.Start(ctx, a.log, a.facade, id)
}

func (a *app) stopID(id int64) (bool, error) {
	return apprun.Stop(a.log, a.facade, id)
}

func statusText(running bool) string {
	if running {
		return green("running")
	}
	return red("stopped")
}
