// Package apprun holds the start/stop orchestration shared by every
// operator-facing surface (cmd/amctl and the optional HTTP bridge): it
// is the one place that ties the catalog façade (L6), the tree-wide kill
// (internal/proctree), and the detached-monitor launcher
// (internal/supervisor) together, so neither caller duplicates the
// stop-then-start policy from spec.md §7.
package apprun

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/proctree"
	"github.com/nyxwatch/am3/internal/supervisor"
)

// Start stops any live monitor for id (if one is running) and spawns a
// fresh cmd/am3-monitor, detached, for it. Starting an already-running
// application is not an error: it is treated as a restart (spec.md §7).
func Start(ctx context.Context, log *zap.Logger, facade *catalog.Facade, id int64) error {
	cfg, err := facade.Get(id)
	if err != nil {
		return err
	}
	if pid, ok := facade.LivePid(cfg.AppPidFile); ok {
		for _, f := range proctree.KillTree(log, int32(pid)) {
			log.Warn("start: stop-before-restart signal failed", zap.Int32("pid", f.Pid), zap.Error(f.Err))
		}
	}

	binary, err := supervisor.MonitorBinary()
	if err != nil {
		return err
	}
	return supervisor.Spawn(binary, id)
}

// Stop signals id's live process tree to terminate and reports whether a
// running process was actually found. Unlike the engine's own exit path
// (which never deletes its pid file on a normal exit, spec.md §4.5), the
// control tool's stop path owns that deletion, matching process_manager.py's
// os.remove(app_pid_file) after a successful stop.
func Stop(log *zap.Logger, facade *catalog.Facade, id int64) (bool, error) {
	cfg, err := facade.Get(id)
	if err != nil {
		return false, err
	}
	pid, ok := facade.LivePid(cfg.AppPidFile)
	if !ok {
		return false, nil
	}
	for _, f := range proctree.KillTree(log, int32(pid)) {
		log.Warn("stop: signal failed", zap.Int32("pid", f.Pid), zap.Error(f.Err))
	}
	if err := os.Remove(cfg.AppPidFile); err != nil && !os.IsNotExist(err) {
		log.Warn("stop: remove pid file failed", zap.String("pid_file", cfg.AppPidFile), zap.Error(err))
	}
	return true, nil
}
