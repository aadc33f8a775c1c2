// Package watch notices catalog writes via fsnotify (spec.md §9
// supplemented feature) so the HTTP bridge's websocket hub can push a
// catalog change to connected clients instead of them polling list().
// Uses the same library internal/logtail's Follow uses for log tailing,
// pointed at status.json instead of an application log.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Catalog calls onChange every time statusPath is written, until ctx is
// canceled. onChange receives no payload — callers re-read the catalog
// themselves via the façade, since the file's content at the instant of the
// fsnotify event is not guaranteed to be the final write.
func Catalog(ctx context.Context, log *zap.Logger, statusPath string, onChange func()) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bridge_watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(statusPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != statusPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}
