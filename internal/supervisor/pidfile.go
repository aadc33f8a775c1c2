package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// writePidFile writes pid to path, creating parent directories as needed.
// Called exactly once at the start of the engine's life (spec.md §4.5
// "Pid-file discipline"): never rewritten on respawn, never deleted on
// normal exit — the control tool's stop path owns deletion.
func writePidFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("write pid file %s: %w", path, err)
	}
	return nil
}
