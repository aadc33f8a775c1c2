//go:build linux

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
)

// MonitorBinary locates the cmd/am3-monitor executable: AM3_MONITOR_PATH if
// set, otherwise a binary named "am3-monitor" next to the currently
// running executable (the layout `go build ./cmd/...` produces).
func MonitorBinary() (string, error) {
	if p := os.Getenv("AM3_MONITOR_PATH"); p != "" {
		return p, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate own executable: %w", err)
	}
	return filepath.Join(filepath.Dir(self), "am3-monitor"), nil
}

// Spawn launches cmd/am3-monitor for application id as a detached process:
// a new session (Setsid) so it survives the control tool's exit and is
// reparented to init, per spec.md §9's "double-fork / session detach"
// guidance — Go has no fork(), so session detachment is the idiomatic
// substitute. The pid recorded by the monitor in app_pid_file is its own
// pid, not the eventual supervised child's (spec.md §9).
//
// Spawn does not wait for the monitor and does not hold the catalog lock;
// callers must release any catalog lock before calling this (spec.md §5
// "The control tool never holds the catalog lock while spawning an
// engine").
func Spawn(binary string, id int64) error {
	cmd := exec.Command(binary, strconv.FormatInt(id, 10))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devnull.Close()
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	// Release: we do not wait for or reap this process. It has been
	// detached into its own session and will be reparented to init; its
	// own engine loop owns its lifetime from here.
	return cmd.Process.Release()
}
