//go:build linux

// Package proctree terminates a process and every process descended from it,
// tolerating per-pid failures along the way. The engine uses it, alongside
// a process-group signal, to tear down a supervised child that was spawned
// through a shell wrapper, where descendants are not always direct children
// of the pid the engine itself holds onto; the control tool uses it to stop
// a monitor and everything under it.
package proctree

import (
	"fmt"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// KillFailure records a single pid that could not be signaled. Collected
// failures are logged by the caller; they never abort the sweep.
type KillFailure struct {
	Pid int32
	Err error
}

// KillTree signals pid and every descendant of pid with SIGTERM. If pid is
// not live, it returns success immediately (spec.md §4.3 step 1). Descendant
// enumeration is recursive via OS process introspection
// (gopsutil/v3/process.Process.Children), not process-group signaling,
// because the shell wrapper the supervision engine spawns through can break
// group inheritance.
//
// Per spec.md §9's recorded open-question decision, this call never
// escalates to SIGKILL: it is the tree-wide operator-facing kill, distinct
// from the supervision engine's own child-teardown contract in
// internal/supervisor, which does escalate.
func KillTree(log *zap.Logger, pid int32) []KillFailure {
	alive, err := process.PidExists(pid)
	if err != nil || !alive {
		return nil
	}

	root, err := process.NewProcess(pid)
	if err != nil {
		// Already gone between the existence check and NewProcess.
		return nil
	}

	descendants, err := allDescendants(root)
	if err != nil {
		log.Warn("descendant enumeration failed; killing root only",
			zap.Int32("pid", pid), zap.Error(err))
	}

	var failures []KillFailure

	// Parent first, then each descendant (spec.md §4.3 step 3).
	targets := append([]int32{pid}, descendants...)
	for _, target := range targets {
		if err := signalTerm(target); err != nil {
			log.Warn("kill-tree: signal failed for pid; continuing",
				zap.Int32("pid", target), zap.Error(err))
			failures = append(failures, KillFailure{Pid: target, Err: err})
			continue
		}
		log.Debug("kill-tree: signaled pid", zap.Int32("pid", target))
	}

	return failures
}

// allDescendants walks the process tree breadth-first, collecting every pid
// reachable from root via Children(), deepest-last ordering not required.
func allDescendants(root *process.Process) ([]int32, error) {
	var out []int32
	frontier := []*process.Process{root}

	for len(frontier) > 0 {
		var next []*process.Process
		for _, p := range frontier {
			children, err := p.Children()
			if err != nil {
				// No children or process already gone; not fatal to the sweep.
				continue
			}
			for _, c := range children {
				out = append(out, c.Pid)
				next = append(next, c)
			}
		}
		frontier = next
	}
	return out, nil
}

func signalTerm(pid int32) error {
	if err := syscall.Kill(int(pid), syscall.SIGTERM); err != nil {
		return fmt.Errorf("SIGTERM pid %d: %w", pid, err)
	}
	return nil
}
