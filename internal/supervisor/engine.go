//go:build linux

// Package supervisor is the heart of the system (spec.md §4.5, L5): one
// Engine owns exactly one application's child process for the lifetime of
// the detached monitor process that hosts it (cmd/am3-monitor). It spawns
// the child, streams its combined output into a rotating log file,
// evaluates restart triggers line by line, and kills-and-respawns on a
// match or a natural exit.
//
// The supervision shape — process-group isolation, a grace-windowed
// SIGTERM→SIGKILL teardown, a done channel closed exactly once after
// cmd.Wait() — is grounded on
// internal/infrastructure/processmgr/process.go and process_manager.go's
// superviseProcess loop, re-targeted from an in-process goroutine
// multiplexer onto a single detached OS process per application.
package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/proctree"
	"github.com/nyxwatch/am3/internal/readiness"
	"github.com/nyxwatch/am3/pkg/diag"
	"github.com/nyxwatch/am3/pkg/rotatingfile"
)

// State names the per-application state machine's states (spec.md §4.5).
type State string

const (
	StateReady    State = "READY"
	StateRunning  State = "RUNNING"
	StateKilling  State = "KILLING"
	StateCooldown State = "COOLDOWN"
	StateExited   State = "EXITED"
)

const (
	childGraceTimeout = 3 * time.Second
	logMaxBytes       = 1 << 20 // ~1 MB, spec.md §6
	logMaxBackups     = 5
)

// Engine runs one application's monitor loop to completion: Run blocks
// until ctx is canceled or the readiness gate or a spawn fails.
type Engine struct {
	log  *zap.Logger
	cfg  catalog.ApplicationConfig
	gate *readiness.Gate
}

func NewEngine(log *zap.Logger, cfg catalog.ApplicationConfig) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("engine").With(zap.String("app", cfg.Name)), cfg: cfg, gate: readiness.NewGate(log)}
}

// Run is the whole state machine. It writes the pid file once, runs the
// readiness gate (READY), then alternates RUNNING → KILLING/exit →
// COOLDOWN → RUNNING until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if err := writePidFile(e.cfg.AppPidFile, os.Getpid()); err != nil {
		return err
	}

	e.log.Info("readiness gate: waiting", zap.String("before_execute", e.cfg.BeforeExecute))
	if err := e.gate.Wait(ctx, e.cfg.BeforeExecute, e.cfg.WorkingDirectory); err != nil {
		e.log.Error("readiness gate failed; exiting without spawning", zap.Error(err))
		return err
	}
	e.log.Info("readiness gate passed; entering run loop")

	triggers, err := compileTriggers(e.cfg.RestartKeyword, e.cfg.RestartKeywordRegex)
	if err != nil {
		return fmt.Errorf("compile triggers: %w", err)
	}

	logWriter, err := newRotatingWriter(e.cfg.AppLogPath, logMaxBytes, logMaxBackups)
	if err != nil {
		return fmt.Errorf("open application log: %w", err)
	}
	defer logWriter.Close()

	cooldown := time.Duration(e.cfg.RestartWaitTime * float64(time.Second))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := e.runOnce(ctx, triggers, logWriter); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cooldown):
		}
	}
}

// runOnce spawns the child once, drains its combined output (writing every
// line to logWriter and evaluating triggers after the grace window), and
// returns once the child has exited or been killed and reaped. If the OS
// rejects the spawn it returns an ErrSpawnFailed error, which ends Run
// without a respawn; a failure to create the output pipe is only logged,
// and the outer loop retries after the cooldown.
func (e *Engine) runOnce(ctx context.Context, triggers *triggerSet, logWriter *rotatingfile.Writer) error {
	shellPath, shellFlag := am3path.Shell()
	cmd := exec.Command(shellPath, shellFlag, e.buildCommandLine())
	cmd.Dir = e.cfg.WorkingDirectory
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}

	r, w, err := os.Pipe()
	if err != nil {
		e.log.Error("create combined output pipe failed", zap.Error(err))
		return nil
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		spawnErr := fmt.Errorf("%w: %v", ErrSpawnFailed, err)
		e.log.Error("spawn failed; exiting without respawn", zap.Error(spawnErr))
		if os.Getenv("AM3_DEBUG") == "1" {
			diag.Dump(err)
		}
		return spawnErr
	}
	w.Close() // parent's copy; EOF fires once the child (and any of its own
	// forks holding the write end) closes it.

	pid := cmd.Process.Pid
	spawnTime := time.Now()
	e.log.Info("child spawned", zap.Int("pid", pid))

	done := make(chan struct{})
	var killOnce sync.Once
	requestKill := func(reason string) {
		killOnce.Do(func() {
			e.log.Info("killing child", zap.Int("pid", pid), zap.String("reason", reason))
			go e.terminateChild(pid, done)
		})
	}

	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			requestKill("engine stop requested")
		case <-ctxDone:
		}
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if err := logWriter.WriteLine(line); err != nil {
			e.log.Warn("write application log failed", zap.Error(err))
		}

		if time.Since(spawnTime).Seconds() <= e.cfg.RestartCheckDelay {
			continue // grace window: triggers ignored (spec.md §4.5 step 2)
		}

		trig, matched := triggers.match(line)
		if !matched {
			continue
		}
		e.log.Info("trigger matched", zap.String("trigger", trig), zap.String("line", line))
		if e.cfg.RestartControl {
			requestKill("trigger match: " + trig)
		}
		// restart_control=false: logged only, child keeps running.
	}
	if err := sc.Err(); err != nil {
		e.log.Warn("output scanner failure", zap.Error(err))
	}
	r.Close()
	close(ctxDone)

	waitErr := cmd.Wait()
	close(done)

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			e.log.Info("child exited", zap.Int("pid", pid), zap.Int("exit_code", exitErr.ExitCode()))
		} else {
			e.log.Warn("wait for child failed", zap.Int("pid", pid), zap.Error(waitErr))
		}
	} else {
		e.log.Info("child exited cleanly", zap.Int("pid", pid))
	}
	return nil
}

// terminateChild sends SIGTERM to the child and every descendant found by
// internal/proctree's recursive walk (which reaches processes that left the
// child's process group), then to the child's process group, and escalates
// to SIGKILL on the process group after childGraceTimeout unless done is
// closed first — the engine's own child-teardown contract, which (unlike
// internal/proctree's tree-wide kill) does escalate, per the recorded
// decision in SPEC_FULL.md §5.
func (e *Engine) terminateChild(pid int, done <-chan struct{}) {
	for _, f := range proctree.KillTree(e.log, int32(pid)) {
		e.log.Warn("kill-tree signal failed", zap.Int32("pid", f.Pid), zap.Error(f.Err))
	}
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		e.log.Warn("SIGTERM failed", zap.Int("pid", pid), zap.Error(err))
	}

	timer := time.NewTimer(childGraceTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return
	case <-timer.C:
		e.log.Warn("grace timeout expired; sending SIGKILL", zap.Int("pid", pid))
		if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
			e.log.Warn("SIGKILL failed", zap.Int("pid", pid), zap.Error(err))
		}
	}
}

// buildCommandLine assembles [interpreter?, start, params?] joined with
// spaces for the platform shell (spec.md §4.5 "Spawn step"). params is
// joined verbatim — operators are responsible for escaping (spec.md §4.5
// "Shell quoting", a known sharp edge per §9).
func (e *Engine) buildCommandLine() string {
	parts := make([]string, 0, 3)
	if e.cfg.Interpreter != "" {
		parts = append(parts, e.cfg.Interpreter)
	}
	parts = append(parts, e.cfg.Start)
	if e.cfg.Params != "" {
		parts = append(parts, e.cfg.Params)
	}
	return strings.Join(parts, " ")
}
