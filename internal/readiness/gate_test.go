package readiness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestGate_WaitReturnsImmediatelyWhenBeforeExecuteEmpty(t *testing.T) {
	g := NewGate(nil)
	err := g.Wait(context.Background(), "", t.TempDir())
	assert.NoError(t, err)
}

func TestGate_WaitReturnsErrLoadFailedWhenScriptMissing(t *testing.T) {
	g := NewGate(nil)
	dir := t.TempDir()
	err := g.Wait(context.Background(), filepath.Join(dir, "does-not-exist.sh"), dir)
	require.ErrorIs(t, err, ErrLoadFailed)
}

func TestGate_WaitPassesOnFirstZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "check.sh", "#!/bin/sh\nexit 0\n")

	g := NewGate(nil)
	g.interval = time.Millisecond
	err := g.Wait(context.Background(), script, dir)
	assert.NoError(t, err)
}

func TestGate_WaitRetriesUntilScriptStartsPassing(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ready")
	script := writeScript(t, dir, "check.sh", "#!/bin/sh\ntest -f \""+marker+"\"\n")

	g := NewGate(nil)
	g.interval = 5 * time.Millisecond
	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait(context.Background(), script, dir) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(marker, []byte("ok"), 0o644))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("gate never observed the script starting to pass")
	}
}

func TestGate_WaitStopsOnContextCancellation(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "check.sh", "#!/bin/sh\nexit 1\n")

	g := NewGate(nil)
	g.interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	err := g.Wait(ctx, script, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
