package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_InvokesOnChangeWhenStatusFileIsWritten(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusPath, []byte("{}"), 0o644))

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Catalog(ctx, nil, statusPath, func() { atomic.AddInt32(&calls, 1) })
	}()

	time.Sleep(10 * time.Millisecond) // let the watcher start before the write it needs to observe
	require.NoError(t, os.WriteFile(statusPath, []byte(`{"version":"1"}`), 0o644))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) > 0
	}, time.Second, 5*time.Millisecond, "onChange should fire after the status file is rewritten")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Catalog did not return after context cancellation")
	}
}

func TestCatalog_IgnoresWritesToOtherFiles(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusPath, []byte("{}"), 0o644))

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Catalog(ctx, nil, statusPath, func() { atomic.AddInt32(&calls, 1) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("noise"), 0o644))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
