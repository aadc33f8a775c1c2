package apprun

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/catalog"
)

func newTestFacade(t *testing.T) *catalog.Facade {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AM3_HOME", dir)
	tree, err := am3path.Resolve()
	require.NoError(t, err)
	require.NoError(t, tree.Ensure())

	store := catalog.NewStore(nil, tree, 0)
	return catalog.NewFacade(nil, store, tree)
}

func TestStop_ReturnsFalseWhenNothingIsRunning(t *testing.T) {
	facade := newTestFacade(t)
	id, err := facade.CreateOrUpdate(context.Background(), catalog.ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)

	ran, err := Stop(zap.NewNop(), facade, id)
	require.NoError(t, err)
	assert.False(t, ran, "no pid file means nothing to report as stopped")
}

func TestStop_UnknownIDPropagatesError(t *testing.T) {
	facade := newTestFacade(t)
	_, err := Stop(zap.NewNop(), facade, 999)
	require.ErrorIs(t, err, catalog.ErrUnknownID)
}

func TestStop_RemovesPidFileAfterConfirmedStop(t *testing.T) {
	facade := newTestFacade(t)
	id, err := facade.CreateOrUpdate(context.Background(), catalog.ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)
	cfg, err := facade.Get(id)
	require.NoError(t, err)

	child := exec.Command("sleep", "30")
	require.NoError(t, child.Start())
	t.Cleanup(func() { _ = child.Process.Kill() })
	require.NoError(t, os.WriteFile(cfg.AppPidFile, []byte(strconv.Itoa(child.Process.Pid)), 0o644))

	ran, err := Stop(zap.NewNop(), facade, id)
	require.NoError(t, err)
	assert.True(t, ran)

	_, statErr := os.Stat(cfg.AppPidFile)
	assert.True(t, os.IsNotExist(statErr), "stop must remove the pid file once the tree has been signaled, matching the control tool's ownership of deletion")
}
