package am3path

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_HonorsAM3Home(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AM3_HOME", dir)

	tree, err := Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir), tree.Root)
	assert.Equal(t, filepath.Join(dir, "pids"), tree.Pids)
	assert.Equal(t, filepath.Join(dir, "logs"), tree.Logs)
	assert.Equal(t, filepath.Join(dir, "status.json"), tree.Status)
}

func TestTree_EnsureCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AM3_HOME", dir)

	tree, err := Resolve()
	require.NoError(t, err)
	require.NoError(t, tree.Ensure())

	for _, d := range []string{tree.Root, tree.Pids, tree.Logs, tree.Init} {
		info, err := filepath.EvalSymlinks(d)
		require.NoError(t, err)
		assert.NotEmpty(t, info)
	}
}

func TestTree_PidFilePath(t *testing.T) {
	tree := Tree{Pids: "/tmp/am3/pids"}
	assert.Equal(t, "/tmp/am3/pids/worker-3.pid", tree.PidFilePath("worker", 3))
}

func TestTree_LogFilePath_SuffixZeroOmitsNumber(t *testing.T) {
	tree := Tree{Logs: "/tmp/am3/logs"}
	assert.Equal(t, "/tmp/am3/logs/worker.log", tree.LogFilePath("worker", 0))
	assert.Equal(t, "/tmp/am3/logs/worker-1.log", tree.LogFilePath("worker", 1))
}
