package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxwatch/am3/internal/am3path"
)

func newTestTree(t *testing.T) am3path.Tree {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AM3_HOME", dir)
	tree, err := am3path.Resolve()
	require.NoError(t, err)
	require.NoError(t, tree.Ensure())
	return tree
}

func TestStore_LoadReturnsFreshDocumentWhenStatusFileMissing(t *testing.T) {
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "1", doc.Version)
	assert.NotEmpty(t, doc.SystemBootTime)
	assert.Empty(t, doc.Apps)
}

func TestStore_LoadReturnsErrCorruptOnInvalidJSON(t *testing.T) {
	tree := newTestTree(t)
	require.NoError(t, os.WriteFile(tree.Status, []byte("not json"), 0o644))

	store := NewStore(nil, tree, 0)
	_, err := store.Load()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_MutatePersistsAcrossLoad(t *testing.T) {
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)

	_, err := store.Mutate(context.Background(), func(doc Document) (Document, error) {
		doc.Apps[0] = AppEntry{AppConf: ApplicationConfig{Start: "/bin/true", Name: "x", UUID: "u1"}}
		return doc, nil
	})
	require.NoError(t, err)

	doc, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, doc.Apps, int64(0))
	assert.Equal(t, "u1", doc.Apps[0].AppConf.UUID)
}

func TestStore_MutatePropagatesCallbackErrorWithoutWriting(t *testing.T) {
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)

	sentinel := assert.AnError
	_, err := store.Mutate(context.Background(), func(doc Document) (Document, error) {
		return Document{}, sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, statErr := os.Stat(tree.Status)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_EnsureInitializedPurgesPidFilesOnBootChange(t *testing.T) {
	tree := newTestTree(t)
	staleFile := filepath.Join(tree.Pids, "worker-0.pid")
	require.NoError(t, os.WriteFile(staleFile, []byte("123"), 0o644))

	store := NewStore(nil, tree, 0)
	require.NoError(t, os.WriteFile(tree.Status, []byte(`{"version":"1","system_boot_time":"stale-boot-stamp","apps":{},"api":{}}`), 0o644))

	require.NoError(t, store.EnsureInitialized(context.Background()))

	_, err := os.Stat(staleFile)
	assert.True(t, os.IsNotExist(err), "stale pid file should be purged after a boot-time mismatch")

	doc, err := store.Load()
	require.NoError(t, err)
	assert.NotEqual(t, "stale-boot-stamp", doc.SystemBootTime)
}

func TestStore_LoadRepairsMissingUUIDAndPersistsIt(t *testing.T) {
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)
	require.NoError(t, os.WriteFile(tree.Status,
		[]byte(`{"version":"1","system_boot_time":"boot-1","apps":{"0":{"app_conf":{"start":"/bin/true","name":"legacy"}}},"api":{}}`),
		0o644))

	doc, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, doc.Apps, int64(0))
	assert.NotEmpty(t, doc.Apps[0].AppConf.UUID, "a legacy record with no uuid must be repaired on load")

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.Apps[0].AppConf.UUID, reloaded.Apps[0].AppConf.UUID, "the repaired uuid must be persisted, not regenerated every load")
}

func TestStore_EnsureInitializedIsIdempotentWhenBootTimeUnchanged(t *testing.T) {
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)

	require.NoError(t, store.EnsureInitialized(context.Background()))
	first, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, store.EnsureInitialized(context.Background()))
	second, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, first.SystemBootTime, second.SystemBootTime)
}
