package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	tree := newTestTree(t)
	store := NewStore(nil, tree, 0)
	return NewFacade(nil, store, tree)
}

func TestFacade_CreateOrUpdateAllocatesSequentialIDs(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()

	first, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), first)

	second, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/b/run.sh"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second)
}

func TestFacade_CreateOrUpdateUpdatesInPlaceWhenStartMatches(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()

	id, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh", Name: "a"})
	require.NoError(t, err)
	original, err := facade.Get(id)
	require.NoError(t, err)
	require.NotEmpty(t, original.UUID)

	updatedID, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh", Name: "a-renamed"})
	require.NoError(t, err)
	assert.Equal(t, id, updatedID, "same start path must update in place, not allocate a new id")

	updated, err := facade.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "a-renamed", updated.Name)
	assert.Equal(t, original.UUID, updated.UUID, "uuid is invariant under update")
}

func TestFacade_CreateOrUpdateFillsDefaults(t *testing.T) {
	facade := newTestFacade(t)
	id, err := facade.CreateOrUpdate(context.Background(), ApplicationConfig{Start: "/opt/worker/run.sh"})
	require.NoError(t, err)

	cfg, err := facade.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "run", cfg.Name)
	assert.Equal(t, "/opt/worker", cfg.WorkingDirectory)
	assert.NotEmpty(t, cfg.UUID)
	assert.Contains(t, cfg.AppLogPath, "run")
	assert.Contains(t, cfg.AppPidFile, "run")
}

func TestFacade_PreviewDefaultsDoesNotMutateCatalog(t *testing.T) {
	facade := newTestFacade(t)

	preview, err := facade.PreviewDefaults(ApplicationConfig{Start: "/opt/worker/run.sh"})
	require.NoError(t, err)
	assert.Equal(t, "run", preview.Name)
	assert.NotEmpty(t, preview.UUID)

	apps, err := facade.List()
	require.NoError(t, err)
	assert.Empty(t, apps, "preview must not write anything to the catalog")
}

func TestFacade_ResolveAllReturnsSortedIDs(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()
	_, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)
	_, err = facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/b/run.sh"})
	require.NoError(t, err)

	ids, err := facade.Resolve("all")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids)
}

func TestFacade_ResolveUnknownIDReturnsErrUnknownID(t *testing.T) {
	facade := newTestFacade(t)
	_, err := facade.Resolve("42")
	require.ErrorIs(t, err, ErrUnknownID)
}

func TestFacade_ResolveUUIDFindsMatchingRecord(t *testing.T) {
	facade := newTestFacade(t)
	id, err := facade.CreateOrUpdate(context.Background(), ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)
	cfg, err := facade.Get(id)
	require.NoError(t, err)

	found, err := facade.ResolveUUID(cfg.UUID)
	require.NoError(t, err)
	assert.Equal(t, id, found)

	_, err = facade.ResolveUUID("does-not-exist")
	require.ErrorIs(t, err, ErrUnknownUUID)
}

func TestFacade_DeleteRemovesRecord(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()
	id, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh"})
	require.NoError(t, err)

	require.NoError(t, facade.Delete(ctx, id))

	_, err = facade.Get(id)
	require.ErrorIs(t, err, ErrUnknownID)
}

func TestFacade_DeleteUnknownIDReturnsErrUnknownID(t *testing.T) {
	facade := newTestFacade(t)
	err := facade.Delete(context.Background(), 99)
	require.ErrorIs(t, err, ErrUnknownID)
}

func TestFacade_LogPathCollisionAppendsNumericSuffix(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()

	first, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/a/run.sh", Name: "worker"})
	require.NoError(t, err)
	second, err := facade.CreateOrUpdate(ctx, ApplicationConfig{Start: "/opt/b/run.sh", Name: "worker"})
	require.NoError(t, err)

	cfgA, err := facade.Get(first)
	require.NoError(t, err)
	cfgB, err := facade.Get(second)
	require.NoError(t, err)

	assert.NotEqual(t, cfgA.AppLogPath, cfgB.AppLogPath)
	assert.Equal(t, "worker.log", filepath.Base(cfgA.AppLogPath))
	assert.Equal(t, "worker-1.log", filepath.Base(cfgB.AppLogPath))
}

func TestFacade_APIBlockRoundTrips(t *testing.T) {
	facade := newTestFacade(t)
	ctx := context.Background()

	empty, err := facade.GetAPIBlock()
	require.NoError(t, err)
	assert.Empty(t, empty.APIToken)

	block := APIBlock{APIToken: "tok-123", NodeName: "node-a", ServerAddress: "https://example.invalid"}
	require.NoError(t, facade.SetAPIBlock(ctx, block))

	got, err := facade.GetAPIBlock()
	require.NoError(t, err)
	assert.Equal(t, block, got)
}
