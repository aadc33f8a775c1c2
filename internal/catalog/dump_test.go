package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_CheckDumpReturnsErrNoDumpBeforeFirstSave(t *testing.T) {
	facade := newTestFacade(t)
	_, _, err := facade.CheckDump()
	require.ErrorIs(t, err, ErrNoDump)
}

func TestFacade_CheckDumpMatchesRightAfterSave(t *testing.T) {
	facade := newTestFacade(t)
	_, err := facade.CreateOrUpdate(context.Background(), ApplicationConfig{Start: "/opt/a/run.sh", Name: "a"})
	require.NoError(t, err)
	require.NoError(t, facade.Save())

	configsMatch, listsMatch, err := facade.CheckDump()
	require.NoError(t, err)
	assert.True(t, configsMatch, "a fresh save must report the catalog as matching")
	assert.True(t, listsMatch, "a fresh save must report the app list as matching")
}

func TestFacade_CheckDumpDetectsConfigDriftAfterSave(t *testing.T) {
	facade := newTestFacade(t)
	id, err := facade.CreateOrUpdate(context.Background(), ApplicationConfig{Start: "/opt/a/run.sh", Name: "a"})
	require.NoError(t, err)
	require.NoError(t, facade.Save())

	_, err = facade.CreateOrUpdate(context.Background(), ApplicationConfig{Start: "/opt/a/run.sh", Name: "a-renamed"})
	require.NoError(t, err)

	configsMatch, listsMatch, err := facade.CheckDump()
	require.NoError(t, err)
	assert.False(t, configsMatch, "renaming an app after save must be reported as drift")
	assert.False(t, listsMatch, "the saved list snapshot carries the old name, so it diverges too")
	_ = id
}
