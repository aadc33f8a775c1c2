package logtail

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines_MissingFileReturnsEmptySlice(t *testing.T) {
	lines, err := Lines(filepath.Join(t.TempDir(), "does-not-exist.log"), 10)
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestLines_ReturnsLastNOldestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	content := strings.Join([]string{"a", "b", "c", "d", "e"}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, err := Lines(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, lines)
}

func TestLines_RequestingMoreThanAvailableReturnsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("only-one\n"), 0o644))

	lines, err := Lines(path, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"only-one"}, lines)
}

func TestFollow_WritesExistingLinesThenNewlyAppendedOnes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("boot\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, 10, &out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "boot")
	}, time.Second, 5*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "appended")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after context cancellation")
	}
}
