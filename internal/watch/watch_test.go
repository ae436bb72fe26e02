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

func TestNewWatchesExistingTreeExcludingSkippedDirs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	w, err := New(root, func() {})
	require.NoError(t, err)
	defer w.fsWatcher.Close()

	assert.Equal(t, 2, w.dirCount) // root + src, not .git or node_modules
}

func TestRunFiresOnChangeAfterDebounce(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	var fired atomic.Int32
	w, err := New(root, func() { fired.Add(1) })
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("hi"), 0o644))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, time.Second, 10*time.Millisecond, "onChange should fire after a debounced write")

	cancel()
	<-done
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	w, err := New(root, func() {})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
