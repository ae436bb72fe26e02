// Package watch implements the --watch CLI convenience: a debounced
// filesystem watcher that re-invokes the batch Indexer on changes instead of
// requiring the operator to run `codesearch index` by hand. The Indexer's
// own contract stays synchronous/batch-only; this package just calls it
// repeatedly.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce    = 500 * time.Millisecond
	maxWatchedDirs     = 1000
	maxWatchedDepth    = 10
)

var skippedDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".codesearch":  true,
}

// Watcher recursively watches a directory tree and invokes onChange after a
// debounce period following the last filesystem event.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	debounce   time.Duration
	onChange   func()
	log        *slog.Logger
	dirCount   int
	dirCountMu sync.Mutex
}

// New creates a Watcher rooted at root. Call Run to start watching.
func New(root string, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		root:      root,
		debounce:  defaultDebounce,
		onChange:  onChange,
		log:       slog.Default(),
	}
	if err := w.addRecursively(root, 0); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Run watches until ctx is cancelled, calling onChange after each debounced
// burst of filesystem activity.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()

	var timer *time.Timer
	var timerMu sync.Mutex
	fire := make(chan struct{}, 1)

	resetTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursively(event.Name, 0); err != nil {
						w.log.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				resetTimer()
			}

		case <-fire:
			w.onChange()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) addRecursively(root string, depth int) error {
	if depth > maxWatchedDepth {
		return nil
	}
	if skippedDirNames[filepath.Base(root)] {
		return nil
	}

	w.dirCountMu.Lock()
	if w.dirCount >= maxWatchedDirs {
		w.dirCountMu.Unlock()
		return fmt.Errorf("watch: directory limit reached (%d)", maxWatchedDirs)
	}
	w.dirCountMu.Unlock()

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("watch: reading %s: %w", root, err)
	}
	if err := w.fsWatcher.Add(root); err != nil {
		return fmt.Errorf("watch: watching %s: %w", root, err)
	}
	w.dirCountMu.Lock()
	w.dirCount++
	w.dirCountMu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() || skippedDirNames[entry.Name()] {
			continue
		}
		if err := w.addRecursively(filepath.Join(root, entry.Name()), depth+1); err != nil {
			w.log.Warn("failed to watch subdirectory", "path", filepath.Join(root, entry.Name()), "error", err)
		}
	}
	return nil
}
