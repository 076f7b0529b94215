// Package activity feeds user-input observations into the idle detector.
// The file watcher counts writes under the configured paths as activity:
// an editor save means the user is working even when the terminal sees no
// keystrokes.
package activity

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
)

// Watcher is a filesystem-backed ports.ActivitySource
type Watcher struct {
	paths []string

	mu      sync.Mutex
	stopped bool
	watcher *fsnotify.Watcher
}

// Verify interface compliance at compile time
var _ ports.ActivitySource = (*Watcher)(nil)

// NewWatcher creates a Watcher over the given directories.
func NewWatcher(paths []string) *Watcher {
	return &Watcher{paths: paths}
}

// Start begins watching and invokes onActivity for every create, write,
// or rename under the watched paths. Paths that cannot be watched are
// logged and skipped; Start only fails when the watcher itself cannot be
// created or no path could be watched.
func (w *Watcher) Start(onActivity func()) error {
	if len(w.paths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	watched := 0
	for _, path := range w.paths {
		if err := watcher.Add(path); err != nil {
			logging.Logger.Warn("cannot watch path for activity", "path", path, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return fmt.Errorf("no watchable activity paths among %d configured", len(w.paths))
	}

	w.mu.Lock()
	w.watcher = watcher
	w.stopped = false
	w.mu.Unlock()

	go w.loop(onActivity)
	return nil
}

// Stop closes the watcher. No onActivity callback is delivered after Stop
// returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil || w.stopped {
		return nil
	}
	w.stopped = true
	return w.watcher.Close()
}

func (w *Watcher) loop(onActivity func()) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			stopped := w.stopped
			w.mu.Unlock()
			if stopped {
				return
			}
			onActivity()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Logger.Debug("file watcher error", "error", err)
		}
	}
}
