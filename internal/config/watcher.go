package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fluffybytesoftware/fluffymud/internal/filedaemon"
)

// WatchCallback is invoked with the freshly reloaded config after a watched
// file changes.
type WatchCallback func(filedaemon.Config)

// Watcher debounces fsnotify events on a single config file and reloads it
// through Load, delivering the result to a callback.
type Watcher struct {
	mu            sync.Mutex
	watcher       *fsnotify.Watcher
	callback      WatchCallback
	debounceTimer *time.Timer
	watching      bool
	path          string
}

// NewWatcher constructs an unstarted Watcher; call Watch to begin.
func NewWatcher(callback WatchCallback) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	return &Watcher{watcher: watcher, callback: callback}, nil
}

// Watch begins watching path for changes, creating it (and its parent
// directory) if absent. Calling Watch a second time on an already-watched
// path is a no-op.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: absolute path for %s: %w", path, err)
	}
	if w.watching {
		return nil
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.WriteFile(absPath, []byte(sectionHeader+"\n"), 0o644); err != nil {
			return fmt.Errorf("config: create %s: %w", absPath, err)
		}
	}

	// Watch the directory too, so an editor's remove+recreate (atomic save)
	// doesn't leave the watch dangling on an inode that no longer exists.
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch directory %s: %w", dir, err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("config: watch file %s: %w", absPath, err)
	}

	w.path = absPath
	w.watching = true
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create && event.Name == w.path {
				_ = w.watcher.Add(w.path)
			}

			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
			w.mu.Unlock()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	path := w.path
	callback := w.callback
	w.mu.Unlock()

	cfg, err := Load(path)
	if err != nil {
		return
	}
	if callback != nil {
		callback(cfg)
	}
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	return w.watcher.Close()
}
