// ABOUTME: Watches session.json and restores the store when another process changes it
// ABOUTME: Built on fsnotify; runs until its context is canceled

package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-restores a Store when its session file changes on disk, so a
// login or logout from another keep process reaches a running TUI.
type Watcher struct {
	store   *Store
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher watches the directory holding path. The directory is watched
// rather than the file because storage replaces the file by rename.
func NewWatcher(store *Store, path string) (*Watcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create session watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{store: store, path: path, watcher: fw}, nil
}

// Run blocks until ctx is done, then closes the underlying watcher
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			before := w.store.Token()
			if err := w.store.Restore(); err != nil {
				slog.Warn("Session reload failed", "error", err)
				continue
			}
			if before != w.store.Token() {
				slog.Info("Session changed on disk", "authenticated", w.store.IsAuthenticated())
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Session watcher error", "error", err)
		}
	}
}
