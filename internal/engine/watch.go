package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/knowledge-engine/bookrec/internal/catalog"
)

// ErrNotWatchable is returned by Watch for sources that are not local files.
var ErrNotWatchable = errors.New("catalog source is not a local file")

// Watch reloads the catalog whenever its file changes, until ctx is done.
// Bursts of events within the debounce window cause a single reload.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) error {
	src, ok := e.Source.(*catalog.FileSource)
	if !ok {
		return ErrNotWatchable
	}

	path, err := filepath.Abs(src.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file by rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	log := e.Logger.WithField("path", path)
	log.Info("Watching catalog for changes")

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event, path) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watch error")
		case <-timer.C:
			pending = false
			if _, err := e.Reload(ctx); err != nil {
				continue
			}
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return true
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0
}
