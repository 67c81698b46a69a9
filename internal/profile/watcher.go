package profile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the registry when profiles.json changes on disk, so edits
// made by an external tool take effect without restarting the daemon. The
// store saves via tmp+rename, so the watch covers the directory rather than
// the file itself.
type Watcher struct {
	log      *zap.Logger
	registry *Registry
	path     string
	debounce time.Duration
}

// NewWatcher creates a watcher for the registry's backing file.
func NewWatcher(registry *Registry, path string, log *zap.Logger) *Watcher {
	return &Watcher{log: log, registry: registry, path: path, debounce: 300 * time.Millisecond}
}

// Run blocks until ctx is done, reloading after each settle period.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("profile watcher error", zap.Error(err))
		case <-fire:
			timer = nil
			fire = nil
			if err := w.registry.Reload(); err != nil {
				w.log.Warn("profile reload failed", zap.Error(err))
			}
		}
	}
}
