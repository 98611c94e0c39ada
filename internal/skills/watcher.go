package skills

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates a selector's discovery cache when skill directories
// change on disk, so new or edited manifests take effect without a restart.
type Watcher struct {
	watcher  *fsnotify.Watcher
	selector *Selector
	logger   *slog.Logger
}

// NewWatcher watches the selector's base directories. Directories that do
// not exist yet are skipped; the caller may recreate the watcher after
// provisioning them.
func NewWatcher(selector *Selector, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range selector.BaseDirs {
		if err := fsw.Add(dir); err != nil {
			logger.Debug("skill dir not watchable", "dir", dir, "error", err)
		}
	}
	return &Watcher{watcher: fsw, selector: selector, logger: logger}, nil
}

// Run processes filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("skill directory changed, invalidating cache", "path", event.Name)
				w.selector.InvalidateCache()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("skill watcher error", "error", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
