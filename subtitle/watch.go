package subtitle

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/corbinu/playhead/internal/logger"
)

// Watcher reloads a local subtitle track when the file changes on disk.
// Reload failures keep the previous track, same as any other failed load.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// WatchFile starts watching path and reloading it through loader. The
// returned Watcher must be closed when the track association changes.
func WatchFile(ctx context.Context, loader *Loader, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory; editors often replace the file wholesale, which
	// drops a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{loader: loader, watcher: fsw, cancel: cancel}

	go w.run(ctx, path)
	return w, nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context, path string) {
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.loader.Load(ctx, path); err != nil {
				logger.Warn("subtitle reload failed", logger.String("path", path), logger.Err("error", err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("subtitle watcher error", logger.String("path", path), logger.Err("error", err))
		}
	}
}
