// Package watcher reloads the guide document when it changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader rebuilds the knowledge base from a document path.
type Reloader interface {
	ReloadFile(ctx context.Context, path string) error
}

// DocumentWatcher watches one document. Editors often replace a file
// rather than write it in place, so the parent directory is watched and
// events are filtered by name. Bursts of events collapse into one reload.
type DocumentWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	reloader Reloader
	logger   *zap.Logger
}

// NewDocumentWatcher starts watching the directory that holds path.
func NewDocumentWatcher(path string, debounce time.Duration, reloader Reloader, logger *zap.Logger) (*DocumentWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &DocumentWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		reloader: reloader,
		logger:   logger,
	}, nil
}

// Run dispatches reloads until ctx is done or the watcher is closed.
func (w *DocumentWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Guide document changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.reloader.ReloadFile(ctx, w.path); err != nil {
				// The previous knowledge base stays in service.
				w.logger.Warn("Guide document reload failed", zap.String("path", w.path), zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *DocumentWatcher) Close() error {
	return w.watcher.Close()
}

func (w *DocumentWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
