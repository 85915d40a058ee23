package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// ownWriteWindow is how long after Save file events are attributed to us.
	ownWriteWindow = 2 * time.Second
	// settle coalesces the burst of events a single save produces.
	settle = 200 * time.Millisecond
)

// Watch reloads the workbook whenever another process modifies it on disk.
// It blocks until ctx is done. In-memory workbooks have nothing to watch.
func (w *Workbook) Watch(ctx context.Context) error {
	dir, match := w.b.watch()
	if dir == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.DebugContext(ctx, "Watching workbook", "dir", dir)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !match(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if w.savedSince(ownWriteWindow) {
				continue
			}
			if err := w.Reload(); err != nil {
				slog.WarnContext(ctx, "Failed to reload workbook", "path", w.path, "err", err)
				continue
			}
			slog.InfoContext(ctx, "Workbook modified on disk, reloaded", "path", w.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching workbook", "err", err)
		}
	}
}
