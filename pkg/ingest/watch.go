package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// Watch re-runs ingestion with a collection reset whenever the CSV at path
// is written or recreated, until ctx is cancelled. onRun receives the
// outcome of every run; a failed run does not stop the watch.
func (in *Ingester) Watch(ctx context.Context, path string, opts Options, debounce time.Duration, onRun func(Stats, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	opts.Reset = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating csv watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching csv dir: %w", err)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			in.logger.Info("seed csv changed, re-indexing", "path", path)
			stats, err := in.Run(ctx, path, opts)
			if err != nil {
				in.logger.Error("re-indexing failed", "error", err)
			}
			if onRun != nil {
				onRun(stats, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("csv watcher error: %w", err)
		}
	}
}
