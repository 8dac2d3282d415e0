package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor write bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a dataset file whenever it changes on disk.
type Watcher struct {
	Path     string
	Debounce time.Duration
	Log      *log.Logger
	// OnLoad receives every successfully parsed reload.
	OnLoad func(*Dataset)
	// OnError receives load failures; the previous dataset stays in effect.
	OnError func(error)
}

// Run watches until ctx is done. The parent directory is watched rather than
// the file so that editors which replace the file on save keep working.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Log
	if logger == nil {
		logger = log.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Debug("watching dataset", "path", target)

	timer := time.NewTimer(0)
	<-timer.C // drain initial timer
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)

		case <-timer.C:
			d, err := Load(target)
			if err != nil {
				logger.Error("dataset reload failed", "path", target, "err", err)
				if w.OnError != nil {
					w.OnError(err)
				}
				continue
			}
			nodes, edges := d.Len()
			logger.Info("dataset reloaded", "nodes", nodes, "edges", edges)
			if w.OnLoad != nil {
				w.OnLoad(d)
			}
		}
	}
}
