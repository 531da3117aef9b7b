package tracker

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Watcher triggers a tracking run whenever a target data file changes.
// It exists for local use without the external polling loop: events
// are debounced so a burst of writes (e.g. a git checkout) produces a
// single run.
type Watcher struct {
	runner  *Runner
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changed paths before running
	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// NewWatcher creates a watcher over the runner's data root.
func NewWatcher(runner *Runner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		runner:  runner,
		watcher: fsw,
		logger:  runner.logger,
		pending: make(map[string]struct{}),
	}, nil
}

// Watch blocks, executing a run for every debounced batch of target
// file changes, until the context is cancelled. Each outcome is passed
// to onRun; a failed run is logged and does not stop the watch.
func (w *Watcher) Watch(ctx context.Context, opts RunOptions, onRun func(*Outcome)) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.runner.cfg.Repo.Path); err != nil {
		return err
	}

	w.logger.Info("Watching data root",
		slog.String("root", w.runner.cfg.Repo.Path),
		slog.Duration("debounce", w.runner.cfg.Watch.Debounce))

	ticker := time.NewTicker(w.runner.cfg.Watch.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending(ctx, opts, onRun)
		}
	}
}

// handleFSEvent records a change to a target data file.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.runner.cfg.Repo.Path, event.Name)
	if err != nil {
		return
	}
	if !w.isTarget(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Data file change detected",
		slog.String("path", rel),
		slog.String("op", event.Op.String()))
}

// isTarget reports whether a root-relative path matches any configured
// target name or pattern.
func (w *Watcher) isTarget(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, target := range w.runner.cfg.Scan.Targets {
		if ok, err := doublestar.Match(target, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// flushPending executes one run covering all accumulated changes.
func (w *Watcher) flushPending(ctx context.Context, opts RunOptions, onRun func(*Outcome)) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	changed := len(w.pending)
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	w.logger.Debug("Running after data file changes", slog.Int("files", changed))

	outcome, err := w.runner.Run(ctx, opts)
	if err != nil {
		w.logger.Error("Run failed", slog.String("error", err.Error()))
		return
	}
	if onRun != nil {
		onRun(outcome)
	}
}
