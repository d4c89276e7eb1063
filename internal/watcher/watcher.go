// Package watcher runs tasks when files under the project root change.
//
// Each Binding pairs a glob with a task. Events are debounced per binding
// and every binding has a single worker, so runs of one binding never
// overlap and changes that arrive during a run produce exactly one
// follow-up run.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fileset"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/task"
)

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

// ChangeEvent is a file change relative to the project root.
type ChangeEvent struct {
	Type EventType
	Path string
}

// Binding runs Task whenever a file under Dir matching Files changes. Dir
// is relative to the project root; "." binds the whole project.
type Binding struct {
	Dir   string
	Files *fileset.Selector
	Task  task.Task
}

func (b Binding) match(rel string) bool {
	if b.Dir != "." && b.Dir != "" {
		prefix := b.Dir + "/"
		if !strings.HasPrefix(rel, prefix) {
			return false
		}
		rel = strings.TrimPrefix(rel, prefix)
	}
	return b.Files.Match(rel)
}

// ResultFunc receives the outcome of every binding run.
type ResultFunc func(name string, err error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore lists directory names that are never watched.
	Ignore   []string
	OnResult ResultFunc
}

// Watcher watches a project tree and dispatches changes to bindings.
type Watcher struct {
	root     string
	bindings []Binding
	ignore   map[string]bool
	debounce time.Duration
	onResult ResultFunc
	logger   logging.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	workers []*worker
}

// New creates a watcher for the directory root.
func New(root string, bindings []Binding, opts Options, logger logging.Logger) (*Watcher, error) {
	if len(bindings) == 0 {
		return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid, "watcher needs at least one binding")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}

	ignore := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignore[name] = true
	}

	onResult := opts.OnResult
	if onResult == nil {
		onResult = func(string, error) {}
	}

	return &Watcher{
		root:     abs,
		bindings: bindings,
		ignore:   ignore,
		debounce: opts.Debounce,
		onResult: onResult,
		logger:   logger.WithComponent("watch"),
	}, nil
}

// Name implements task.Task.
func (w *Watcher) Name() string {
	return "watch-files"
}

// Run watches until ctx is cancelled. A run that is in progress when ctx
// is cancelled completes before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return pipeerrors.NewInternalError(pipeerrors.ErrCodeWatchFailed, "creating file watcher", err)
	}
	defer fsw.Close()

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeReadFailed, "watching "+w.root, err).WithTask("watch")
	}

	var wg sync.WaitGroup
	workers := make([]*worker, len(w.bindings))
	for i, b := range w.bindings {
		workers[i] = newWorker(b.Task, w.debounce, w.logger, w.onResult)
		wg.Add(1)
		go func(wk *worker) {
			defer wg.Done()
			wk.run(ctx)
		}(workers[i])
	}
	w.mu.Lock()
	w.workers = workers
	w.mu.Unlock()

	w.logger.Info(ctx, "Watching for changes", "root", w.root, "bindings", len(w.bindings))
	w.watchLoop(ctx, fsw, workers)

	wg.Wait()
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, workers []*worker) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event, workers)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			w.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, workers []*worker) {
	if event.Op == fsnotify.Chmod {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.ignored(rel) {
		return
	}

	change := ChangeEvent{Type: eventType(event.Op), Path: rel}

	if change.Type == EventTypeCreated {
		if err := w.addRecursive(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn(ctx, err, "Failed to watch new directory", "path", rel)
		}
	}

	for i, b := range w.bindings {
		if b.match(change.Path) {
			w.logger.Debug(ctx, "Change detected", "path", change.Path, "event", change.Type.String(), "task", b.Task.Name())
			workers[i].notify()
		}
	}
}

// ignored reports whether any segment of rel is an ignored directory name.
func (w *Watcher) ignored(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if w.ignore[segment] {
			return true
		}
	}
	return false
}

// addRecursive adds path and every directory below it. Files are skipped.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignore[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// WatchedDirs returns the directories currently watched, relative to the
// root.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}

	var dirs []string
	for _, p := range fsw.WatchList() {
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			continue
		}
		dirs = append(dirs, filepath.ToSlash(rel))
	}
	return dirs
}
