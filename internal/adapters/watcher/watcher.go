package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watcher watches individual files through their parent directories,
// so editors that save by renaming a temp file over the original are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	targets   map[string]struct{}
	batches   chan []string
	done      chan struct{}
	stopOnce  sync.Once
	onError   func(error)
}

// NewWatcher creates a Watcher that emits batches after window of quiet.
func NewWatcher(window time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		targets:   make(map[string]struct{}),
		batches:   make(chan []string),
		done:      make(chan struct{}),
		onError:   func(error) {},
	}
	w.debouncer = NewDebouncer(window, w.publish)
	return w, nil
}

// OnError registers a handler for errors reported by the underlying watcher.
func (w *Watcher) OnError(fn func(error)) {
	w.onError = fn
}

// Start begins watching paths. It returns once every parent directory is registered.
func (w *Watcher) Start(ctx context.Context, paths ...string) error {
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve watched path"), "path", p)
		}
		w.targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		err = w.fsWatcher.Close()
	})
	return err
}

// Changes yields debounced batches of changed paths until the watcher stops.
func (w *Watcher) Changes() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for {
			select {
			case batch := <-w.batches:
				if !yield(batch) {
					return
				}
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) publish(paths []string) {
	select {
	case w.batches <- paths:
	case <-w.done:
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if _, watched := w.targets[name]; watched {
				w.debouncer.Add(name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}
