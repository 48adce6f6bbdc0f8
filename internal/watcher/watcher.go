// Package watcher turns a directory tree into a stream of FileEvents: the
// files already present at startup, followed by every file created later.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// ErrRootRemoved is returned by Run when the watched root itself goes away.
var ErrRootRemoved = errors.New("watched root was removed")

// Options tunes a Watcher.
type Options struct {
	// Debounce is how long a created file must stay quiet (no further
	// writes) before its event is emitted.
	Debounce time.Duration
	// Skip, when set, drops paths that should never be emitted.
	Skip func(path string) bool
}

// Watcher emits the backlog under root and then live creation events.
type Watcher struct {
	root string
	opts Options

	mu      sync.Mutex
	pending map[string]*time.Timer
	settled chan string
	stopped chan struct{}
}

// New creates a Watcher for root.
func New(root string, opts Options) *Watcher {
	return &Watcher{
		root:    filepath.Clean(root),
		opts:    opts,
		pending: make(map[string]*time.Timer),
		settled: make(chan string),
		stopped: make(chan struct{}),
	}
}

// Run adds watches over the whole tree, emits the backlog on out, then
// emits live events until ctx is done. It returns nil on cancellation and
// an error when the tree can no longer be watched. Run may be called once.
func (w *Watcher) Run(ctx context.Context, out chan<- domain.FileEvent) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer func() {
		close(w.stopped)
		w.stopTimers()
		fsw.Close()
	}()

	// Watches go in before the walk so nothing created during the scan is
	// missed; a file seen by both is coalesced downstream.
	if err := addTree(fsw, w.root); err != nil {
		return err
	}

	count := 0
	err = Scan(ctx, w.root, w.opts.Skip, func(path string) error {
		ev := domain.NewFileEvent(path)
		ev.Backlog = true
		count++
		return send(ctx, out, ev)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("backlog scan failed: %w", err)
	}
	logger.Log.Info().Str("root", w.root).Int("files", count).Msg("Backlog scan complete, watching for new files")

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-w.settled:
			if err := send(ctx, out, domain.NewFileEvent(path)); err != nil {
				return nil
			}

		case ev, ok := <-fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			if err := w.handle(fsw, ev); err != nil {
				return err
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Log.Warn().Err(err).Str("root", w.root).Msg("Event queue overflowed, rescanning")
				if err := w.rescan(fsw, w.root); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) error {
	path := filepath.Clean(ev.Name)

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if path == w.root {
			return ErrRootRemoved
		}
		w.cancel(path)

	case ev.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		if err != nil {
			// Gone again before we looked.
			return nil
		}
		if info.IsDir() {
			logger.Log.Debug().Str("dir", path).Msg("New directory, watching")
			return w.rescan(fsw, path)
		}
		w.schedule(path)

	case ev.Has(fsnotify.Write):
		w.touch(path)
	}
	return nil
}

// rescan watches every directory under dir and schedules every file in it.
func (w *Watcher) rescan(fsw *fsnotify.Watcher, dir string) error {
	if err := addTree(fsw, dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) && dir != w.root {
			return nil
		}
		return err
	}
	err := Scan(context.Background(), dir, w.opts.Skip, func(path string) error {
		w.schedule(path)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("rescan %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) schedule(path string) {
	if w.opts.Skip != nil && w.opts.Skip(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.arm(path)
}

// touch pushes back a pending emission; writes to files that were already
// emitted are ignored.
func (w *Watcher) touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		w.arm(path)
	}
}

// arm starts a fresh debounce timer for path. A timer that already fired
// and is waiting on w.mu finds itself replaced and does nothing. Callers
// hold w.mu.
func (w *Watcher) arm(path string) {
	var t *time.Timer
	t = time.AfterFunc(w.opts.Debounce, func() { w.fire(path, t) })
	w.pending[path] = t
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) fire(path string, t *time.Timer) {
	w.mu.Lock()
	if w.pending[path] != t {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.settled <- path:
	case <-w.stopped:
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func send(ctx context.Context, out chan<- domain.FileEvent, ev domain.FileEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- ev:
		return nil
	}
}
