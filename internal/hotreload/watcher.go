// Package hotreload watches a blueprint file and turns each saved revision
// into a hot update for a running store.
package hotreload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/stately/internal/blueprint"
	"github.com/roach88/stately/store"
)

// Update is one reloaded revision of the watched file. Err is set when the
// file could not be read or parsed; the store should be left alone then.
type Update struct {
	Path      string
	Blueprint *blueprint.Blueprint
	Err       error
}

// Watcher reloads a blueprint whenever it changes on disk.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temp file over the original are picked up. Bursts of
// events are coalesced by a debounce delay.
//
// Updates are delivered on a channel with room for one: if the consumer
// falls behind, an unread update is replaced by the newer one.
//
// Thread-safety: Start and Stop may be called from any goroutine. The
// store itself must only be touched by the consumer of Updates.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *slog.Logger
	updates  chan Update
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before it is
// reloaded. Default: 200ms
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New creates a watcher for the blueprint at path. Call Start to begin.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		path:     abs,
		debounce: 200 * time.Millisecond,
		logger:   slog.Default(),
		updates:  make(chan Update, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Updates returns the channel of reloaded revisions. It is closed once the
// watcher stops.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Start begins watching. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.running = true
	w.logger.Debug("watching blueprint", "path", w.path)
	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit. It is safe to
// call more than once, and without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fs.Close(); err != nil {
		w.logger.Error("closing watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.updates)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("blueprint changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerCh:
			timerCh = nil
			w.publish(w.load())
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) load() Update {
	bp, err := blueprint.LoadFile(w.path)
	if err != nil {
		w.logger.Warn("blueprint reload failed", "path", w.path, "error", err)
	}
	return Update{Path: w.path, Blueprint: bp, Err: err}
}

// publish delivers u, replacing an unread older update.
func (w *Watcher) publish(u Update) {
	select {
	case w.updates <- u:
		return
	default:
	}
	select {
	case <-w.updates:
	default:
	}
	w.updates <- u
}

// ErrNoBlueprint is returned by Apply for an update without a blueprint.
var ErrNoBlueprint = errors.New("hotreload: update has no blueprint")

// Apply hot-updates s with the handlers of u's blueprint. State is kept.
// Store settings in the file (strict, dev_mode) only take effect on a
// fresh store.
func Apply(s *store.Store, u Update) error {
	if u.Err != nil {
		return u.Err
	}
	if u.Blueprint == nil {
		return ErrNoBlueprint
	}
	raw, err := blueprint.Compile(&u.Blueprint.Module)
	if err != nil {
		return err
	}
	s.HotUpdate(raw)
	return nil
}
