package redirects

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/summitlift/elevator-site/internal/observability/metrics"
	"github.com/summitlift/elevator-site/pkg/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher recompiles the redirect file whenever it changes on disk and swaps
// the result into a Holder. Editors that replace the file via rename are
// handled by watching the parent directory.
type Watcher struct {
	mu       sync.Mutex
	path     string
	holder   *Holder
	metrics  *metrics.RedirectMetrics
	logger   *logging.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the delay between the last file event and the reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher prepares a watcher for path. Call Start to begin watching.
func NewWatcher(path string, holder *Holder, m *metrics.RedirectMetrics, logger *logging.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = logging.Default()
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		metrics:  m,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching in a background goroutine. It is a no-op when the
// watcher is already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run(ctx)

	w.logger.Info("redirects: watching mapping file", "path", w.path)
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	fw := w.watcher
	w.mu.Unlock()

	<-done
	return fw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("redirects: watcher error", "path", w.path, "error", err)
		case <-timer.C:
			w.Reload()
		}
	}
}

// Reload recompiles the file and swaps the new table in.
func (w *Watcher) Reload() {
	rules := LoadFile(w.path, w.logger)
	w.holder.Store(NewTable(rules))
	w.metrics.ObserveReload("file")
	w.logger.Info("redirects: table reloaded", "path", w.path, "rules", len(rules))
}
