// Package watcher reloads the document set when files in a watched
// directory change.
package watcher

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches one directory and invokes a reload callback when any
// matching file is created, written, renamed, or removed. Events are
// debounced as a group: a burst of changes triggers one reload.
type Watcher struct {
	root       string
	extensions []string
	onReload   func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	logger     *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
	started bool
	stopped sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher over root. extensions filter which files
// count as document changes (empty = all). onReload is called after the
// debounce window closes.
func NewWatcher(root string, extensions []string, onReload func(), opts ...Option) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		extensions: extensions,
		onReload:   onReload,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The root is created when missing. Start returns
// immediately; events are handled on a background goroutine until Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watcher starting",
		zap.String("root", w.root),
		zap.Strings("extensions", w.extensions))
	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !matchExtension(ev.Name, w.extensions) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Debug("watcher reloading (debounced)", zap.String("root", w.root))
		if w.onReload != nil {
			w.onReload()
		}
	})
}

// Stop stops the watcher and cancels any pending reload.
func (w *Watcher) Stop() {
	w.stopped.Do(func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		started := w.started
		w.mu.Unlock()
		close(w.done)
		if started {
			_ = w.watcher.Close()
		}
	})
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range extensions {
		if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
			return true
		}
	}
	return false
}

// LoadDirectory reads every matching file directly under root into a
// document set, sorted by name so the fingerprint is stable.
func LoadDirectory(root string, extensions []string) (models.DocumentSet, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var set models.DocumentSet
	for _, entry := range entries {
		if entry.IsDir() || !matchExtension(entry.Name(), extensions) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, err
		}
		set = append(set, models.Document{
			Name:    entry.Name(),
			Size:    int64(len(content)),
			Content: content,
		})
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Name < set[j].Name })
	return set, nil
}
