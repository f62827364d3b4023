// Package watch re-copies stripped source every time a watched file is saved.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jrandolf/pystrip/internal/sink"
	"github.com/jrandolf/pystrip/internal/source"
	"github.com/jrandolf/pystrip/internal/unit"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 200 * time.Millisecond

// Config holds watcher settings.
type Config struct {
	// Paths are files or directories. Directories are watched without
	// recursion; files are watched through their parent directory so that
	// editors that save by rename are still seen.
	Paths    []string
	Mode     unit.Mode
	Source   source.Options
	Banner   string
	Debounce time.Duration
	Sink     sink.Sink
	Logger   *slog.Logger
}

// Watcher copies the transformed text of a changed file to its sink.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	files   map[string]bool // explicitly named files; empty means any eligible file
	ready   chan string
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New starts watching cfg.Paths. Events are not handled until Run is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Sink == nil {
		return nil, fmt.Errorf("watch: no sink configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Banner == "" {
		cfg.Banner = unit.Banner
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		files:   make(map[string]bool),
		ready:   make(chan string, 16),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}

	for _, p := range cfg.Paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dir := abs
	if !info.IsDir() {
		if !source.Eligible(abs, w.cfg.Source) {
			return &source.ErrUnsupportedFileType{Extension: filepath.Ext(abs)}
		}
		w.files[abs] = true
		dir = filepath.Dir(abs)
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.cfg.Logger.Debug("watching", "path", dir)
	return nil
}

// Close stops the underlying watcher and any pending timers. It is safe to
// call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.mu.Unlock()
		err = w.fsw.Close()
	})
	return err
}

// Run handles events until ctx is done. Errors handling a single file are
// logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.wants(event.Name) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Error("watcher error", "error", err)
		case path := <-w.ready:
			if err := w.Handle(ctx, path); err != nil {
				w.cfg.Logger.Warn("failed to copy file", "file", path, "error", err)
			}
		}
	}
}

func (w *Watcher) wants(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	// A directory was named: take any eligible file in it
	return w.watchesDir(filepath.Dir(abs)) && source.Eligible(abs, w.cfg.Source)
}

func (w *Watcher) watchesDir(dir string) bool {
	for _, p := range w.cfg.Paths {
		abs, err := filepath.Abs(p)
		if err == nil && abs == dir {
			return true
		}
	}
	return false
}

// schedule restarts path's debounce timer. Editors often write a file in
// several steps; only the last one matters.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(path)
}

// scheduleLocked is schedule with w.mu held.
func (w *Watcher) scheduleLocked(path string) {
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		current := w.pending[path] == timer
		if current {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if !current {
			// Superseded by a later write
			return
		}
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
	w.pending[path] = timer
}

// Handle transforms path and writes the joined units to the sink.
func (w *Watcher) Handle(ctx context.Context, path string) error {
	doc, err := source.Open(path, w.cfg.Source)
	if err != nil {
		return err
	}

	results, err := unit.TransformConcurrent(ctx, w.cfg.Mode, doc.Units(), 0)
	if err != nil {
		return err
	}

	if err := w.cfg.Sink.WriteText(unit.JoinWith(unit.Texts(results), w.cfg.Banner)); err != nil {
		return err
	}
	w.cfg.Logger.Info("copied", "file", path, "units", len(results), "sink", w.cfg.Sink.Name())
	return nil
}
