// Package watch re-runs the PropTypes pipeline on files as they change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/transform"
)

// DefaultDebounce groups the bursts of events editors emit for one save.
const DefaultDebounce = 200 * time.Millisecond

// Target is what the watcher drives.
type Target interface {
	ProcessFile(path string) transform.FileResult
	Forget(path string)
}

// Options configure a Watcher.
type Options struct {
	Scan     scanner.ScanConfig
	Debounce time.Duration

	// OnResult, when set, receives every processed file. Calls never
	// overlap and none happen once Stop has returned.
	OnResult func(transform.FileResult)
}

// Watcher watches a tree and processes changed files after a quiet period.
// Writes made by the pipeline trigger one more pass that finds the file up
// to date.
//
//	w, err := watch.New(transformer, opts, logger)
//	if err != nil {
//	    return err
//	}
//	err = w.Run(ctx, "./src")
type Watcher struct {
	watcher *fsnotify.Watcher
	target  Target
	opts    Options
	logger  *slog.Logger

	root string
	only string

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// processMu serializes the target and OnResult across debounce timers.
	processMu sync.Mutex

	stopChan chan struct{}
	done     chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// New creates a watcher.
func New(target Target, opts Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if err := opts.Scan.Validate(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:        fsw,
		target:         target,
		opts:           opts,
		logger:         logger,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Start watches path, a directory tree or a single file, in the background.
func (w *Watcher) Start(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if info.IsDir() {
		w.root = root
		if err := w.addTree(root); err != nil {
			return err
		}
	} else {
		w.root, w.only = filepath.Dir(root), root
		if err := w.watcher.Add(w.root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.root, err)
		}
	}

	w.started = true
	go w.eventLoop()

	w.logger.Info("file watcher started", "root", root, "debounce", w.opts.Debounce)
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, path string) error {
	if err := w.Start(path); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Stop is idempotent. Pending debounced work is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	// Wait for a file already being processed.
	w.processMu.Lock()
	w.processMu.Unlock()

	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	w.logger.Info("file watcher stopped")
	return err
}

// addTree watches dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to walk directory", "path", path, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Op&fsnotify.Create == fsnotify.Create && w.only == "" {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.ignoredDir(path) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.matches(path) {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write,
		event.Op&fsnotify.Create == fsnotify.Create:
		w.debounceProcess(path)

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		w.cancel(path)
		w.processMu.Lock()
		w.target.Forget(path)
		w.processMu.Unlock()
	}
}

// debounceProcess schedules path after the quiet period; a newer event for
// the same path restarts the timer.
func (w *Watcher) debounceProcess(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	w.debounceTimers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()
		w.process(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
		delete(w.debounceTimers, path)
	}
}

// process runs the target on path unless the watcher has been stopped.
func (w *Watcher) process(path string) {
	w.processMu.Lock()
	defer w.processMu.Unlock()

	select {
	case <-w.stopChan:
		return
	default:
	}

	fr := w.target.ProcessFile(path)
	switch fr.Outcome {
	case transform.OutcomeFailed:
		w.logger.Warn("file not processed", "file", path, "error", fr.Err)
	case transform.OutcomeUpdated:
		w.logger.Info("file updated", "file", path, "components", len(fr.Components))
	default:
		w.logger.Debug("file processed", "file", path, "outcome", fr.Outcome)
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(fr)
	}
}

// matches reports whether path is a file the pipeline should see.
func (w *Watcher) matches(path string) bool {
	if w.only != "" {
		return path == w.only
	}
	rel, ok := w.rel(path)
	if !ok {
		return false
	}
	return !w.opts.Scan.Excluded(rel) && w.opts.Scan.Included(rel)
}

func (w *Watcher) ignoredDir(path string) bool {
	rel, ok := w.rel(path)
	if !ok {
		return true
	}
	return w.opts.Scan.Excluded(rel) || w.opts.Scan.Excluded(rel+"/")
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Stats reports watcher state.
func (w *Watcher) Stats() Stats {
	w.debounceMu.Lock()
	pending := len(w.debounceTimers)
	w.debounceMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Pending: pending,
		Running: w.started && !w.stopped,
	}
}

// Stats contains watcher statistics.
type Stats struct {
	Pending int
	Running bool
}
