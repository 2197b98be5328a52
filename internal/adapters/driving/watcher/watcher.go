// Package watcher ingests documents dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ResultFunc receives the outcome of each ingestion.
type ResultFunc func(path string, result *driving.UploadResult, err error)

// Watcher uploads supported files created or written in a directory.
type Watcher struct {
	dir      string
	ingest   driving.IngestService
	debounce time.Duration
	onResult ResultFunc

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService) *Watcher {
	return &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// OnResult registers a callback invoked after every ingestion attempt.
func (w *Watcher) OnResult(fn ResultFunc) {
	w.onResult = fn
}

// Run watches the directory until ctx is cancelled. Ingestion errors are
// logged and never stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for documents", w.dir)

	ready := make(chan string, 16)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case path := <-ready:
				w.ingestFile(ctx, path)
			case <-stop:
				return
			}
		}
	}()

	defer func() {
		w.stopTimers()
		close(stop)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				w.schedule(event.Name, ready, stop)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent reports whether the event should trigger ingestion.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	if isHidden(name) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return w.ingest.Supports(name, mimeFor(name))
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string, ready chan<- string, stop <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-stop:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		w.report(path, nil, err)
		return
	}

	name := filepath.Base(path)
	result, err := w.ingest.Upload(ctx, domain.Document{
		Filename: name,
		MIMEType: mimeFor(name),
		Content:  content,
	})
	switch {
	case err != nil:
		logger.Error("Ingesting %s: %v", path, err)
	case !result.Success():
		logger.Warn("Ingested %s with %d failed lines", path, len(result.Failures))
	default:
		logger.Info("Ingested %s: %d records", path, result.RecordsWritten)
	}
	w.report(path, result, err)
}

func (w *Watcher) report(path string, result *driving.UploadResult, err error) {
	if w.onResult != nil {
		w.onResult(path, result, err)
	}
}

// isHidden reports dotfiles and editor swap files.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}

func mimeFor(name string) string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
}
