// Package watch reports image files that change in a project directory.
//
// Changes are debounced and compared by content, so an editor that saves a
// file in several steps produces one event and rewriting a file with the
// bytes it already had produces none. Remember lets the owner of the
// directory register its own writes so they are not reported back to it.
package watch

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const eventChannelBuffer = 64

// Config configures a Watcher
type Config struct {
	// Debounce is how long changes are collected before being reported
	Debounce time.Duration
	// Extensions lists the file extensions worth reporting
	Extensions []string
}

// DefaultConfig watches the usual image formats with a half second debounce
func DefaultConfig() Config {
	return Config{
		Debounce:   500 * time.Millisecond,
		Extensions: []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"},
	}
}

// Op is the kind of change
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
)

// Event is a changed file
type Event struct {
	// Path is the absolute path of the file
	Path string
	// Name is the base name of the file
	Name string
	Op   Op
}

// Watcher watches a single directory
type Watcher struct {
	dir        string
	debounce   time.Duration
	extensions map[string]bool
	watcher    *fsnotify.Watcher
	logger     *log.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events  chan Event
	dropped atomic.Int64
}

// New returns a watcher for dir. Start must be called to begin watching.
func New(dir string, cfg Config, logger *log.Logger) (*Watcher, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}

	extensions := make(map[string]bool)
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	return &Watcher{
		dir:        dir,
		debounce:   cfg.Debounce,
		extensions: extensions,
		watcher:    fsw,
		logger:     logger,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of changes. It is closed once the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start records the current content of every watched file and starts
// watching for changes until ctx is cancelled or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && w.interesting(e.Name()) {
			if err := w.Remember(filepath.Join(w.dir, e.Name())); err != nil {
				return err
			}
		}
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Printf("Watching \"%s\"\n", w.dir)

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Remember records the current content of path so that it is only reported
// once it changes again
func (w *Watcher) Remember(path string) error {
	sum, err := hashFile(path)
	if err != nil {
		return err
	}
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = sum
	return nil
}

// Dropped returns the number of events lost because nobody was reading
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

func (w *Watcher) interesting(name string) bool {
	// Hidden files include our own temporary files
	if strings.HasPrefix(name, ".") {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(name))]
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Watcher error: %v\n", err)
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	// A file moved into place arrives as a create
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.interesting(filepath.Base(event.Name)) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sum, err := hashFile(path)
		if err != nil {
			// Gone again, or still being written; a later event will follow
			if !os.IsNotExist(err) {
				w.logger.Printf("Unable to read \"%s\": %v\n", path, err)
			}
			continue
		}

		w.hashMu.Lock()
		old, known := w.hashes[path]
		w.hashes[path] = sum
		w.hashMu.Unlock()

		if known && old == sum {
			continue
		}

		event := Event{
			Path: path,
			Name: filepath.Base(path),
			Op:   OpModify,
		}
		if op.Has(fsnotify.Create) || !known {
			event.Op = OpCreate
		}
		w.send(event)
	}
}

func (w *Watcher) send(event Event) {
	select {
	case w.events <- event:
	default:
		w.logger.Printf("Dropped %s event for \"%s\" (%d total)\n", event.Op, event.Name, w.dropped.Add(1))
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}
