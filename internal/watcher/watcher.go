// Package watcher reports changes to the session database made by other
// processes, so a running live view can reload without polling storage.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds watcher configuration options.
type Config struct {
	DBPath   string
	Debounce time.Duration

	// OnError receives fsnotify errors. Watching continues after an error.
	OnError func(error)
}

// Watcher coalesces bursts of writes to the database file (and its WAL)
// into single notifications.
type Watcher struct {
	fs       *fsnotify.Watcher
	names    map[string]bool
	dir      string
	debounce time.Duration
	onError  func(error)
	changes  chan struct{}
	done     chan struct{}
}

func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	base := filepath.Base(cfg.DBPath)
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		fs:       fsw,
		names:    map[string]bool{base: true, base + "-wal": true},
		dir:      filepath.Dir(cfg.DBPath),
		debounce: debounce,
		onError:  cfg.OnError,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the database directory. The returned channel receives a
// value after each quiet period following one or more relevant writes.
// Notifications are dropped, not queued, while one is still pending.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fs.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	go w.loop()
	return w.changes, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-w.done:
			return
		}
	}
}

// relevant reports writes or creates of the database or its WAL file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return w.names[filepath.Base(ev.Name)]
}
