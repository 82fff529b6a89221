package settings

import (
	"os"
	"sync"
	"time"

	"github.com/xtding233/burst-helper/internal/clock"
)

// FileWatcher polls file modification times and triggers a callback on
// change. Used to pick up hand edits of the settings file.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration

	clock     clock.Clock
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval. A nil
// clock means the real one.
func NewFileWatcher(paths []string, interval time.Duration, clk clock.Clock, onChange func(string)) *FileWatcher {
	if clk == nil {
		clk = clock.Real()
	}
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		clock:     clk,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start primes the mtime cache and begins polling in a goroutine.
func (w *FileWatcher) Start() {
	w.scanAll(true)
	ticker := w.clock.NewTicker(w.Interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher and waits for the poll loop to exit.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// scanAll checks mtimes and invokes onChange for files that changed
// since the last scan. A file that appears after Start counts as a
// change.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime || (ok && !mt.After(last)) {
			continue
		}
		if w.onChange != nil {
			w.onChange(p)
		}
	}
}

// Watch reloads s whenever the file behind key in store changes on disk.
func Watch(s *Settings, store FileStore, interval time.Duration, clk clock.Clock) *FileWatcher {
	w := NewFileWatcher([]string{store.Path(StorageKey)}, interval, clk, func(path string) {
		s.log.Info("settings file changed, reloading", "path", path)
		s.Load()
	})
	w.Start()
	return w
}
