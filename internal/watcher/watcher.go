// Package watcher reloads local state when another process writes the store.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/hemma/internal/logger"
)

// Watcher watches the store's directory and calls reload once a burst of
// writes to the store file (or its journal) has settled.
type Watcher struct {
	storePath string
	debounce  time.Duration
	reload    func()

	fsw    *fsnotify.Watcher
	wg     sync.WaitGroup
	stopCh chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func New(storePath string, debounce time.Duration, reload func()) *Watcher {
	return &Watcher{
		storePath: storePath,
		debounce:  debounce,
		reload:    reload,
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching. The directory is watched rather than the file
// because the JSON store replaces its file on every write.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.storePath)); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Debug("Store watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !w.relevant(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
		w.schedule()
	}
}

// relevant matches the store file and its companions (hemma.db-wal, hemma.json.tmp).
func (w *Watcher) relevant(name string) bool {
	return strings.HasPrefix(filepath.Base(name), filepath.Base(w.storePath))
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		logger.Debug("Store changed on disk, reloading", "path", w.storePath)
		w.reload()
	})
}

// Stop ends the watch loop and cancels a pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
