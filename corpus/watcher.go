package corpus

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/errors"
)

// Watcher reloads a library when its corpus directory changes on disk.
type Watcher struct {
	library *Library
	watcher *fsnotify.Watcher
	log     *zap.SugaredLogger

	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
}

// NewWatcher creates a watcher over the library's directory. Call Start to
// begin receiving events and Stop to release the underlying watcher.
func NewWatcher(library *Library, log *zap.SugaredLogger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fsWatcher.Add(library.dir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "watch corpus directory %s", library.dir)
	}

	return &Watcher{
		library:        library,
		watcher:        fsWatcher,
		log:            log,
		debouncePeriod: 500 * time.Millisecond,
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops watching and releases the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if w.log != nil {
				w.log.Debugw("Corpus change detected",
					"file", event.Name,
					"op", event.Op.String(),
				)
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnw("Corpus watcher error", "error", err)
			}
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.library.Reload(); err != nil && w.log != nil {
			w.log.Errorw("Corpus reload failed", "error", err)
		}
	})
}
