package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the default debounce interval for file watch events.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reparses a configuration file whenever it changes and hands the
// result to a callback.
type Watcher struct {
	watcher   *fsnotify.Watcher
	parser    *Parser
	filePath  string
	debounce  time.Duration
	onReload  func(*Config)
	onError   func(error)
	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewWatcher creates a Watcher for filePath. onReload receives every
// configuration that parses and validates; onError receives parse and
// watch errors. Either may be nil.
func NewWatcher(filePath string, debounce time.Duration, onReload func(*Config), onError func(error)) (*Watcher, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		parser.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	// Watch the directory so editors that save by rename keep firing events.
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		watcher.Close()
		parser.Close()
		return nil, err
	}

	return &Watcher{
		watcher:   watcher,
		parser:    parser,
		filePath:  filePath,
		debounce:  debounce,
		onReload:  onReload,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching for file changes in a goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.watchLoop()
}

// Stop stops the watcher and waits for its goroutine. A Watcher cannot be
// restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Watcher) reload() {
	cfg, err := w.parser.ParseFile(w.filePath)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// watchLoop is the main event loop for file watching with debouncing.
func (w *Watcher) watchLoop() {
	defer close(w.stoppedCh)
	defer w.parser.Close()
	defer w.watcher.Close()

	absPath, _ := filepath.Abs(w.filePath)
	baseName := filepath.Base(w.filePath)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			eventAbs, _ := filepath.Abs(event.Name)
			if filepath.Base(event.Name) != baseName && eventAbs != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			w.reload()
			debounceTimer = nil
			debounceCh = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
