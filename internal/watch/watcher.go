package watch

import (
	"os"
	"sync"
	"time"

	"labelwatch/internal/errors"
	"labelwatch/internal/log"
	"labelwatch/pkg/types"

	"github.com/fsnotify/fsnotify"
)

// EventBuffer is the capacity of the channel returned by Events. Modified
// events wait for room instead of being dropped.
const EventBuffer = 32

// Watcher monitors directories for file changes using fsnotify
type Watcher struct {
	// Directories being watched
	directories []string

	// Channel delivering watch events to the single consumer
	events chan types.WatchEvent

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// How long a path must be quiet before its modified event is sent
	settle time.Duration

	// Pending settle timers by path
	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	// Guards running, stopped and directories. Every send on events is
	// registered in senders under the read lock, so Stop can wait for them
	// before closing the channel.
	mutex   sync.RWMutex
	running bool
	stopped bool
	senders sync.WaitGroup
}

// New creates a new directory watcher. Writes to a path are coalesced into
// one modified event once the path has been quiet for settle; a zero settle
// sends one event per fsnotify write or create.
func New(settle time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if settle < 0 {
		settle = 0
	}

	return &Watcher{
		directories: []string{},
		events:      make(chan types.WatchEvent, EventBuffer),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
		settle:      settle,
		pending:     make(map[string]*time.Timer),
	}, nil
}

// AddDirectory adds a directory to watch. Subdirectories are not watched.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileError("watch directory does not exist", dir, errors.FileNotFound, err)
		}
		return errors.NewFileError("error accessing watch directory", dir, errors.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("watch path is not a directory", dir, errors.InvalidPath, nil)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return errors.NewFileError("failed to add directory to watcher", dir, errors.FileAccessDenied, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	log.LogWithFields(log.F("directory", dir)).Info("Watching directory")
	return nil
}

// Events returns the channel that delivers watch events. It is closed by Stop.
func (w *Watcher) Events() <-chan types.WatchEvent {
	return w.events
}

// Start begins the file watching process
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	if w.stopped {
		w.mutex.Unlock()
		return errors.New("watcher was stopped and cannot be restarted")
	}
	w.running = true
	w.mutex.Unlock()

	go w.loop()

	log.LogWithFields(log.F("settle", w.settle.String())).Info("Watcher started")
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				log.Debug("fsnotify events channel closed")
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				log.Debug("fsnotify errors channel closed")
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			// The file may already be gone again.
			if !os.IsNotExist(err) {
				log.LogWithFields(log.F("file", event.Name), log.F("error", err)).Error("Error stating file")
			}
			return
		}
		if info.IsDir() {
			return
		}
		w.schedule(event.Name)

	case event.Op.Has(fsnotify.Remove):
		w.cancel(event.Name)
		w.send(types.NewWatchEvent(event.Name, types.Removed))

	case event.Op.Has(fsnotify.Rename):
		w.cancel(event.Name)
		w.send(types.NewWatchEvent(event.Name, types.Renamed))
	}
}

// schedule sends a modified event for path once it has settled
func (w *Watcher) schedule(path string) {
	if w.settle == 0 {
		w.deliver(types.NewWatchEvent(path, types.Modified))
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()
		w.deliver(types.NewWatchEvent(path, types.Modified))
	})
}

func (w *Watcher) cancel(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// deliver hands a modified event to the consumer, waiting while the
// channel is full. Only Stop abandons it.
func (w *Watcher) deliver(ev types.WatchEvent) {
	w.mutex.RLock()
	if !w.running {
		w.mutex.RUnlock()
		return
	}
	w.senders.Add(1)
	w.mutex.RUnlock()
	defer w.senders.Done()

	select {
	case w.events <- ev:
	case <-w.stopChan:
		log.LogWithFields(log.F("file", ev.Path)).Warn("Watcher stopped before event was delivered")
	}
}

// send delivers ev without blocking; a full channel drops the event.
// Used for kinds that never produce a print job.
func (w *Watcher) send(ev types.WatchEvent) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if !w.running {
		return
	}
	select {
	case w.events <- ev:
	default:
		log.LogWithFields(log.F("file", ev.Path), log.F("kind", string(ev.Kind))).Debug("Event channel is full, dropped event")
	}
}

// Stop halts the file watching process, releases the fsnotify subscription
// and closes the events channel. A watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	close(w.stopChan)
	w.running = false
	w.stopped = true
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}

	w.pendingMu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	// Blocked deliveries return once stopChan is closed.
	w.senders.Wait()
	close(w.events)

	log.Info("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the list of directories being watched
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, len(w.directories))
	copy(dirs, w.directories)
	return dirs
}
