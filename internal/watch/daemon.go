package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"labelwatch/internal/config"
	"labelwatch/internal/errors"
	"labelwatch/internal/log"
	"labelwatch/internal/printer"
	"labelwatch/pkg/types"

	"github.com/gofrs/flock"
)

// LockFileName is created next to the configuration file while a daemon runs
const LockFileName = "labelwatch.lock"

// ShutdownGrace bounds how long Run waits for an in-flight job after
// cancellation
var ShutdownGrace = 5 * time.Second

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running          bool
	WatchDirectories []string
	LockFilePath     string
	Router           RouterStatus
}

// Daemon runs the watch, split and print service for one directory
type Daemon struct {
	dir      string
	store    *config.Store
	cfg      *config.Configuration
	router   *Router
	lockPath string
	lock     *flock.Flock

	mutex   sync.RWMutex
	watcher *Watcher
	running bool
}

// ResolveWatchDir returns home/file_directory, or file_directory itself when
// it is absolute. The directory must exist.
func ResolveWatchDir(cfg *config.Configuration, home string) (string, error) {
	dir := cfg.FileDirectory()
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(home, dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFileError("watch directory does not exist", dir, errors.FileNotFound, err)
		}
		return "", errors.NewFileError("cannot access watch directory", dir, errors.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return "", errors.NewFileError("watch path is not a directory", dir, errors.InvalidPath, nil)
	}
	return dir, nil
}

// NewDaemon creates a daemon watching dir and printing through p. The
// configuration is reloaded from store before each job; store may be nil.
func NewDaemon(dir string, store *config.Store, cfg *config.Configuration, p printer.Printer) *Daemon {
	var source ConfigSource
	lockDir := os.TempDir()
	if store != nil {
		source = store
		lockDir = filepath.Dir(store.Path())
	}
	lockPath := filepath.Join(lockDir, LockFileName)

	return &Daemon{
		dir:      dir,
		store:    store,
		cfg:      cfg,
		router:   NewRouter(cfg, source, printer.NewDispatcher(p)),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
}

// Router returns the event router
func (d *Daemon) Router() *Router {
	return d.router
}

// SetCallback sets a function to be called after every dispatched job
func (d *Daemon) SetCallback(cb func(types.PrintJob, types.DispatchResult)) {
	d.router.SetCallback(cb)
}

// Run acquires the single-instance lock, watches the directory and prints
// label files until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0755); err != nil {
		return errors.NewFileError("cannot create lock directory", d.lockPath, errors.FileWriteFailed, err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return errors.NewFileError("cannot acquire lock", d.lockPath, errors.FileAccessDenied, err)
	}
	if !ok {
		return errors.Newf("another labelwatch instance is already running (lock %s)", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			log.LogWithFields(log.F("lock", d.lockPath), log.F("error", err)).Warn("Failed to release lock")
		}
	}()

	watcher, err := New(d.cfg.SettleDelay())
	if err != nil {
		return err
	}
	if err := watcher.AddDirectory(d.dir); err != nil {
		watcher.Stop()
		return err
	}
	if err := watcher.Start(); err != nil {
		watcher.Stop()
		return err
	}

	d.mutex.Lock()
	d.watcher = watcher
	d.running = true
	d.mutex.Unlock()

	log.LogWithFields(log.F("directory", d.dir), log.F("lock", d.lockPath)).Info("labelwatch started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.router.Run(ctx, watcher.Events())
	}()

	<-ctx.Done()
	log.Info("Stopping labelwatch")
	watcher.Stop()

	select {
	case <-done:
	case <-time.After(ShutdownGrace):
		log.LogWithFields(log.F("grace", ShutdownGrace.String())).Warn("In-flight print job did not finish before shutdown")
	}

	d.mutex.Lock()
	d.running = false
	d.mutex.Unlock()

	log.Info("labelwatch stopped")
	return nil
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	status := DaemonStatus{
		Running:      d.running,
		LockFilePath: d.lockPath,
		Router:       d.router.Status(),
	}
	if d.watcher != nil && d.running {
		status.WatchDirectories = d.watcher.GetDirectories()
	}
	return status
}
