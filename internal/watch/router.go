package watch

import (
	"context"
	"os"
	"sync"
	"time"

	"labelwatch/internal/config"
	"labelwatch/internal/errors"
	"labelwatch/internal/label"
	"labelwatch/internal/log"
	"labelwatch/pkg/types"
)

// State of the router
type State int

const (
	// Idle means no event is in flight
	Idle State = iota
	// Processing means one event is being handled
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	default:
		return "unknown"
	}
}

// ConfigSource re-reads the configuration before each job
type ConfigSource interface {
	Load() (*config.Configuration, error)
}

// JobDispatcher prints a job and reports the outcome
type JobDispatcher interface {
	Dispatch(ctx context.Context, job types.PrintJob, cfg *config.Configuration) types.DispatchResult
}

// RouterStatus is a snapshot of the router counters
type RouterStatus struct {
	State        State
	Processed    int // jobs where every segment printed
	Failed       int // jobs with at least one failure, including unreadable files
	LastActivity time.Time
}

// Router turns watch events into print jobs, one event at a time
type Router struct {
	source     ConfigSource
	dispatcher JobDispatcher
	matcher    *label.Matcher

	mutex        sync.RWMutex
	cfg          *config.Configuration
	state        State
	processed    int
	failed       int
	lastActivity time.Time
	callback     func(types.PrintJob, types.DispatchResult)
}

// NewRouter creates a router owning cfg. source may be nil, in which case
// cfg is never reloaded.
func NewRouter(cfg *config.Configuration, source ConfigSource, dispatcher JobDispatcher) *Router {
	if cfg == nil {
		cfg = config.New()
	}
	return &Router{
		source:     source,
		dispatcher: dispatcher,
		matcher:    label.DefaultMatcher(),
		cfg:        cfg,
		state:      Idle,
	}
}

// SetMatcher replaces the file name filter
func (r *Router) SetMatcher(m *label.Matcher) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.matcher = m
}

// SetCallback sets a function to be called after every dispatched job
func (r *Router) SetCallback(cb func(types.PrintJob, types.DispatchResult)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.callback = cb
}

// State returns the current state
func (r *Router) State() State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.state
}

// Config returns the configuration the last job was printed with
func (r *Router) Config() *config.Configuration {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.cfg
}

// Status returns the router counters
func (r *Router) Status() RouterStatus {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return RouterStatus{
		State:        r.state,
		Processed:    r.processed,
		Failed:       r.failed,
		LastActivity: r.lastActivity,
	}
}

// Run consumes events until the channel is closed or ctx is done.
// Cancelling ctx stops intake; a job already being printed runs to
// completion.
func (r *Router) Run(ctx context.Context, events <-chan types.WatchEvent) {
	jobCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || ctx.Err() != nil {
				return
			}
			r.Handle(jobCtx, ev)
		}
	}
}

// ErrIgnored is returned by Process for events that are not modifications
// of a label file
var ErrIgnored = errors.New("event ignored")

// Handle runs the print pipeline for one event and reports whether a job
// was dispatched. Every failure is logged and counted; none escapes.
func (r *Router) Handle(ctx context.Context, ev types.WatchEvent) bool {
	_, err := r.Process(ctx, ev)
	return err == nil
}

// Process runs the print pipeline for one event. It returns ErrIgnored for
// events the router does not act on, and a FileError when the label file
// cannot be read. Print failures do not make it fail; they are reported in
// the DispatchResult.
func (r *Router) Process(ctx context.Context, ev types.WatchEvent) (types.DispatchResult, error) {
	if ev.Kind != types.Modified {
		return types.DispatchResult{}, ErrIgnored
	}
	r.mutex.RLock()
	matcher := r.matcher
	r.mutex.RUnlock()
	if !matcher.Match(ev.Path) {
		return types.DispatchResult{}, ErrIgnored
	}

	r.setState(Processing)
	defer r.setState(Idle)

	logger := log.LogWithFields(log.F("file", ev.Path))
	logger.Info("Detected label file")

	content, err := os.ReadFile(ev.Path)
	if err != nil {
		kind := errors.FileReadFailed
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		ferr := errors.NewFileError("cannot read label file", ev.Path, kind, err)
		logger.WithError(ferr).Error("Dropping event")
		r.record(ev, false)
		return types.DispatchResult{}, ferr
	}

	cfg := r.reload(logger)

	job := label.Split(content).WithSource(ev.Path)
	logger = logger.With(log.F("job", job.ID))
	if job.Dropped > 0 {
		logger.With(log.F("dropped", job.Dropped)).Warn("Label file has more than one form delimiter, extra parts are not printed")
	}
	logger.With(log.F("segments", len(job.Segments))).Info("Dispatching print job")

	result := r.dispatcher.Dispatch(ctx, job, cfg)
	if result.OK() {
		logger.With(log.F("printed", result.Printed())).Info("Print job complete")
	} else {
		logger.With(log.F("printed", result.Printed()), log.F("segments", len(job.Segments))).Warn("Print job finished with errors")
	}

	switch {
	case result.Aborted:
		if cfg.DeleteFiles() {
			logger.Warn("Print job aborted before printing, keeping source file")
		}
	case cfg.DeleteFiles():
		if err := os.Remove(ev.Path); err != nil {
			ferr := errors.NewFileError("cannot delete label file", ev.Path, errors.FileDeleteFailed, err)
			logger.WithError(ferr).Error("Error deleting source file")
		} else {
			logger.Info("Deleted source file")
		}
	}

	r.record(ev, result.OK())

	r.mutex.RLock()
	cb := r.callback
	r.mutex.RUnlock()
	if cb != nil {
		cb(job, result)
	}
	return result, nil
}

// reload refreshes the configuration, keeping the last good one on failure
func (r *Router) reload(logger *log.Logger) *config.Configuration {
	r.mutex.RLock()
	cfg := r.cfg
	r.mutex.RUnlock()
	if r.source == nil {
		return cfg
	}

	fresh, err := r.source.Load()
	if err != nil {
		logger.WithError(err).Warn("Error reloading configuration, using last good configuration")
		return cfg
	}

	r.mutex.Lock()
	r.cfg = fresh
	r.mutex.Unlock()
	return fresh
}

func (r *Router) setState(s State) {
	r.mutex.Lock()
	r.state = s
	r.mutex.Unlock()
}

func (r *Router) record(ev types.WatchEvent, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if ok {
		r.processed++
	} else {
		r.failed++
	}
	r.lastActivity = ev.Timestamp
	if r.lastActivity.IsZero() {
		r.lastActivity = time.Now()
	}
}
