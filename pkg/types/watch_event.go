package types

import "time"

// ChangeKind is the kind of file system change behind a WatchEvent
type ChangeKind string

// Change kinds. Only Modified triggers printing.
const (
	Created  ChangeKind = "created"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
	Renamed  ChangeKind = "renamed"
)

// WatchEvent is a single notification from the watch subscription.
// Each event is consumed exactly once.
type WatchEvent struct {
	Path      string
	Kind      ChangeKind
	Timestamp time.Time
}

// NewWatchEvent creates an event stamped with the current time
func NewWatchEvent(path string, kind ChangeKind) WatchEvent {
	return WatchEvent{
		Path:      path,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}
