package deviceinfo

import "time"

// Status represents the current state of a DeviceInfo instance.
type Status struct {
	// Platform is the name of the active platform (e.g. "linux", "adb-android").
	Platform string
	// Transport is the configured transport ("local", "ssh" or "adb").
	Transport string
	// StartTime is when the instance was created.
	StartTime time.Time
	// ReloadTime is when the configuration was last reloaded (zero if never).
	ReloadTime time.Time
	// InFlight is the number of dispatched actions not yet finished.
	InFlight int64
	// Closed reports whether Close has been called.
	Closed bool
	// LastError is the most recent error encountered (nil if none).
	LastError error
	// ConfigSource describes the configuration source (file path, "embedded:<path>",
	// "reader" or "defaults").
	ConfigSource string
}

// ErrorHandler is a callback for runtime errors such as failed reloads.
// It is called asynchronously; do not block in the handler.
type ErrorHandler func(err error)

// EventHandler is a callback for lifecycle events.
// It is called asynchronously; do not block in the handler.
type EventHandler func(event Event)

// Event represents a lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle event types.
type EventType int

const (
	// EventConfigReloaded is emitted when configuration is reloaded.
	EventConfigReloaded EventType = iota
	// EventPlatformChanged is emitted when a reload swaps the platform sources.
	EventPlatformChanged
	// EventError is emitted when a recoverable error occurs.
	EventError
	// EventClosed is emitted when the instance is closed.
	EventClosed
)

// String returns a human-readable representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventConfigReloaded:
		return "config_reloaded"
	case EventPlatformChanged:
		return "platform_changed"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}
