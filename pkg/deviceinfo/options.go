package deviceinfo

import (
	"io"
	"time"
)

// DefaultInitTimeout bounds platform initialization (connecting SSH or ADB).
const DefaultInitTimeout = 10 * time.Second

// Options configures the DeviceInfo instance behavior.
type Options struct {
	// Logger sets a custom logger. If nil, a logger is built from the
	// configuration's log_level and log_format, writing to LogOutput.
	Logger Logger

	// LogOutput is where the configured logger writes. Nil means stderr.
	LogOutput io.Writer

	// Metrics sets a custom metrics collector.
	// If nil, DefaultMetrics() is used.
	Metrics *Metrics

	// ErrorTracker sets a custom error tracker.
	// If nil, DefaultErrorTracker() is used.
	ErrorTracker *ErrorTracker

	// InitTimeout bounds platform initialization.
	// Zero means DefaultInitTimeout.
	InitTimeout time.Duration

	// WatchConfig enables automatic reload when the configuration file
	// changes on disk. Only effective for New.
	WatchConfig bool

	// WatchDebounce sets the debounce interval for file change events.
	// Zero means use the default (500ms).
	WatchDebounce time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		InitTimeout: DefaultInitTimeout,
	}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
