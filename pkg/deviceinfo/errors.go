package deviceinfo

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrClosed is returned by calls on a closed instance.
	ErrClosed = errors.New("deviceinfo: instance closed")

	// ErrUnknownAction is returned by Call for an action no operation serves.
	ErrUnknownAction = errors.New("deviceinfo: unknown action")

	// ErrNotWatchable is returned when WatchConfig is set for a source
	// that is not a file on disk.
	ErrNotWatchable = errors.New("deviceinfo: configuration source cannot be watched")
)

// ActionError is the failure delivered to an action's error callback,
// surfaced as an error by Call.
type ActionError struct {
	Action  string
	Message string
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// ErrorCategory represents the type of error for categorization purposes.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for configuration parsing and validation errors.
	ErrorCategoryConfig
	// ErrorCategoryPlatform is for building or connecting platform sources.
	ErrorCategoryPlatform
	// ErrorCategoryOperation is for actions reported through the error callback.
	ErrorCategoryOperation
	// ErrorCategoryWatch is for configuration file watching errors.
	ErrorCategoryWatch

	numErrorCategories
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryPlatform:
		return "platform"
	case ErrorCategoryOperation:
		return "operation"
	case ErrorCategoryWatch:
		return "watch"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with a category and timestamp for tracking.
type CategorizedError struct {
	// Err is the underlying error.
	Err error
	// Category classifies the type of error.
	Category ErrorCategory
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] (no error)", e.Category)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a new CategorizedError stamped with the current time.
func NewCategorizedError(err error, category ErrorCategory) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// ErrorTracker keeps a bounded window of recent errors plus lifetime counts
// per category and per failing action. Safe for concurrent use.
type ErrorTracker struct {
	mu            sync.RWMutex
	errors        []CategorizedError
	byAction      map[string]int64
	maxErrors     int
	retentionTime time.Duration

	categoryCounters [numErrorCategories]atomic.Int64
}

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors is the maximum number of errors to retain (default: 1000).
	MaxErrors int
	// RetentionTime is how long to retain errors (default: 1 hour).
	RetentionTime time.Duration
}

// DefaultErrorTrackerConfig returns a configuration with sensible defaults.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
	}
}

// NewErrorTracker creates a new ErrorTracker with the given configuration.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 1000
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = time.Hour
	}

	return &ErrorTracker{
		errors:        make([]CategorizedError, 0, cfg.MaxErrors),
		byAction:      make(map[string]int64),
		maxErrors:     cfg.MaxErrors,
		retentionTime: cfg.RetentionTime,
	}
}

// Record adds an error to the tracker. An *ActionError anywhere in the
// chain is also counted against its action.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if err.Category >= 0 && err.Category < numErrorCategories {
		t.categoryCounters[err.Category].Add(1)
	}

	var actionErr *ActionError
	isAction := errors.As(err.Err, &actionErr)

	t.mu.Lock()
	defer t.mu.Unlock()

	if isAction {
		t.byAction[actionErr.Action]++
	}
	t.errors = append(t.retained(time.Now()), *err)
	if over := len(t.errors) - t.maxErrors; over > 0 {
		t.errors = t.errors[over:]
	}
}

// retained returns the errors still inside the retention window at now.
// Must be called with mu held.
func (t *ErrorTracker) retained(now time.Time) []CategorizedError {
	cutoff := now.Add(-t.retentionTime)
	i := 0
	for i < len(t.errors) && !t.errors[i].Timestamp.After(cutoff) {
		i++
	}
	return t.errors[i:]
}

// ErrorRate returns errors per second over the trailing window.
func (t *ErrorTracker) ErrorRate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	count := 0
	for _, err := range t.errors {
		if err.Timestamp.After(cutoff) {
			count++
		}
	}

	return float64(count) / window.Seconds()
}

// Stats returns a snapshot of error statistics.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ErrorStats{
		TotalErrors:      len(t.errors),
		ErrorsByCategory: make(map[ErrorCategory]int),
		TotalByCategory:  make(map[ErrorCategory]int64),
		ByAction:         make(map[string]int64, len(t.byAction)),
	}
	for action, n := range t.byAction {
		stats.ByAction[action] = n
	}
	for _, err := range t.errors {
		stats.ErrorsByCategory[err.Category]++
	}
	for i := range t.categoryCounters {
		if n := t.categoryCounters[i].Load(); n > 0 {
			stats.TotalByCategory[ErrorCategory(i)] = n
		}
	}
	return stats
}

// RecentErrors returns the most recent errors, up to the specified limit.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}

	start := len(t.errors) - limit
	if start < 0 {
		start = 0
	}

	result := make([]CategorizedError, len(t.errors)-start)
	copy(result, t.errors[start:])
	return result
}

// ErrorStats provides a summary of error statistics.
type ErrorStats struct {
	// TotalErrors is the number of errors currently retained.
	TotalErrors int
	// ErrorsByCategory counts retained errors by category.
	ErrorsByCategory map[ErrorCategory]int
	// TotalByCategory contains lifetime totals per category.
	TotalByCategory map[ErrorCategory]int64
	// ByAction contains lifetime totals of action failures per action name.
	ByAction map[string]int64
}

var (
	defaultErrorTracker     *ErrorTracker
	defaultErrorTrackerOnce sync.Once
)

// DefaultErrorTracker returns the global default ErrorTracker instance.
func DefaultErrorTracker() *ErrorTracker {
	defaultErrorTrackerOnce.Do(func() {
		defaultErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	})
	return defaultErrorTracker
}
