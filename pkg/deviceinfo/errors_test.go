package deviceinfo

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrorCategoryUnknown, "unknown"},
		{ErrorCategoryConfig, "config"},
		{ErrorCategoryPlatform, "platform"},
		{ErrorCategoryOperation, "operation"},
		{ErrorCategoryWatch, "watch"},
		{ErrorCategory(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.category.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionError(t *testing.T) {
	err := &ActionError{Action: ActionBatteryInfo, Message: "Error obteniendo info de batería: boom"}
	if got := err.Error(); got != "getBatteryInfo: Error obteniendo info de batería: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCategorizedError(t *testing.T) {
	base := errors.New("dial tcp 10.0.0.5:22: connection refused")
	err := NewCategorizedError(base, ErrorCategoryPlatform)

	if !errors.Is(err, base) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !strings.HasPrefix(err.Error(), "[platform] dial tcp") {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	empty := &CategorizedError{Category: ErrorCategoryConfig}
	if empty.Error() != "[config] (no error)" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestNewErrorTrackerDefaults(t *testing.T) {
	tracker := NewErrorTracker(ErrorTrackerConfig{})
	if tracker.maxErrors != 1000 || tracker.retentionTime != time.Hour {
		t.Errorf("maxErrors=%d retention=%v", tracker.maxErrors, tracker.retentionTime)
	}
}

func TestErrorTrackerRecord(t *testing.T) {
	tracker := NewErrorTracker(ErrorTrackerConfig{MaxErrors: 3})

	tracker.Record(nil)
	for i := 0; i < 4; i++ {
		tracker.Record(NewCategorizedError(errors.New("x"), ErrorCategoryOperation))
	}
	tracker.Record(NewCategorizedError(errors.New("y"), ErrorCategoryConfig))

	stats := tracker.Stats()
	if stats.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3 (bounded)", stats.TotalErrors)
	}
	if stats.TotalByCategory[ErrorCategoryOperation] != 4 {
		t.Errorf("lifetime operation errors = %d, want 4", stats.TotalByCategory[ErrorCategoryOperation])
	}
	if stats.ErrorsByCategory[ErrorCategoryConfig] != 1 {
		t.Errorf("retained config errors = %d, want 1", stats.ErrorsByCategory[ErrorCategoryConfig])
	}

	recent := tracker.RecentErrors(2)
	if len(recent) != 2 || recent[1].Category != ErrorCategoryConfig {
		t.Errorf("RecentErrors(2) = %v", recent)
	}
	if tracker.RecentErrors(0) != nil {
		t.Error("RecentErrors(0) should be nil")
	}
}

func TestErrorTrackerRetention(t *testing.T) {
	tracker := NewErrorTracker(ErrorTrackerConfig{RetentionTime: time.Minute})

	old := NewCategorizedError(errors.New("old"), ErrorCategoryWatch)
	old.Timestamp = time.Now().Add(-2 * time.Minute)
	tracker.Record(old)
	tracker.Record(NewCategorizedError(errors.New("new"), ErrorCategoryWatch))

	if got := tracker.Stats().TotalErrors; got != 1 {
		t.Errorf("TotalErrors = %d, want 1 after pruning", got)
	}
}

func TestErrorTrackerErrorRate(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())
	for i := 0; i < 10; i++ {
		tracker.Record(NewCategorizedError(errors.New("x"), ErrorCategoryOperation))
	}

	if rate := tracker.ErrorRate(10 * time.Second); rate != 1 {
		t.Errorf("ErrorRate = %v, want 1/s", rate)
	}
	if rate := tracker.ErrorRate(0); rate != 0 {
		t.Errorf("ErrorRate(0) = %v, want 0", rate)
	}
}

func TestDefaultErrorTracker(t *testing.T) {
	if DefaultErrorTracker() != DefaultErrorTracker() {
		t.Error("DefaultErrorTracker should return a singleton")
	}
}

func TestErrorTrackerByAction(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())
	battery := &ActionError{Action: ActionBatteryInfo, Message: "no battery"}

	tracker.Record(NewCategorizedError(battery, ErrorCategoryOperation))
	tracker.Record(NewCategorizedError(fmt.Errorf("call: %w", battery), ErrorCategoryOperation))
	tracker.Record(NewCategorizedError(errors.New("plain"), ErrorCategoryOperation))

	byAction := tracker.Stats().ByAction
	if len(byAction) != 1 || byAction[ActionBatteryInfo] != 2 {
		t.Errorf("ByAction = %v, want %s:2", byAction, ActionBatteryInfo)
	}
}
