package deviceinfo

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewCorrelationID(t *testing.T) {
	id1 := NewCorrelationID()
	id2 := NewCorrelationID()

	if id1 == id2 {
		t.Error("correlation IDs should be unique")
	}
	if _, err := uuid.Parse(id1.String()); err != nil {
		t.Errorf("correlation ID %q is not a UUID: %v", id1, err)
	}
}

func TestWithCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-42")
	if got := CorrelationIDFromContext(ctx); got != "req-42" {
		t.Errorf("CorrelationIDFromContext = %q, want req-42", got)
	}

	generated := WithCorrelationID(context.Background(), "")
	if CorrelationIDFromContext(generated) == "" {
		t.Error("empty ID should be replaced by a generated one")
	}
}

func TestCorrelationIDFromContext(t *testing.T) {
	if got := CorrelationIDFromContext(context.Background()); got != "" {
		t.Errorf("got %q from empty context", got)
	}
	if got := CorrelationIDFromContext(nil); got != "" {
		t.Errorf("got %q from nil context", got)
	}
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "keep-me")
	if got := CorrelationIDFromContext(EnsureCorrelationID(ctx)); got != "keep-me" {
		t.Errorf("EnsureCorrelationID replaced existing ID with %q", got)
	}

	if CorrelationIDFromContext(EnsureCorrelationID(context.Background())) == "" {
		t.Error("EnsureCorrelationID should add an ID")
	}
}

func TestCorrelatedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := TextLogger(&buf, slog.LevelDebug)

	ctx := WithCorrelationID(context.Background(), "abc-123")
	log := NewCorrelatedLogger(ctx, base)
	log.Debug("d", "action", ActionBatteryInfo)
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	out := buf.String()
	if got := strings.Count(out, "correlation_id=abc-123"); got != 4 {
		t.Errorf("correlation_id appears %d times, want 4:\n%s", got, out)
	}
	if !strings.Contains(out, "action=getBatteryInfo") {
		t.Errorf("missing caller fields:\n%s", out)
	}
}

func TestCorrelatedLogger_WithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := NewCorrelatedLogger(context.Background(), TextLogger(&buf, slog.LevelInfo))
	log.Info("plain")

	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("unexpected correlation_id:\n%s", buf.String())
	}
}

func TestCorrelatedLogger_NilLogger(t *testing.T) {
	log := NewCorrelatedLogger(context.Background(), nil)
	log.Info("discarded")
}
