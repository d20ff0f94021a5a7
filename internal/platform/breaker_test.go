package platform

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNewCircuitBreaker_AppliesDefaults(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{})
	def := DefaultBreakerConfig()

	if cb.config.FailureThreshold != def.FailureThreshold {
		t.Errorf("FailureThreshold = %d, want %d", cb.config.FailureThreshold, def.FailureThreshold)
	}
	if cb.config.SuccessThreshold != def.SuccessThreshold {
		t.Errorf("SuccessThreshold = %d, want %d", cb.config.SuccessThreshold, def.SuccessThreshold)
	}
	if cb.config.Timeout != def.Timeout {
		t.Errorf("Timeout = %v, want %v", cb.config.Timeout, def.Timeout)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cb := NewCircuitBreaker(BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
	})
	cb.now = func() time.Time { return now }

	boom := errors.New("connection reset")
	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("Execute() error = %v, want %v", err, boom)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state after failures = %v, want open", cb.State())
	}

	var calls int
	if err := cb.Execute(func() error { calls++; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() while open error = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Error("function ran while circuit was open")
	}
	if cb.Rejections() != 1 {
		t.Errorf("Rejections() = %d, want 1", cb.Rejections())
	}

	now = now.Add(11 * time.Second)
	if cb.State() != CircuitHalfOpen {
		t.Errorf("state after timeout = %v, want half-open", cb.State())
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d error = %v", i, err)
		}
		// Re-admit the next probe.
		cb.mu.Lock()
		cb.halfOpenRequests = 0
		cb.mu.Unlock()
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state after probes = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, Timeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("down") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })

	if cb.State() != CircuitOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
}

func TestBreakerRunner_CommandFailuresDoNotTrip(t *testing.T) {
	r := newBreakerRunner(newLocalRunner(time.Second), BreakerConfig{FailureThreshold: 2})

	for i := 0; i < 5; i++ {
		if _, err := r.Run(context.Background(), "exit 3"); err == nil {
			t.Fatal("Run(exit 3) expected error")
		}
	}
	if r.breaker.State() != CircuitClosed {
		t.Errorf("state = %v, want closed after command failures", r.breaker.State())
	}
}

func TestBreakerRunner_TransportFailuresTrip(t *testing.T) {
	var calls atomic.Int32
	transport := RunnerFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", ErrNotConnected
	})
	r := newBreakerRunner(transport, BreakerConfig{FailureThreshold: 2, Timeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), "getprop"); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("Run() error = %v, want ErrNotConnected", err)
		}
	}
	if _, err := r.Run(context.Background(), "getprop"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Run() error = %v, want ErrCircuitOpen", err)
	}
	if calls.Load() != 2 {
		t.Errorf("transport called %d times, want 2", calls.Load())
	}
}

func TestBreakerRunner_PassesOutput(t *testing.T) {
	transport := RunnerFunc(func(_ context.Context, cmd string) (string, error) {
		return "out:" + cmd, nil
	})
	r := newBreakerRunner(transport, BreakerConfig{})

	got, err := r.Run(context.Background(), "nproc")
	if err != nil || got != "out:nproc" {
		t.Errorf("Run() = %q, %v; want %q, nil", got, err, "out:nproc")
	}
}

func TestAndroidPlatform_CircuitState(t *testing.T) {
	transport := RunnerFunc(func(context.Context, string) (string, error) {
		return "", ErrNotConnected
	})
	p := newRemoteAndroid("android-adb", transport, nil, BreakerConfig{FailureThreshold: 1, Timeout: time.Hour}, nil)

	var reporter CircuitReporter = p
	if got := reporter.CircuitState(); got != CircuitClosed {
		t.Fatalf("initial CircuitState() = %v, want closed", got)
	}
	if _, err := p.runner.Run(context.Background(), "nproc"); err == nil {
		t.Fatal("Run() error = nil, want transport failure")
	}
	if got := p.CircuitState(); got != CircuitOpen {
		t.Errorf("CircuitState() after failure = %v, want open", got)
	}

	local := &androidPlatform{name: "android", runner: newMockRunner(nil)}
	if got := local.CircuitState(); got != CircuitClosed {
		t.Errorf("local CircuitState() = %v, want closed", got)
	}
}
