package platform

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed indicates the transport is functioning normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen indicates the transport is failing and commands are rejected.
	CircuitOpen
	// CircuitHalfOpen indicates a probe command is testing recovery.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker placed in front of remote
// transports.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transport failures
	// before the circuit opens. Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in half-open
	// state required to close the circuit. Default: 2
	SuccessThreshold int

	// Timeout is how long the circuit stays open before a probe is allowed.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxHalfOpenRequests is the number of probes allowed in half-open
	// state. Default: 1
	MaxHalfOpenRequests int

	// OnStateChange is called asynchronously when the circuit state changes.
	OnStateChange func(from, to CircuitState)
}

// DefaultBreakerConfig returns a BreakerConfig with the default thresholds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// CircuitBreaker stops issuing commands to a transport that keeps failing.
type CircuitBreaker struct {
	config BreakerConfig
	now    func() time.Time

	mu               sync.Mutex
	state            CircuitState
	failures         int
	successes        int
	lastFailure      time.Time
	halfOpenRequests int
	totalRejections  int64
}

// NewCircuitBreaker creates a circuit breaker, applying defaults for zero
// values.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	def := DefaultBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxHalfOpenRequests <= 0 {
		config.MaxHalfOpenRequests = def.MaxHalfOpenRequests
	}
	return &CircuitBreaker{config: config, now: time.Now, state: CircuitClosed}
}

// Execute runs fn through the breaker. When the circuit is open it returns
// ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		cb.mu.Lock()
		cb.totalRejections++
		cb.mu.Unlock()
		return ErrCircuitOpen
	}

	err := fn()
	cb.recordResult(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.lastFailure) >= cb.config.Timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Rejections returns the number of commands rejected while open.
func (cb *CircuitBreaker) Rejections() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalRejections
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.config.Timeout {
			cb.transitionTo(CircuitHalfOpen)
			cb.halfOpenRequests = 1
			return true
		}
		return false
	case CircuitHalfOpen:
		if cb.halfOpenRequests < cb.config.MaxHalfOpenRequests {
			cb.halfOpenRequests++
			return true
		}
		return false
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.recordSuccess()
		return
	}

	cb.lastFailure = cb.now()
	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
			cb.failures = 0
			cb.successes = 0
		}
	}
}

// transitionTo must be called with cb.mu held.
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	cb.halfOpenRequests = 0

	if cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(oldState, newState)
	}
}

// breakerRunner guards a Runner with a CircuitBreaker. Commands that ran
// and exited non-zero do not count as transport failures.
type breakerRunner struct {
	Runner
	breaker *CircuitBreaker
}

func newBreakerRunner(r Runner, config BreakerConfig) *breakerRunner {
	return &breakerRunner{Runner: r, breaker: NewCircuitBreaker(config)}
}

func (b *breakerRunner) Run(ctx context.Context, cmd string) (string, error) {
	var out string
	var cmdErr error
	err := b.breaker.Execute(func() error {
		out, cmdErr = b.Runner.Run(ctx, cmd)
		if isTransportError(cmdErr) {
			return cmdErr
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, cmdErr
}

// isTransportError reports whether err means the transport itself failed
// rather than the command.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sshExit *ssh.ExitError
	if errors.As(err, &sshExit) {
		return false
	}
	var execExit *exec.ExitError
	return !errors.As(err, &execExit)
}
