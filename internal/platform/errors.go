package platform

import "errors"

var (
	// ErrNotConnected is returned when a remote transport is used before
	// Initialize or after Close.
	ErrNotConnected = errors.New("transport not connected")

	// ErrCommandTimeout is returned when a shell command exceeds the
	// configured command timeout.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrCircuitOpen is returned when the transport circuit breaker is open
	// and rejecting commands.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrNoDevice is returned when the ADB server reports no matching device.
	ErrNoDevice = errors.New("no matching device")

	// ErrUnsupportedPlatform is returned by the factory for unknown targets.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid platform config")
)
