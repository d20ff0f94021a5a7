package lua

import "errors"

var (
	// ErrNilRuntime is returned when a nil runtime is passed to a function that requires one.
	ErrNilRuntime = errors.New("runtime cannot be nil")

	// ErrNilHandler is returned when a host is created without a command handler.
	ErrNilHandler = errors.New("command handler cannot be nil")

	// ErrFunctionNotFound is returned when a named global function does not exist.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrResourceLimit is returned when a script exceeds its CPU or memory limit.
	ErrResourceLimit = errors.New("Lua resource limit exceeded")
)
