package bridge

import "errors"

var (
	// ErrExecutorClosed is returned when a task is submitted to a closed pool.
	ErrExecutorClosed = errors.New("executor closed")

	// ErrSerialization wraps failures to encode an operation result.
	ErrSerialization = errors.New("serializing result")

	// ErrOperationPanic wraps a recovered panic inside an operation.
	ErrOperationPanic = errors.New("operation panicked")

	// ErrDuplicateOperation is returned when two operations share a name.
	ErrDuplicateOperation = errors.New("duplicate operation")
)
