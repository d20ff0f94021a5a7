package bridge

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs operations that must not block the dispatching goroutine.
type Executor interface {
	// Execute schedules task. It returns an error when the task cannot be
	// accepted; an accepted task always runs.
	Execute(task func()) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func()) error

// Execute calls f(task).
func (f ExecutorFunc) Execute(task func()) error {
	return f(task)
}

// InlineExecutor runs every task on the calling goroutine.
var InlineExecutor Executor = ExecutorFunc(func(task func()) error {
	task()
	return nil
})

// WorkerPool is a bounded goroutine pool. At most size tasks run at once;
// excess submissions wait for a slot without blocking the caller.
type WorkerPool struct {
	sem    *semaphore.Weighted
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewWorkerPool creates a pool running at most size tasks concurrently.
// A size below one is treated as one.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size))}
}

// Execute schedules task on the pool.
func (p *WorkerPool) Execute(task func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrExecutorClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		// Acquire with a background context cannot fail.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Close stops accepting tasks and waits for accepted ones to finish.
// Safe to call multiple times.
func (p *WorkerPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}
