// Package bridge implements the command-dispatch side of the device-info
// plugin: a host shell sends a named action with positional arguments and a
// callback handle, the dispatcher routes it to an operation and reports the
// outcome through exactly one of the callback's success or error channels.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Callback receives the outcome of a dispatched action.
// Exactly one of Success or Error is invoked per recognized action.
type Callback interface {
	// Success receives the JSON-encoded result object.
	Success(payload []byte)
	// Error receives a human-readable failure message.
	Error(message string)
}

// CallbackFuncs adapts a pair of functions to the Callback interface.
// Nil functions are ignored.
type CallbackFuncs struct {
	OnSuccess func(payload []byte)
	OnError   func(message string)
}

// Success calls OnSuccess.
func (c CallbackFuncs) Success(payload []byte) {
	if c.OnSuccess != nil {
		c.OnSuccess(payload)
	}
}

// Error calls OnError.
func (c CallbackFuncs) Error(message string) {
	if c.OnError != nil {
		c.OnError(message)
	}
}

// CommandHandler is the capability the host shell invokes.
type CommandHandler interface {
	// Dispatch routes action and reports whether it was handled. For an
	// unhandled action the callback is never invoked.
	Dispatch(action string, args []any, cb Callback) bool
}

// Operation declares one action served by the dispatcher.
type Operation struct {
	// Name is the action name the host sends.
	Name string
	// RunsOnWorker submits the operation to the executor instead of running
	// it on the dispatching goroutine.
	RunsOnWorker bool
	// ErrorPrefix is prepended to the failure message sent to the host.
	ErrorPrefix string
	// Read produces the result object, which is JSON-encoded for Success.
	Read func(ctx context.Context, args []any) (any, error)
}

// Outcome classifies a finished dispatch for metrics.
type Outcome int

const (
	// OutcomeSucceeded means Success was invoked.
	OutcomeSucceeded Outcome = iota
	// OutcomeFailed means Error was invoked.
	OutcomeFailed
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Logger is the slog-style logger used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder observes dispatches. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordDispatch(action string, outcome Outcome, latency time.Duration)
	RecordUnhandled(action string)
	RecordWorkerSubmit(action string)
}

// Options configures a Dispatcher.
type Options struct {
	// Executor runs worker operations. Nil means InlineExecutor.
	Executor Executor
	// Logger receives diagnostics. Nil disables logging.
	Logger Logger
	// Recorder receives dispatch metrics. Nil disables recording.
	Recorder Recorder
	// Context is the base context for operations started by Dispatch.
	// Nil means context.Background().
	Context context.Context
}

// Dispatcher routes named actions to operations. It holds no per-request
// state and is safe for concurrent use.
type Dispatcher struct {
	ops      map[string]Operation
	exec     Executor
	log      Logger
	rec      Recorder
	ctx      context.Context
	inFlight atomic.Int64
}

// Verify interface implementation at compile time.
var _ CommandHandler = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher serving ops.
func NewDispatcher(ops []Operation, opts Options) (*Dispatcher, error) {
	d := &Dispatcher{
		ops:  make(map[string]Operation, len(ops)),
		exec: opts.Executor,
		log:  opts.Logger,
		rec:  opts.Recorder,
		ctx:  opts.Context,
	}
	if d.exec == nil {
		d.exec = InlineExecutor
	}
	if d.log == nil {
		d.log = nopLogger{}
	}
	if d.ctx == nil {
		d.ctx = context.Background()
	}

	for _, op := range ops {
		if op.Name == "" || op.Read == nil {
			return nil, fmt.Errorf("invalid operation %q: name and Read are required", op.Name)
		}
		if _, dup := d.ops[op.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOperation, op.Name)
		}
		d.ops[op.Name] = op
	}
	return d, nil
}

// Actions returns the names of the served actions.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.ops))
	for name := range d.ops {
		names = append(names, name)
	}
	return names
}

// InFlight returns the number of dispatched operations not yet finished.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Dispatch implements CommandHandler using the dispatcher's base context.
func (d *Dispatcher) Dispatch(action string, args []any, cb Callback) bool {
	return d.DispatchContext(d.ctx, action, args, cb)
}

// DispatchContext is Dispatch with an explicit context for the operation.
func (d *Dispatcher) DispatchContext(ctx context.Context, action string, args []any, cb Callback) bool {
	op, ok := d.ops[action]
	if !ok {
		d.log.Debug("unhandled action", "action", action)
		if d.rec != nil {
			d.rec.RecordUnhandled(action)
		}
		return false
	}

	once := &onceCallback{cb: cb}
	d.inFlight.Add(1)

	if !op.RunsOnWorker {
		d.run(ctx, op, args, once)
		return true
	}

	if d.rec != nil {
		d.rec.RecordWorkerSubmit(action)
	}
	err := d.exec.Execute(func() {
		d.run(ctx, op, args, once)
	})
	if err != nil {
		d.finish(op, once, nil, fmt.Errorf("scheduling: %w", err), time.Now())
	}
	return true
}

// run executes op and reports through cb. Panics become errors.
func (d *Dispatcher) run(ctx context.Context, op Operation, args []any, cb *onceCallback) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.finish(op, cb, nil, fmt.Errorf("%w: %v", ErrOperationPanic, r), start)
		}
	}()

	result, err := op.Read(ctx, args)
	if err != nil {
		d.finish(op, cb, nil, err, start)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		d.finish(op, cb, nil, fmt.Errorf("%w: %v", ErrSerialization, err), start)
		return
	}
	d.finish(op, cb, payload, nil, start)
}

// finish delivers the outcome. Only the first call per dispatch has effect.
func (d *Dispatcher) finish(op Operation, cb *onceCallback, payload []byte, err error, start time.Time) {
	if !cb.claim() {
		return
	}
	d.inFlight.Add(-1)

	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
	}
	if d.rec != nil {
		d.rec.RecordDispatch(op.Name, outcome, time.Since(start))
	}

	if err != nil {
		d.log.Error("operation failed", "action", op.Name, "error", err)
		cb.deliverError(op.ErrorPrefix + err.Error())
		return
	}
	d.log.Debug("operation succeeded", "action", op.Name, "bytes", len(payload))
	cb.deliverSuccess(payload)
}

// onceCallback guarantees a single Success or Error per dispatch.
type onceCallback struct {
	cb      Callback
	claimed atomic.Bool
}

// claim reports whether the caller is the first to finish the dispatch.
func (o *onceCallback) claim() bool {
	return o.claimed.CompareAndSwap(false, true)
}

func (o *onceCallback) deliverSuccess(payload []byte) {
	if o.cb != nil {
		o.cb.Success(payload)
	}
}

func (o *onceCallback) deliverError(message string) {
	if o.cb != nil {
		o.cb.Error(message)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
