package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-deviceinfo/internal/bridge"
)

// DefaultService is the service name scripts pass to deviceinfo.exec.
const DefaultService = "DeviceInfo"

// PluginService is the service name used by existing SLMDeviceInfo
// plugin scripts. It is accepted as an alias of DefaultService.
const PluginService = "SLMDeviceInfo"

// InvalidActionMessage is delivered to the error callback when the
// handler does not recognize the action.
const InvalidActionMessage = "Invalid action"

// completion is a finished dispatch waiting to be delivered to Lua.
type completion struct {
	fn      rt.Value
	success bool
	payload []byte
	message string
}

// Host exposes a bridge.CommandHandler to Lua scripts as the deviceinfo
// global table:
//
//	deviceinfo.exec(success, error, service, action, args) -> handled
//	deviceinfo.getDeviceInfo(success, error)
//	deviceinfo.getBatteryInfo(success, error)
//	deviceinfo.getNetworkInfo(success, error)
//	deviceinfo.wait([timeout_seconds]) -> delivered
//	deviceinfo.poll() -> delivered
//	deviceinfo.pending() -> outstanding
//
// Results complete on arbitrary goroutines, so callbacks are queued and
// invoked on the script goroutine by wait, poll, Pump or Wait.
type Host struct {
	runtime *Runtime
	handler bridge.CommandHandler
	service string

	mu          sync.Mutex
	queue       []completion
	outstanding int
	signal      chan struct{}
}

// NewHost registers the deviceinfo table in runtime and routes its calls
// to handler.
func NewHost(runtime *Runtime, handler bridge.CommandHandler) (*Host, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	h := &Host{
		runtime: runtime,
		handler: handler,
		service: DefaultService,
		signal:  make(chan struct{}, 1),
	}
	h.register()
	return h, nil
}

func (h *Host) register() {
	tbl := rt.NewTable()
	set := func(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) {
		tbl.Set(rt.StringValue(name), rt.FunctionValue(newGoFunction(fn, name, nArgs, hasVarArgs)))
	}

	set("exec", h.execLua, 5, false)
	set("wait", h.waitLua, 1, false)
	set("poll", h.pollLua, 0, false)
	set("pending", h.pendingLua, 0, false)
	for _, action := range []string{bridge.ActionDeviceInfo, bridge.ActionBatteryInfo, bridge.ActionNetworkInfo} {
		set(action, h.actionLua(action), 2, false)
	}
	tbl.Set(rt.StringValue("service"), rt.StringValue(h.service))

	h.runtime.SetGlobal("deviceinfo", rt.TableValue(tbl))
}

// Exec dispatches action with Lua callback values. It never calls into
// Lua; results are queued for delivery.
func (h *Host) Exec(success, failure rt.Value, service, action string, args []any) bool {
	if service != h.service && service != PluginService {
		h.enqueue(completion{fn: failure, message: fmt.Sprintf("Class not found: %s", service)})
		return false
	}

	h.mu.Lock()
	h.outstanding++
	h.mu.Unlock()

	cb := &luaCallback{host: h, success: success, failure: failure}
	handled := h.handler.Dispatch(action, args, cb)
	if !handled {
		h.mu.Lock()
		h.outstanding--
		h.mu.Unlock()
		h.enqueue(completion{fn: failure, message: InvalidActionMessage})
	}
	return handled
}

// Pending returns the number of dispatches that have not completed yet.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outstanding
}

// Pump delivers every queued callback through the runtime and returns how
// many were delivered. It must not be called from inside a Lua call.
func (h *Host) Pump() (int, error) {
	return h.deliver(func(fn rt.Value, arg rt.Value) error {
		_, err := h.runtime.CallValue(fn, arg)
		return err
	})
}

// Wait pumps callbacks until no dispatch is outstanding or ctx is done.
func (h *Host) Wait(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := h.Pump()
		total += n
		if err != nil {
			return total, err
		}
		if h.idle() {
			return total, nil
		}
		select {
		case <-h.signal:
		case <-ctx.Done():
			return total, ctx.Err()
		}
	}
}

func (h *Host) idle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outstanding == 0 && len(h.queue) == 0
}

func (h *Host) enqueue(c completion) {
	h.mu.Lock()
	h.queue = append(h.queue, c)
	h.mu.Unlock()
	h.notify()
}

func (h *Host) complete(c completion) {
	h.mu.Lock()
	h.outstanding--
	h.queue = append(h.queue, c)
	h.mu.Unlock()
	h.notify()
}

func (h *Host) notify() {
	select {
	case h.signal <- struct{}{}:
	default:
	}
}

// deliver drains the queue, converting payloads on the calling goroutine.
// Callback values that are not functions are skipped.
func (h *Host) deliver(call func(fn, arg rt.Value) error) (int, error) {
	h.mu.Lock()
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	delivered := 0
	for i, c := range queue {
		if c.fn.Type() != rt.FunctionType {
			continue
		}
		arg := rt.StringValue(c.message)
		if c.success {
			arg = jsonToLua(c.payload)
		}
		if err := call(c.fn, arg); err != nil {
			// Keep undelivered completions for the next pump.
			h.mu.Lock()
			h.queue = append(queue[i+1:], h.queue...)
			h.mu.Unlock()
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// luaCallback routes one dispatch outcome into the host queue.
type luaCallback struct {
	host    *Host
	success rt.Value
	failure rt.Value
}

func (c *luaCallback) Success(payload []byte) {
	c.host.complete(completion{fn: c.success, success: true, payload: payload})
}

func (c *luaCallback) Error(message string) {
	c.host.complete(completion{fn: c.failure, message: message})
}

// execLua implements deviceinfo.exec(success, error, service, action, args).
func (h *Host) execLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := c.Args()
	arg := func(i int) rt.Value {
		if i < len(args) {
			return args[i]
		}
		return rt.NilValue
	}

	service, ok := arg(2).TryString()
	if !ok {
		return nil, fmt.Errorf("deviceinfo.exec: service must be a string")
	}
	action, ok := arg(3).TryString()
	if !ok {
		return nil, fmt.Errorf("deviceinfo.exec: action must be a string")
	}

	var dispatchArgs []any
	if tbl, ok := arg(4).TryTable(); ok {
		dispatchArgs = sequenceToGo(tbl)
	}

	handled := h.Exec(arg(0), arg(1), service, action, dispatchArgs)
	return c.PushingNext1(t.Runtime, rt.BoolValue(handled)), nil
}

// actionLua returns the deviceinfo.<action>(success, error) shorthand.
func (h *Host) actionLua(action string) rt.GoFunctionFunc {
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		args := c.Args()
		success, failure := rt.NilValue, rt.NilValue
		if len(args) > 0 {
			success = args[0]
		}
		if len(args) > 1 {
			failure = args[1]
		}
		handled := h.Exec(success, failure, h.service, action, nil)
		return c.PushingNext1(t.Runtime, rt.BoolValue(handled)), nil
	}
}

// waitLua implements deviceinfo.wait([timeout_seconds]). It runs inside a
// Lua call, so callbacks are invoked on the calling thread directly.
func (h *Host) waitLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	var deadline <-chan time.Time
	if args := c.Args(); len(args) > 0 {
		secs, ok := args[0].TryFloat()
		if !ok {
			if n, isInt := args[0].TryInt(); isInt {
				secs, ok = float64(n), true
			}
		}
		if ok && secs > 0 {
			timer := time.NewTimer(time.Duration(secs * float64(time.Second)))
			defer timer.Stop()
			deadline = timer.C
		}
	}

	callInThread := func(fn, arg rt.Value) error {
		_, err := rt.Call1(t, fn, arg)
		return err
	}

	total := 0
	for {
		n, err := h.deliver(callInThread)
		total += n
		if err != nil {
			return nil, err
		}
		if h.idle() {
			break
		}
		select {
		case <-h.signal:
			continue
		case <-deadline:
		}
		break
	}
	return c.PushingNext1(t.Runtime, rt.IntValue(int64(total))), nil
}

// pollLua implements deviceinfo.poll().
func (h *Host) pollLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	n, err := h.deliver(func(fn, arg rt.Value) error {
		_, err := rt.Call1(t, fn, arg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.PushingNext1(t.Runtime, rt.IntValue(int64(n))), nil
}

// pendingLua implements deviceinfo.pending().
func (h *Host) pendingLua(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return c.PushingNext1(t.Runtime, rt.IntValue(int64(h.Pending()))), nil
}
