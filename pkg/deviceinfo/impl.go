package deviceinfo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-deviceinfo/internal/bridge"
	"github.com/opd-ai/go-deviceinfo/internal/config"
	"github.com/opd-ai/go-deviceinfo/internal/platform"
)

// newPlatform builds the platform for a configuration. Tests replace it.
var newPlatform = platform.New

// errorRateWindow is the span the health errors component counts over.
const errorRateWindow = time.Minute

// errBox gives atomic.Value a single concrete type.
type errBox struct{ err error }

// deviceInfoImpl is the private implementation of the DeviceInfo interface.
type deviceInfoImpl struct {
	// Configuration
	cfg          *config.Config
	opts         Options
	configSource string
	configLoader func() (*config.Config, error)

	// Components
	platform   platform.Platform
	dispatcher *bridge.Dispatcher
	pool       *bridge.WorkerPool
	watcher    *configWatcher
	logger     Logger
	metrics    *Metrics
	tracker    *ErrorTracker

	// State
	startTime  time.Time
	reloadTime time.Time
	closed     atomic.Bool
	lastError  atomic.Value // stores errBox

	// Handlers
	errorHandler ErrorHandler
	eventHandler EventHandler

	// Synchronization
	mu       sync.RWMutex
	reloadMu sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	retiring sync.WaitGroup
}

// Verify interface implementation at compile time.
var (
	_ DeviceInfo            = (*deviceInfoImpl)(nil)
	_ bridge.CommandHandler = (*deviceInfoImpl)(nil)
)

// newInstance wires the components for cfg. watchPath is the file to watch
// when opts.WatchConfig is set; empty means the source is not watchable.
func newInstance(cfg *config.Config, opts *Options, source string, loader func() (*config.Config, error), watchPath string) (*deviceInfoImpl, error) {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	if opts.WatchConfig && watchPath == "" {
		return nil, ErrNotWatchable
	}

	d := &deviceInfoImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		configLoader: loader,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		tracker:      opts.ErrorTracker,
		startTime:    time.Now(),
	}
	if d.logger == nil {
		d.logger = newConfiguredLogger(cfg.Log, opts.LogOutput)
	}
	if d.metrics == nil {
		d.metrics = DefaultMetrics()
	}
	if d.tracker == nil {
		d.tracker = DefaultErrorTracker()
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())

	p, err := d.buildPlatform(cfg)
	if err != nil {
		d.cancel()
		return nil, err
	}
	d.platform = p

	d.pool = bridge.NewWorkerPool(cfg.WorkerPoolSize)
	d.dispatcher, err = bridge.NewStandardDispatcher(d.sources, bridge.Options{
		Executor: d.pool,
		Logger:   d.logger,
		Recorder: d.metrics,
		Context:  d.ctx,
	})
	if err != nil {
		d.pool.Close()
		p.Close()
		d.cancel()
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	if opts.WatchConfig {
		d.watcher, err = newConfigWatcher(watchPath, opts.WatchDebounce, d.ReloadConfig, func(err error) {
			d.notifyError(NewCategorizedError(fmt.Errorf("config watch: %w", err), ErrorCategoryWatch))
		})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("watch config: %w", err)
		}
		d.watcher.Start()
	}

	d.logger.Info("device info ready",
		"platform", p.Name(),
		"transport", cfg.Transport.String(),
		"workers", cfg.WorkerPoolSize,
		"source", source)
	return d, nil
}

// platformConfig maps the parsed configuration onto platform settings.
// Key authentication wins over a password; with neither, the SSH agent is used.
func platformConfig(cfg *config.Config, logger platform.Logger) platform.Config {
	var auth platform.AuthMethod
	switch {
	case cfg.SSH.KeyPath != "":
		auth = platform.KeyAuth{PrivateKeyPath: cfg.SSH.KeyPath, Passphrase: cfg.SSH.KeyPassphrase}
	case cfg.SSH.Password != "":
		auth = platform.PasswordAuth{Password: cfg.SSH.Password}
	default:
		auth = platform.AgentAuth{}
	}

	return platform.Config{
		Transport: cfg.Transport.String(),
		Remote: platform.RemoteConfig{
			Host:           cfg.SSH.Host,
			Port:           cfg.SSH.Port,
			User:           cfg.SSH.User,
			AuthMethod:     auth,
			KnownHostsPath: cfg.SSH.KnownHosts,
		},
		ADB: platform.ADBConfig{
			Host:   cfg.ADB.Host,
			Port:   cfg.ADB.Port,
			Serial: cfg.ADB.Serial,
		},
		CommandTimeout: cfg.CommandTimeout,
		PlatformName:   cfg.PlatformName,
		Logger:         logger,
	}
}

// buildPlatform creates and initializes the platform for cfg.
func (d *deviceInfoImpl) buildPlatform(cfg *config.Config) (platform.Platform, error) {
	p, err := newPlatform(platformConfig(cfg, d.logger))
	if err != nil {
		d.recordError(NewCategorizedError(err, ErrorCategoryPlatform))
		return nil, fmt.Errorf("create platform: %w", err)
	}

	timeout := d.opts.InitTimeout
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	if err := p.Initialize(ctx); err != nil {
		p.Close()
		d.recordError(NewCategorizedError(err, ErrorCategoryPlatform))
		return nil, fmt.Errorf("initialize platform %s: %w", p.Name(), err)
	}
	d.metrics.IncrementPlatformBuilds()
	return p, nil
}

// sources yields the active platform's sources for one dispatch.
func (d *deviceInfoImpl) sources() bridge.Sources {
	d.mu.RLock()
	p := d.platform
	d.mu.RUnlock()
	return bridge.Sources{
		Attributes: p.Attributes(),
		Battery:    p.Battery(),
		Network:    p.Network(),
	}
}

// Dispatch routes action to the standard operations.
func (d *deviceInfoImpl) Dispatch(action string, args []any, cb Callback) bool {
	return d.dispatch(d.ctx, action, args, cb)
}

func (d *deviceInfoImpl) dispatch(ctx context.Context, action string, args []any, cb Callback) bool {
	if d.closed.Load() {
		d.logger.Warn("dispatch after close", "action", action)
		return false
	}
	return d.dispatcher.DispatchContext(ctx, action, args, &trackingCallback{d: d, action: action, cb: cb})
}

// trackingCallback records error-callback messages in the error tracker.
type trackingCallback struct {
	d      *deviceInfoImpl
	action string
	cb     Callback
}

func (t *trackingCallback) Success(payload []byte) {
	if t.cb != nil {
		t.cb.Success(payload)
	}
}

func (t *trackingCallback) Error(message string) {
	t.d.recordError(NewCategorizedError(&ActionError{Action: t.action, Message: message}, ErrorCategoryOperation))
	if t.cb != nil {
		t.cb.Error(message)
	}
}

type callResult struct {
	payload []byte
	err     error
}

// Call dispatches action and blocks until its callback fires or ctx ends.
func (d *deviceInfoImpl) Call(ctx context.Context, action string, args ...any) ([]byte, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	ctx = EnsureCorrelationID(ctx)
	log := NewCorrelatedLogger(ctx, d.logger)
	log.Debug("call", "action", action)

	done := make(chan callResult, 1)
	handled := d.dispatch(ctx, action, args, CallbackFuncs{
		OnSuccess: func(payload []byte) {
			done <- callResult{payload: payload}
		},
		OnError: func(message string) {
			done <- callResult{err: &ActionError{Action: action, Message: message}}
		},
	})
	if !handled {
		if d.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	select {
	case res := <-done:
		if res.err != nil {
			log.Debug("call failed", "action", action, "error", res.err)
		}
		return res.payload, res.err
	case <-ctx.Done():
		log.Warn("call abandoned", "action", action, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// Actions returns the served action names in sorted order.
func (d *deviceInfoImpl) Actions() []string {
	names := d.dispatcher.Actions()
	sort.Strings(names)
	return names
}

// ReloadConfig re-parses the configuration source and swaps the platform.
// The replaced platform is closed once in-flight reads had a command
// timeout to finish.
func (d *deviceInfoImpl) ReloadConfig() error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	newCfg, err := d.configLoader()
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		d.notifyError(NewCategorizedError(wrapped, ErrorCategoryConfig))
		return wrapped
	}

	p, err := d.buildPlatform(newCfg)
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		d.notifyError(NewCategorizedError(wrapped, ErrorCategoryPlatform))
		return wrapped
	}

	d.mu.Lock()
	if d.closed.Load() {
		d.mu.Unlock()
		if err := p.Close(); err != nil {
			d.logger.Warn("closing discarded platform", "platform", p.Name(), "error", err)
		}
		return ErrClosed
	}
	old := d.platform
	oldCfg := d.cfg
	d.platform = p
	d.cfg = newCfg
	d.reloadTime = time.Now()
	d.mu.Unlock()

	if newCfg.WorkerPoolSize != oldCfg.WorkerPoolSize || newCfg.Log != oldCfg.Log {
		d.logger.Warn("worker_pool_size and log settings apply on restart only")
	}

	d.retire(old, oldCfg.CommandTimeout)
	d.metrics.IncrementConfigReloads()
	d.logger.Info("configuration reloaded", "platform", p.Name(), "transport", newCfg.Transport.String())
	d.emitEvent(EventConfigReloaded, "Configuration reloaded")
	if old.Name() != p.Name() {
		d.emitEvent(EventPlatformChanged, fmt.Sprintf("Platform changed from %s to %s", old.Name(), p.Name()))
	}
	return nil
}

// retire closes p after grace, or at once when the instance closes.
func (d *deviceInfoImpl) retire(p platform.Platform, grace time.Duration) {
	if grace <= 0 {
		grace = config.DefaultCommandTimeout
	}
	d.retiring.Add(1)
	go func() {
		defer d.retiring.Done()
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-d.ctx.Done():
		}
		if err := p.Close(); err != nil {
			d.logger.Warn("closing replaced platform", "platform", p.Name(), "error", err)
		}
	}()
}

// Platform returns the name of the active platform.
func (d *deviceInfoImpl) Platform() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.platform.Name()
}

// Status returns detailed status information about the instance.
func (d *deviceInfoImpl) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Status{
		Platform:     d.platform.Name(),
		Transport:    d.cfg.Transport.String(),
		StartTime:    d.startTime,
		ReloadTime:   d.reloadTime,
		InFlight:     d.dispatcher.InFlight(),
		Closed:       d.closed.Load(),
		LastError:    d.getError(),
		ConfigSource: d.configSource,
	}
}

// Metrics returns the metrics collector for this instance.
func (d *deviceInfoImpl) Metrics() *Metrics {
	return d.metrics
}

// Errors returns the error tracker for this instance.
func (d *deviceInfoImpl) Errors() *ErrorTracker {
	return d.tracker
}

// SetErrorHandler registers a callback for runtime errors.
func (d *deviceInfoImpl) SetErrorHandler(handler ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (d *deviceInfoImpl) SetEventHandler(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eventHandler = handler
}

// Close releases every component. Later calls return nil.
func (d *deviceInfoImpl) Close() error {
	if d.closed.Swap(true) {
		return nil
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	// An in-flight reload either finishes its swap before this point or
	// discards what it built.
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()
	d.cancel()
	d.pool.Close()
	d.retiring.Wait()

	d.mu.RLock()
	p := d.platform
	d.mu.RUnlock()

	var errs []error
	if err := p.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close platform: %w", err))
	}

	d.logger.Info("device info closed", "platform", p.Name())
	d.emitEvent(EventClosed, "Instance closed")
	return errors.Join(errs...)
}

// getError retrieves the last error.
func (d *deviceInfoImpl) getError() error {
	if v, ok := d.lastError.Load().(errBox); ok {
		return v.err
	}
	return nil
}

// recordError stores err for Status and the error tracker without
// notifying handlers.
func (d *deviceInfoImpl) recordError(err *CategorizedError) {
	d.lastError.Store(errBox{err: err})
	d.tracker.Record(err)
	d.metrics.IncrementErrors()
}

// notifyError records err and invokes the error handler if registered.
func (d *deviceInfoImpl) notifyError(err *CategorizedError) {
	d.recordError(err)
	d.logger.Error("runtime error", "category", err.Category.String(), "error", err.Err)

	d.mu.RLock()
	handler := d.errorHandler
	d.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	d.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (d *deviceInfoImpl) emitEvent(eventType EventType, message string) {
	d.mu.RLock()
	handler := d.eventHandler
	d.mu.RUnlock()

	if handler == nil {
		return
	}
	event := Event{Type: eventType, Timestamp: time.Now(), Message: message}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("event handler panicked", "panic", r, "event", eventType.String())
			}
		}()
		handler(event)
	}()
}

// Health returns a health check result for the instance.
func (d *deviceInfoImpl) Health() HealthCheck {
	now := time.Now()
	components := make(map[string]ComponentHealth)
	closed := d.closed.Load()

	d.mu.RLock()
	p := d.platform
	transport := d.cfg.Transport.String()
	d.mu.RUnlock()
	name := p.Name()

	var uptime time.Duration
	if !closed {
		uptime = now.Sub(d.startTime)
	}

	if closed {
		components["platform"] = ComponentHealth{Status: HealthUnhealthy, Message: "Instance closed", LastUpdated: now}
	} else {
		components["platform"] = ComponentHealth{Status: HealthOK, Message: "Platform " + name + " initialized", LastUpdated: now}
	}

	transportHealth := ComponentHealth{Status: HealthOK, Message: "Transport " + transport, LastUpdated: now}
	if reporter, ok := p.(platform.CircuitReporter); ok {
		switch state := reporter.CircuitState(); state {
		case platform.CircuitOpen:
			transportHealth.Status = HealthUnhealthy
			transportHealth.Message = "Transport " + transport + ": circuit open"
		case platform.CircuitHalfOpen:
			transportHealth.Status = HealthDegraded
			transportHealth.Message = "Transport " + transport + ": circuit " + state.String()
		}
	}
	components["transport"] = transportHealth

	components["dispatcher"] = ComponentHealth{
		Status:      HealthOK,
		Message:     fmt.Sprintf("%d actions in flight, %d dispatched", d.dispatcher.InFlight(), d.metrics.Snapshot().Dispatches),
		LastUpdated: now,
	}

	if lastErr := d.getError(); lastErr != nil {
		recent := int(math.Round(d.tracker.ErrorRate(errorRateWindow) * errorRateWindow.Seconds()))
		components["errors"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     fmt.Sprintf("%s (%d in the last minute)", lastErr, recent),
			LastUpdated: now,
		}
	} else {
		components["errors"] = ComponentHealth{Status: HealthOK, Message: "No recent errors", LastUpdated: now}
	}

	status := worstStatus(components)
	var message string
	switch {
	case closed:
		message = "Instance is closed"
	case status == HealthUnhealthy:
		message = "Transport unavailable"
	case status == HealthDegraded:
		message = "Running with recent errors"
	default:
		message = "All components healthy"
	}

	return HealthCheck{
		Status:     status,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}
