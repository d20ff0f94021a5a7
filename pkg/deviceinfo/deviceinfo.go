package deviceinfo

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/go-deviceinfo/internal/bridge"
	"github.com/opd-ai/go-deviceinfo/internal/config"
)

// Action names accepted by Dispatch and Call.
const (
	ActionDeviceInfo  = bridge.ActionDeviceInfo
	ActionBatteryInfo = bridge.ActionBatteryInfo
	ActionNetworkInfo = bridge.ActionNetworkInfo
)

// Callback receives the outcome of a dispatched action.
type Callback = bridge.Callback

// CallbackFuncs adapts a pair of functions to Callback.
type CallbackFuncs = bridge.CallbackFuncs

// DeviceInfo is an embedded device-info bridge bound to one platform.
// It is safe for concurrent use from multiple goroutines.
type DeviceInfo interface {
	// Dispatch routes action and reports whether it was handled. For a
	// handled action exactly one of cb.Success or cb.Error is invoked,
	// possibly on another goroutine. An unhandled action, or any action
	// after Close, returns false and never invokes cb.
	Dispatch(action string, args []any, cb Callback) bool

	// Call dispatches action and waits for its result. A failure reported
	// through the error callback is returned as *ActionError.
	Call(ctx context.Context, action string, args ...any) ([]byte, error)

	// Actions returns the served action names in sorted order.
	Actions() []string

	// ReloadConfig reloads the configuration from its original source and
	// swaps in a freshly initialized platform. On error the previous
	// platform stays active.
	ReloadConfig() error

	// Platform returns the name of the active platform.
	Platform() string

	// Status returns detailed status information about the instance.
	Status() Status

	// Health returns a health check result for the instance.
	Health() HealthCheck

	// Metrics returns the metrics collector for this instance.
	Metrics() *Metrics

	// Errors returns the error tracker for this instance.
	Errors() *ErrorTracker

	// SetErrorHandler registers a callback for runtime errors.
	// Panics in the handler are recovered.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Close stops the config watcher, waits for worker operations and
	// releases the platform transport. Safe to call multiple times.
	Close() error
}

// New creates a DeviceInfo from a Lua configuration file on disk.
//
// Example:
//
//	d, err := deviceinfo.New("/etc/deviceinfo.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
func New(configPath string, opts *Options) (DeviceInfo, error) {
	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, err
		}
		defer p.Close()
		return p.ParseFile(configPath)
	}

	cfg, err := loader()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return newInstance(cfg, opts, configPath, loader, configPath)
}

// NewFromFS creates a DeviceInfo using configuration from a filesystem
// such as an embed.FS. WatchConfig is not supported for this source.
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (DeviceInfo, error) {
	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, err
		}
		defer p.Close()
		return p.ParseFromFS(fsys, configPath)
	}

	cfg, err := loader()
	if err != nil {
		return nil, fmt.Errorf("parse config from FS: %w", err)
	}
	return newInstance(cfg, opts, "embedded:"+configPath, loader, "")
}

// NewFromReader creates a DeviceInfo from Lua configuration content. The
// content is read once; ReloadConfig re-parses the same bytes.
func NewFromReader(r io.Reader, opts *Options) (DeviceInfo, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	loader := func() (*config.Config, error) {
		p, err := config.NewParser()
		if err != nil {
			return nil, err
		}
		defer p.Close()
		return p.Parse(content)
	}

	cfg, err := loader()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return newInstance(cfg, opts, "reader", loader, "")
}

// NewDefault creates a DeviceInfo reading the local machine with the
// default configuration.
func NewDefault(opts *Options) (DeviceInfo, error) {
	loader := func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}
	cfg, _ := loader()
	return newInstance(cfg, opts, "defaults", loader, "")
}
