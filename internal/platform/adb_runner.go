package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/electricbubble/gadb"
)

const (
	defaultADBHost = "localhost"
	defaultADBPort = 5037
)

// adbRunner executes shell commands on an attached Android device through
// the ADB server.
type adbRunner struct {
	config  ADBConfig
	timeout time.Duration
	logger  Logger

	mu     sync.RWMutex
	device *gadb.Device
}

func newADBRunner(config ADBConfig, timeout time.Duration, logger Logger) *adbRunner {
	if config.Host == "" {
		config.Host = defaultADBHost
	}
	if config.Port == 0 {
		config.Port = defaultADBPort
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &adbRunner{config: config, timeout: timeout, logger: logger}
}

// Connect resolves the configured device on the ADB server.
func (r *adbRunner) Connect(_ context.Context) error {
	client, err := gadb.NewClientWith(r.config.Host, r.config.Port)
	if err != nil {
		return fmt.Errorf("failed to reach adb server %s:%d: %w", r.config.Host, r.config.Port, err)
	}

	devices, err := client.DeviceList()
	if err != nil {
		return fmt.Errorf("failed to list adb devices: %w", err)
	}

	dev, err := selectDevice(devices, r.config.Serial)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.device = &dev
	r.mu.Unlock()

	r.logger.Info("adb device selected", "serial", dev.Serial())
	return nil
}

// selectDevice picks the device whose serial matches. An empty serial
// selects the only attached device.
func selectDevice(devices []gadb.Device, serial string) (gadb.Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		switch len(devices) {
		case 0:
			return gadb.Device{}, ErrNoDevice
		case 1:
			return devices[0], nil
		default:
			return gadb.Device{}, fmt.Errorf("%w: %d devices attached, serial required", ErrNoDevice, len(devices))
		}
	}
	for _, d := range devices {
		if strings.TrimSpace(d.Serial()) == serial {
			return d, nil
		}
	}
	return gadb.Device{}, fmt.Errorf("%w: %s", ErrNoDevice, serial)
}

func (r *adbRunner) Run(ctx context.Context, cmd string) (string, error) {
	r.mu.RLock()
	dev := r.device
	r.mu.RUnlock()

	if dev == nil {
		return "", ErrNotConnected
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := dev.RunShellCommand(cmd)
		done <- result{out, err}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("command failed: %w", res.err)
		}
		return res.out, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %v: %s", ErrCommandTimeout, r.timeout, cmd)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *adbRunner) Close() error {
	r.mu.Lock()
	r.device = nil
	r.mu.Unlock()
	return nil
}
