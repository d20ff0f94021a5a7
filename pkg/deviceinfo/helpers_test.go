package deviceinfo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/go-deviceinfo/internal/device"
	"github.com/opd-ai/go-deviceinfo/internal/platform"
)

const testConfig = `
deviceinfo.config = {
    transport = 'local',
    command_timeout = 0.05,
    worker_pool_size = 2,
    log_level = 'error',
}
`

// fakeSource serves fixed device values.
type fakeSource struct {
	buildErr error
	battery  *device.BatteryIntent
}

func (s *fakeSource) Platform() string { return "Android" }

func (s *fakeSource) Build(context.Context) (device.BuildInfo, error) {
	if s.buildErr != nil {
		return device.BuildInfo{}, s.buildErr
	}
	return device.BuildInfo{
		Fingerprint:  "google/shiba/shiba:14/AP2A.240805.005/12025142:user/release-keys",
		Model:        "Pixel 8",
		Manufacturer: "Google",
		Brand:        "google",
		Device:       "shiba",
		Product:      "shiba",
		Hardware:     "shiba",
		OSVersion:    "14",
		SDKVersion:   34,
	}, nil
}

func (s *fakeSource) SecureID(context.Context) (string, error) { return "9774d56d682e549c", nil }

func (s *fakeSource) RealDisplayMetrics(context.Context) (device.DisplayMetrics, error) {
	return device.DisplayMetrics{WidthPixels: 1080, HeightPixels: 2400, Density: 2.625}, nil
}

func (s *fakeSource) MemoryBytes(context.Context) (uint64, error) { return 8 << 30, nil }

func (s *fakeSource) ProcessorCount(context.Context) (int, error) { return 9, nil }

func (s *fakeSource) StickyBatteryIntent(context.Context) *device.BatteryIntent { return s.battery }

func (s *fakeSource) Connectivity(context.Context) (device.ConnectivityManager, bool) {
	return nil, false
}

func (s *fakeSource) Telephony(context.Context) (device.TelephonyManager, bool) { return nil, false }

// fakePlatform is a platform.Platform over a fakeSource.
type fakePlatform struct {
	name    string
	source  *fakeSource
	initErr error
	closes  atomic.Int32
}

func (p *fakePlatform) Name() string { return p.name }
func (p *fakePlatform) Initialize(context.Context) error { return p.initErr }
func (p *fakePlatform) Attributes() device.AttributeSource { return p.source }
func (p *fakePlatform) Battery() device.BatterySource { return p.source }
func (p *fakePlatform) Network() device.NetworkSource { return p.source }
func (p *fakePlatform) Close() error {
	p.closes.Add(1)
	return nil
}

// breakerPlatform reports a fixed circuit state.
type breakerPlatform struct {
	*fakePlatform
	state platform.CircuitState
}

func (p *breakerPlatform) CircuitState() platform.CircuitState { return p.state }

// stubPlatforms makes newPlatform hand out the given platforms in order,
// repeating the last one. It records every config it was called with.
func stubPlatforms(t *testing.T, platforms ...platform.Platform) *[]platform.Config {
	t.Helper()
	var calls []platform.Config
	orig := newPlatform
	newPlatform = func(cfg platform.Config) (platform.Platform, error) {
		calls = append(calls, cfg)
		if len(platforms) == 0 {
			return nil, errors.New("no platform")
		}
		p := platforms[0]
		if len(platforms) > 1 {
			platforms = platforms[1:]
		}
		return p, nil
	}
	t.Cleanup(func() { newPlatform = orig })
	return &calls
}

func newFakePlatform(name string) *fakePlatform {
	return &fakePlatform{
		name:   name,
		source: &fakeSource{battery: device.NewBatteryIntent(50, 100, device.BatteryStatusCharging)},
	}
}

// testOptions isolates metrics and errors from the package defaults.
func testOptions() *Options {
	opts := DefaultOptions()
	opts.Logger = NopLogger()
	opts.Metrics = NewMetrics()
	opts.ErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	return &opts
}

// eventually polls cond until it holds or timeout passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
