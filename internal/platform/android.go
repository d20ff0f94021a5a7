package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// AndroidPlatformLabel is the platform value reported by Android sources.
const AndroidPlatformLabel = "Android"

// androidSource implements the device sources for an Android system by
// running its shell commands through a Runner.
type androidSource struct {
	runner Runner
	probe  hostProbe
	logger Logger
}

func newAndroidSource(runner Runner, probe hostProbe, logger Logger) *androidSource {
	if logger == nil {
		logger = nopLogger{}
	}
	return &androidSource{runner: runner, probe: probe, logger: logger}
}

func (s *androidSource) Platform() string {
	return AndroidPlatformLabel
}

func (s *androidSource) Build(ctx context.Context) (device.BuildInfo, error) {
	output, err := s.runner.Run(ctx, "getprop")
	if err != nil {
		return device.BuildInfo{}, fmt.Errorf("failed to read system properties: %w", err)
	}
	return buildInfoFromProps(parseGetprop(output)), nil
}

func (s *androidSource) SecureID(ctx context.Context) (string, error) {
	output, err := s.runner.Run(ctx, "settings get secure android_id")
	if err != nil {
		return "", fmt.Errorf("failed to read android_id: %w", err)
	}
	return parseSecureID(output), nil
}

func (s *androidSource) RealDisplayMetrics(ctx context.Context) (device.DisplayMetrics, error) {
	sizeOut, err := s.runner.Run(ctx, "wm size")
	if err != nil {
		return device.DisplayMetrics{}, fmt.Errorf("failed to read display size: %w", err)
	}
	width, height, err := parseWMSize(sizeOut)
	if err != nil {
		return device.DisplayMetrics{}, err
	}

	densityOut, err := s.runner.Run(ctx, "wm density")
	if err != nil {
		return device.DisplayMetrics{}, fmt.Errorf("failed to read display density: %w", err)
	}
	dpi, err := parseWMDensity(densityOut)
	if err != nil {
		return device.DisplayMetrics{}, err
	}

	return device.DisplayMetrics{
		WidthPixels:  width,
		HeightPixels: height,
		Density:      densityFromDPI(float64(dpi)),
	}, nil
}

func (s *androidSource) MemoryBytes(ctx context.Context) (uint64, error) {
	return s.probe.MemoryBytes(ctx)
}

func (s *androidSource) ProcessorCount(ctx context.Context) (int, error) {
	return s.probe.ProcessorCount(ctx)
}

// StickyBatteryIntent returns the current battery broadcast, or nil when
// the battery service cannot be queried.
func (s *androidSource) StickyBatteryIntent(ctx context.Context) *device.BatteryIntent {
	output, err := s.runner.Run(ctx, "dumpsys battery")
	if err != nil {
		s.logger.Debug("battery service unavailable", "error", err)
		return nil
	}
	return parseDumpsysBattery(output)
}

// Connectivity snapshots the connectivity service once per call. The
// service is unavailable when dumpsys cannot be run.
func (s *androidSource) Connectivity(ctx context.Context) (device.ConnectivityManager, bool) {
	output, err := s.runner.Run(ctx, "dumpsys connectivity")
	if err != nil {
		s.logger.Debug("connectivity service unavailable", "error", err)
		return nil, false
	}
	return parseDumpsysConnectivity(output), true
}

func (s *androidSource) Telephony(context.Context) (device.TelephonyManager, bool) {
	return androidTelephony{runner: s.runner}, true
}

func (c *connectivityState) ActiveNetwork(context.Context) (device.Network, bool) {
	if c.active == "" {
		return device.Network{}, false
	}
	return device.Network{ID: c.active}, true
}

func (c *connectivityState) NetworkCapabilities(_ context.Context, n device.Network) *device.NetworkCapabilities {
	return c.networks[n.ID]
}

type androidTelephony struct {
	runner Runner
}

func (t androidTelephony) NetworkOperatorName(ctx context.Context) string {
	output, err := t.runner.Run(ctx, shellCommand("getprop", propOperator))
	if err != nil {
		return ""
	}
	return parseOperatorAlpha(output)
}

// connectFunc establishes a remote transport.
type connectFunc func(ctx context.Context) error

// androidPlatform implements Platform for Android targets reached through
// a Runner: the local shell, SSH or ADB.
type androidPlatform struct {
	name    string
	runner  Runner
	connect connectFunc
	source  *androidSource

	mu     sync.Mutex
	closed bool
}

func (p *androidPlatform) Name() string {
	return p.name
}

func (p *androidPlatform) Initialize(ctx context.Context) error {
	if p.connect == nil {
		return nil
	}
	if err := p.connect(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s platform: %w", p.name, err)
	}
	return nil
}

func (p *androidPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.runner.Close()
}

// CircuitState reports the transport breaker state. Local platforms have
// no breaker and always report CircuitClosed.
func (p *androidPlatform) CircuitState() CircuitState {
	if b, ok := p.runner.(*breakerRunner); ok {
		return b.breaker.State()
	}
	return CircuitClosed
}

func (p *androidPlatform) Attributes() device.AttributeSource { return p.source }
func (p *androidPlatform) Battery() device.BatterySource { return p.source }
func (p *androidPlatform) Network() device.NetworkSource { return p.source }
