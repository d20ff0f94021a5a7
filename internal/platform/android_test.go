package platform

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// mockRunner returns canned output per command.
type mockRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
	closed  int
}

func newMockRunner(outputs map[string]string) *mockRunner {
	return &mockRunner{outputs: outputs, errs: make(map[string]error)}
}

func (m *mockRunner) Run(_ context.Context, cmd string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, cmd)
	if err, ok := m.errs[cmd]; ok {
		return "", err
	}
	out, ok := m.outputs[cmd]
	if !ok {
		return "", errors.New("command not found: " + cmd)
	}
	return out, nil
}

func (m *mockRunner) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return nil
}

func physicalDeviceOutputs() map[string]string {
	return map[string]string{
		"getprop": `[ro.build.fingerprint]: [samsung/a52qnsxx/a52q:13/TP1A.220624.014/A525FXXS6EWF1:user/release-keys]
[ro.product.model]: [SM-A525F]
[ro.product.manufacturer]: [samsung]
[ro.product.brand]: [samsung]
[ro.product.device]: [a52q]
[ro.product.name]: [a52qnsxx]
[ro.hardware]: [qcom]
[ro.build.version.release]: [13]
[ro.build.version.sdk]: [33]
`,
		"settings get secure android_id": "3f2a9c1b7d4e5f60\n",
		"wm size":                        "Physical size: 1080x2400\n",
		"wm density":                     "Physical density: 420\n",
		"cat /proc/meminfo":              "MemTotal:        5767168 kB\nMemFree:  100 kB\n",
		"nproc":                          "8\n",
		"dumpsys battery":                "  status: 3\n  level: 42\n  scale: 100\n",
		"dumpsys connectivity":           modernConnectivity,
		"getprop 'gsm.operator.alpha'":   "Movistar,\n",
	}
}

func newTestAndroidSource(r Runner) *androidSource {
	return newAndroidSource(r, shellProbe{runner: r}, nil)
}

func TestAndroidSourceReadAttributes(t *testing.T) {
	src := newTestAndroidSource(newMockRunner(physicalDeviceOutputs()))

	attrs, err := device.ReadAttributes(context.Background(), src)
	if err != nil {
		t.Fatalf("ReadAttributes() error = %v", err)
	}

	if attrs.Platform != AndroidPlatformLabel {
		t.Errorf("Platform = %q, want %q", attrs.Platform, AndroidPlatformLabel)
	}
	if attrs.Model != "SM-A525F" || attrs.Manufacturer != "samsung" {
		t.Errorf("Model/Manufacturer = %q/%q", attrs.Model, attrs.Manufacturer)
	}
	if attrs.OSVersion != "13" || attrs.SDKVersion != 33 {
		t.Errorf("OSVersion/SDKVersion = %q/%d", attrs.OSVersion, attrs.SDKVersion)
	}
	if attrs.UUID != "3f2a9c1b7d4e5f60" {
		t.Errorf("UUID = %q", attrs.UUID)
	}
	if attrs.ScreenWidth != 1080 || attrs.ScreenHeight != 2400 {
		t.Errorf("screen = %dx%d, want 1080x2400", attrs.ScreenWidth, attrs.ScreenHeight)
	}
	if math.Abs(attrs.ScreenScale-2.625) > 1e-9 {
		t.Errorf("ScreenScale = %v, want 2.625", attrs.ScreenScale)
	}
	if attrs.TotalMemory != 5632 {
		t.Errorf("TotalMemory = %d, want 5632", attrs.TotalMemory)
	}
	if attrs.ProcessorCount != 8 {
		t.Errorf("ProcessorCount = %d, want 8", attrs.ProcessorCount)
	}
	if !attrs.IsPhysicalDevice {
		t.Error("physical device classified as emulator")
	}
}

func TestAndroidSourceFailures(t *testing.T) {
	tests := []struct {
		name    string
		failing string
	}{
		{"properties", "getprop"},
		{"secure id", "settings get secure android_id"},
		{"display size", "wm size"},
		{"display density", "wm density"},
		{"memory", "cat /proc/meminfo"},
		{"processors", "nproc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newMockRunner(physicalDeviceOutputs())
			r.errs[tt.failing] = errors.New("device offline")

			attrs, err := device.ReadAttributes(context.Background(), newTestAndroidSource(r))
			if err == nil {
				t.Fatal("ReadAttributes() expected error")
			}
			if attrs != nil {
				t.Errorf("ReadAttributes() returned partial result %+v", attrs)
			}
		})
	}
}

func TestAndroidSourceBattery(t *testing.T) {
	r := newMockRunner(physicalDeviceOutputs())
	src := newTestAndroidSource(r)

	snap := device.ReadBattery(context.Background(), src)
	if math.Abs(snap.Level-0.42) > 1e-9 {
		t.Errorf("Level = %v, want 0.42", snap.Level)
	}
	if snap.IsCharging {
		t.Error("discharging battery reported as charging")
	}

	r.errs["dumpsys battery"] = errors.New("service not found")
	snap = device.ReadBattery(context.Background(), src)
	if snap.Level != -1 || snap.IsCharging {
		t.Errorf("unavailable battery = %+v, want {-1 false}", snap)
	}
}

func TestAndroidSourceNetwork(t *testing.T) {
	r := newMockRunner(physicalDeviceOutputs())
	src := newTestAndroidSource(r)

	snap := device.ReadNetwork(context.Background(), src)
	want := device.NetworkSnapshot{ConnectionType: device.ConnectionWiFi, IsConnected: true, CarrierName: "Movistar"}
	if *snap != want {
		t.Errorf("ReadNetwork() = %+v, want %+v", *snap, want)
	}

	r.errs["dumpsys connectivity"] = errors.New("permission denied")
	r.errs["getprop 'gsm.operator.alpha'"] = errors.New("permission denied")
	snap = device.ReadNetwork(context.Background(), src)
	want = device.NetworkSnapshot{ConnectionType: device.ConnectionNone, IsConnected: false, CarrierName: device.UnknownCarrier}
	if *snap != want {
		t.Errorf("ReadNetwork() with services down = %+v, want %+v", *snap, want)
	}
}

func TestAndroidPlatformLifecycle(t *testing.T) {
	r := newMockRunner(nil)
	connected := false
	p := &androidPlatform{
		name:   "remote-android",
		runner: r,
		connect: func(context.Context) error {
			connected = true
			return nil
		},
		source: newTestAndroidSource(r),
	}

	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !connected {
		t.Error("Initialize() did not connect the transport")
	}
	if p.Attributes() == nil || p.Battery() == nil || p.Network() == nil {
		t.Error("platform sources should not be nil")
	}

	_ = p.Close()
	_ = p.Close()
	if r.closed != 1 {
		t.Errorf("runner closed %d times, want 1", r.closed)
	}

	failing := &androidPlatform{
		name:    "adb-android",
		runner:  r,
		connect: func(context.Context) error { return ErrNoDevice },
	}
	if err := failing.Initialize(context.Background()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Initialize() error = %v, want ErrNoDevice", err)
	}
}
