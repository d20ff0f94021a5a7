package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// DefaultLinuxPlatformLabel is the platform value reported by Linux hosts
// unless Config.PlatformName overrides it.
const DefaultLinuxPlatformLabel = "Linux"

// secureIDNamespace scopes the identifiers derived from the machine id, so
// the raw machine id is never exposed.
var secureIDNamespace = uuid.MustParse("6f1c2a4e-8b0d-4d5e-9a77-3c2b1e0f9d41")

// linuxSource implements the attribute source for a Linux host acting as
// the device.
type linuxSource struct {
	label          string
	dmiPath        string
	machineIDPaths []string
	hostInfo       func(ctx context.Context) (*host.InfoStat, error)
	probe          hostProbe
	display        displayProbe
}

func newLinuxSource(label string) *linuxSource {
	if label == "" {
		label = DefaultLinuxPlatformLabel
	}
	return &linuxSource{
		label:          label,
		dmiPath:        "/sys/class/dmi/id",
		machineIDPaths: []string{"/etc/machine-id", "/var/lib/dbus/machine-id"},
		hostInfo:       host.InfoWithContext,
		probe:          gopsutilProbe{},
		display:        newX11Display(),
	}
}

func (s *linuxSource) Platform() string {
	return s.label
}

func (s *linuxSource) Build(ctx context.Context) (device.BuildInfo, error) {
	info, err := s.hostInfo(ctx)
	if err != nil {
		return device.BuildInfo{}, fmt.Errorf("failed to read host info: %w", err)
	}

	vendor := s.dmi("sys_vendor")
	brand := s.dmi("board_vendor")
	if brand == "" {
		brand = vendor
	}
	model := s.dmi("product_name")
	if model == "" {
		model = info.Platform
	}

	return device.BuildInfo{
		Fingerprint: fmt.Sprintf("%s/%s/%s:%s/%s",
			info.Platform, info.Hostname, info.KernelArch, info.PlatformVersion, info.KernelVersion),
		Model:        model,
		Manufacturer: vendor,
		Brand:        brand,
		Device:       info.Hostname,
		Product:      info.Platform,
		Hardware:     info.KernelArch,
		OSVersion:    info.PlatformVersion,
	}, nil
}

// dmi returns a DMI identification field, or "" when unreadable.
func (s *linuxSource) dmi(field string) string {
	v, _ := readStringFile(filepath.Join(s.dmiPath, field))
	return v
}

// SecureID derives a stable identifier from the machine id. Hosts without
// a machine id report "".
func (s *linuxSource) SecureID(context.Context) (string, error) {
	for _, path := range s.machineIDPaths {
		id, err := readStringFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		if id == "" {
			continue
		}
		return uuid.NewSHA1(secureIDNamespace, []byte(id)).String(), nil
	}
	return "", nil
}

func (s *linuxSource) RealDisplayMetrics(ctx context.Context) (device.DisplayMetrics, error) {
	return s.display.Metrics(ctx)
}

func (s *linuxSource) MemoryBytes(ctx context.Context) (uint64, error) {
	return s.probe.MemoryBytes(ctx)
}

func (s *linuxSource) ProcessorCount(ctx context.Context) (int, error) {
	return s.probe.ProcessorCount(ctx)
}

// linuxPlatform implements Platform for the local Linux host.
type linuxPlatform struct {
	attrs   *linuxSource
	battery *linuxBattery
	network *linuxNetwork
}

func newLinuxPlatform(label string) *linuxPlatform {
	return &linuxPlatform{
		attrs:   newLinuxSource(label),
		battery: newLinuxBattery(),
		network: newLinuxNetwork(),
	}
}

func (p *linuxPlatform) Name() string {
	return "linux"
}

func (p *linuxPlatform) Initialize(context.Context) error {
	return nil
}

func (p *linuxPlatform) Close() error {
	return nil
}

func (p *linuxPlatform) Attributes() device.AttributeSource { return p.attrs }
func (p *linuxPlatform) Battery() device.BatterySource { return p.battery }
func (p *linuxPlatform) Network() device.NetworkSource { return p.network }
