package bridge

import (
	"context"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// Action names served by the device-info plugin.
const (
	ActionDeviceInfo  = "getDeviceInfo"
	ActionBatteryInfo = "getBatteryInfo"
	ActionNetworkInfo = "getNetworkInfo"
)

// Failure message prefixes sent to the host, one per action.
const (
	DeviceInfoErrorPrefix  = "Error obteniendo info del dispositivo: "
	BatteryInfoErrorPrefix = "Error obteniendo info de batería: "
	NetworkInfoErrorPrefix = "Error obteniendo info de red: "
)

// Sources bundles the platform collaborators behind the standard operations.
type Sources struct {
	Attributes device.AttributeSource
	Battery    device.BatterySource
	Network    device.NetworkSource
}

// SourceFunc returns the sources to use for one dispatch. It lets the
// owner swap platforms (for example after a config reload) between calls.
type SourceFunc func() Sources

// StaticSources returns a SourceFunc that always yields s.
func StaticSources(s Sources) SourceFunc {
	return func() Sources { return s }
}

// StandardOperations returns the three device-info operations. Device
// attributes run on the worker executor because the display-metrics query
// may block; battery and network reads run on the dispatching goroutine.
func StandardOperations(sources SourceFunc) []Operation {
	return []Operation{
		{
			Name:         ActionDeviceInfo,
			RunsOnWorker: true,
			ErrorPrefix:  DeviceInfoErrorPrefix,
			Read: func(ctx context.Context, _ []any) (any, error) {
				return device.ReadAttributes(ctx, sources().Attributes)
			},
		},
		{
			Name:         ActionBatteryInfo,
			RunsOnWorker: false,
			ErrorPrefix:  BatteryInfoErrorPrefix,
			Read: func(ctx context.Context, _ []any) (any, error) {
				return device.ReadBattery(ctx, sources().Battery), nil
			},
		},
		{
			Name:         ActionNetworkInfo,
			RunsOnWorker: false,
			ErrorPrefix:  NetworkInfoErrorPrefix,
			Read: func(ctx context.Context, _ []any) (any, error) {
				return device.ReadNetwork(ctx, sources().Network), nil
			},
		},
	}
}

// NewStandardDispatcher is NewDispatcher over StandardOperations.
func NewStandardDispatcher(sources SourceFunc, opts Options) (*Dispatcher, error) {
	return NewDispatcher(StandardOperations(sources), opts)
}
