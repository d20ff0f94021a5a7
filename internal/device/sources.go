// Package device implements the three device-introspection reads exposed by
// the bridge: device attributes (with emulator classification), battery
// status and network status.
//
// Every read takes its platform collaborators as explicit interfaces
// (AttributeSource, BatterySource, NetworkSource) so the same logic runs
// against a local Android shell, a remote device, a Linux host or a test
// fake. Readers keep no state between calls.
package device

import "context"

// BuildInfo holds the platform build identifiers used for attribute
// reporting and emulator classification.
type BuildInfo struct {
	Fingerprint  string
	Model        string
	Manufacturer string
	Brand        string
	Device       string
	Product      string
	Hardware     string
	OSVersion    string
	SDKVersion   int
}

// DisplayMetrics is a snapshot of the real (unadjusted) display size.
type DisplayMetrics struct {
	WidthPixels  int
	HeightPixels int
	// Density is the logical density factor (dpi / 160).
	Density float64
}

// AttributeSource provides the platform values behind DeviceAttributes.
type AttributeSource interface {
	// Platform returns the constant platform label (e.g. "Android").
	Platform() string

	// Build returns the build identifiers of the device.
	Build(ctx context.Context) (BuildInfo, error)

	// SecureID returns the per-device identifier from secure settings.
	SecureID(ctx context.Context) (string, error)

	// RealDisplayMetrics returns the physical display metrics.
	RealDisplayMetrics(ctx context.Context) (DisplayMetrics, error)

	// MemoryBytes returns the memory figure reported as totalMemory, in bytes.
	MemoryBytes(ctx context.Context) (uint64, error)

	// ProcessorCount returns the number of available processors.
	ProcessorCount(ctx context.Context) (int, error)
}

// BatterySource provides the most recent battery-changed broadcast.
type BatterySource interface {
	// StickyBatteryIntent returns nil when no broadcast snapshot exists.
	StickyBatteryIntent(ctx context.Context) *BatteryIntent
}

// NetworkSource provides the connectivity and telephony services.
// Either service may be unavailable, reported through the boolean.
type NetworkSource interface {
	Connectivity(ctx context.Context) (ConnectivityManager, bool)
	Telephony(ctx context.Context) (TelephonyManager, bool)
}

// ConnectivityManager answers active-network queries.
type ConnectivityManager interface {
	// ActiveNetwork returns the default network, false when there is none.
	ActiveNetwork(ctx context.Context) (Network, bool)

	// NetworkCapabilities returns nil when the network has no capabilities.
	NetworkCapabilities(ctx context.Context, n Network) *NetworkCapabilities
}

// TelephonyManager answers carrier queries.
type TelephonyManager interface {
	// NetworkOperatorName returns the registered operator display name.
	NetworkOperatorName(ctx context.Context) string
}
