package device

import "strings"

// IsEmulator reports whether the build identifiers look like an emulator.
// The match is a case-sensitive OR of eight fingerprint, model,
// manufacturer, brand/device and product patterns. Newer or renamed
// emulators that match none of them are classified as physical devices.
func IsEmulator(b BuildInfo) bool {
	return strings.HasPrefix(b.Fingerprint, "generic") ||
		strings.HasPrefix(b.Fingerprint, "unknown") ||
		strings.Contains(b.Model, "google_sdk") ||
		strings.Contains(b.Model, "Emulator") ||
		strings.Contains(b.Model, "Android SDK built for x86") ||
		strings.Contains(b.Manufacturer, "Genymotion") ||
		(strings.HasPrefix(b.Brand, "generic") && strings.HasPrefix(b.Device, "generic")) ||
		b.Product == "google_sdk"
}
