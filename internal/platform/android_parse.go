package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// Android system property keys read for build information.
const (
	propFingerprint  = "ro.build.fingerprint"
	propModel        = "ro.product.model"
	propManufacturer = "ro.product.manufacturer"
	propBrand        = "ro.product.brand"
	propDevice       = "ro.product.device"
	propProduct      = "ro.product.name"
	propHardware     = "ro.hardware"
	propRelease      = "ro.build.version.release"
	propSDK          = "ro.build.version.sdk"
	propOperator     = "gsm.operator.alpha"
)

// parseGetprop parses the full `getprop` listing, one "[key]: [value]"
// pair per line.
func parseGetprop(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		key, rest, ok := strings.Cut(line[1:], "]:")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		rest = strings.TrimPrefix(rest, "[")
		rest = strings.TrimSuffix(rest, "]")
		props[key] = rest
	}
	return props
}

// buildInfoFromProps maps system properties onto BuildInfo. A missing or
// malformed SDK level is reported as 0.
func buildInfoFromProps(props map[string]string) device.BuildInfo {
	sdk, _ := strconv.Atoi(strings.TrimSpace(props[propSDK]))
	return device.BuildInfo{
		Fingerprint:  props[propFingerprint],
		Model:        props[propModel],
		Manufacturer: props[propManufacturer],
		Brand:        props[propBrand],
		Device:       props[propDevice],
		Product:      props[propProduct],
		Hardware:     props[propHardware],
		OSVersion:    props[propRelease],
		SDKVersion:   sdk,
	}
}

// parseSecureID normalizes `settings get secure android_id` output.
func parseSecureID(output string) string {
	id := strings.TrimSpace(output)
	if id == "null" {
		return ""
	}
	return id
}

// parseWMSize parses `wm size`, preferring the physical size over any
// override.
func parseWMSize(output string) (width, height int, err error) {
	value, ok := wmField(output, "Physical size:")
	if !ok {
		return 0, 0, fmt.Errorf("unexpected wm size output: %q", strings.TrimSpace(output))
	}
	w, h, ok := strings.Cut(value, "x")
	if !ok {
		return 0, 0, fmt.Errorf("unexpected wm size value: %q", value)
	}
	if width, err = strconv.Atoi(strings.TrimSpace(w)); err != nil {
		return 0, 0, fmt.Errorf("failed to parse width: %w", err)
	}
	if height, err = strconv.Atoi(strings.TrimSpace(h)); err != nil {
		return 0, 0, fmt.Errorf("failed to parse height: %w", err)
	}
	return width, height, nil
}

// parseWMDensity parses `wm density` and returns the physical dpi.
func parseWMDensity(output string) (int, error) {
	value, ok := wmField(output, "Physical density:")
	if !ok {
		return 0, fmt.Errorf("unexpected wm density output: %q", strings.TrimSpace(output))
	}
	dpi, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse density: %w", err)
	}
	return dpi, nil
}

func wmField(output, prefix string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

// densityFromDPI converts dots-per-inch to the logical density factor.
func densityFromDPI(dpi float64) float64 {
	return dpi / 160
}

// parseDumpsysBattery extracts the integer extras of the battery-changed
// broadcast from `dumpsys battery`. It returns nil when none of level,
// scale or status is present.
func parseDumpsysBattery(output string) *device.BatteryIntent {
	wanted := map[string]bool{
		device.ExtraLevel:   true,
		device.ExtraScale:   true,
		device.ExtraStatus:  true,
		device.ExtraPlugged: true,
	}

	extras := make(map[string]int)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || !wanted[key] {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		extras[key] = n
	}

	_, hasLevel := extras[device.ExtraLevel]
	_, hasScale := extras[device.ExtraScale]
	_, hasStatus := extras[device.ExtraStatus]
	if !hasLevel && !hasScale && !hasStatus {
		return nil
	}
	return &device.BatteryIntent{Extras: extras}
}

var transportNames = map[string]device.Transport{
	"CELLULAR":   device.TransportCellular,
	"WIFI":       device.TransportWiFi,
	"BLUETOOTH":  device.TransportBluetooth,
	"ETHERNET":   device.TransportEthernet,
	"VPN":        device.TransportVPN,
	"WIFI_AWARE": 5,
	"LOWPAN":     6,
	"TEST":       7,
	"USB":        8,
}

var capabilityNames = map[string]device.Capability{
	"MMS":            0,
	"SUPL":           1,
	"DUN":            2,
	"FOTA":           3,
	"IMS":            4,
	"CBS":            5,
	"WIFI_P2P":       6,
	"IA":             7,
	"RCS":            8,
	"XCAP":           9,
	"EIMS":           10,
	"NOT_METERED":    device.CapabilityNotMetered,
	"INTERNET":       device.CapabilityInternet,
	"NOT_RESTRICTED": 13,
	"TRUSTED":        14,
	"NOT_VPN":        15,
	"VALIDATED":      device.CapabilityValidated,
	"CAPTIVE_PORTAL": 17,
	"NOT_ROAMING":    18,
	"FOREGROUND":     19,
	"NOT_CONGESTED":  20,
	"NOT_SUSPENDED":  21,
}

var (
	activeNetworkRe = regexp.MustCompile(`Active default network:\s*(\S+)`)
	networkIDRe     = regexp.MustCompile(`network\{(\d+)\}|- (\d+)\]`)
	transportsRe    = regexp.MustCompile(`Transports:\s*([A-Z_|]+)`)
	capabilitiesRe  = regexp.MustCompile(`Capabilities:\s*([A-Z_&]+)`)
)

// connectivityState is the parsed form of `dumpsys connectivity`.
type connectivityState struct {
	active   string
	networks map[string]*device.NetworkCapabilities
}

// parseDumpsysConnectivity reads the default network id and the
// transports and capabilities of every listed network agent.
func parseDumpsysConnectivity(output string) *connectivityState {
	state := &connectivityState{networks: make(map[string]*device.NetworkCapabilities)}

	if m := activeNetworkRe.FindStringSubmatch(output); m != nil && m[1] != "none" {
		state.active = m[1]
	}

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "NetworkAgentInfo") {
			continue
		}
		idMatch := networkIDRe.FindStringSubmatch(line)
		if idMatch == nil {
			continue
		}
		id := idMatch[1]
		if id == "" {
			id = idMatch[2]
		}
		if _, seen := state.networks[id]; seen {
			continue
		}

		caps := &device.NetworkCapabilities{}
		if m := transportsRe.FindStringSubmatch(line); m != nil {
			for _, name := range strings.Split(m[1], "|") {
				if t, ok := transportNames[name]; ok {
					caps.Transports = append(caps.Transports, t)
				}
			}
		}
		if m := capabilitiesRe.FindStringSubmatch(line); m != nil {
			for _, name := range strings.Split(m[1], "&") {
				if c, ok := capabilityNames[name]; ok {
					caps.Capabilities = append(caps.Capabilities, c)
				}
			}
		}
		state.networks[id] = caps
	}
	return state
}

// parseOperatorAlpha returns the first non-empty operator name from the
// comma-separated per-SIM property value.
func parseOperatorAlpha(output string) string {
	for _, name := range strings.Split(strings.TrimSpace(output), ",") {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return ""
}

// parseMemTotal returns MemTotal from /proc/meminfo, in bytes.
func parseMemTotal(output string) (uint64, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse MemTotal: %w", err)
		}
		// Values in /proc/meminfo are in KB
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("MemTotal not found in meminfo")
}

// parseCount parses a single integer such as `nproc` output.
func parseCount(output string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid count %d", n)
	}
	return n, nil
}
