package platform

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// rtfUp is the RTF_UP route flag.
const rtfUp = 0x1

// arphrdEther is the ARPHRD_ETHER link type in /sys/class/net/<if>/type.
const arphrdEther = 1

// cellularPrefixes are interface name prefixes used by modem drivers.
var cellularPrefixes = []string{"wwan", "rmnet", "ccmni", "wwp"}

// linuxNetwork answers connectivity queries from the kernel routing table
// and the sysfs net class. Linux hosts have no telephony service.
type linuxNetwork struct {
	routePath    string
	netClassPath string
}

func newLinuxNetwork() *linuxNetwork {
	return &linuxNetwork{
		routePath:    "/proc/net/route",
		netClassPath: "/sys/class/net",
	}
}

// Connectivity is unavailable when the routing table cannot be read.
func (n *linuxNetwork) Connectivity(context.Context) (device.ConnectivityManager, bool) {
	data, err := os.ReadFile(n.routePath)
	if err != nil {
		return nil, false
	}
	return &linuxConnectivity{
		defaultIface: defaultRouteInterface(string(data)),
		netClassPath: n.netClassPath,
	}, true
}

func (n *linuxNetwork) Telephony(context.Context) (device.TelephonyManager, bool) {
	return nil, false
}

type linuxConnectivity struct {
	defaultIface string
	netClassPath string
}

func (c *linuxConnectivity) ActiveNetwork(context.Context) (device.Network, bool) {
	if c.defaultIface == "" {
		return device.Network{}, false
	}
	return device.Network{ID: c.defaultIface}, true
}

func (c *linuxConnectivity) NetworkCapabilities(_ context.Context, n device.Network) *device.NetworkCapabilities {
	ifacePath := filepath.Join(c.netClassPath, n.ID)
	if _, err := os.Stat(ifacePath); err != nil {
		return nil
	}

	caps := &device.NetworkCapabilities{}
	if t, ok := classifyInterface(ifacePath, n.ID); ok {
		caps.Transports = append(caps.Transports, t)
	}

	operstate, _ := readStringFile(filepath.Join(ifacePath, "operstate"))
	// Tunnel devices report "unknown" while passing traffic.
	if operstate == "up" || operstate == "unknown" {
		caps.Capabilities = append(caps.Capabilities, device.CapabilityInternet)
	}
	return caps
}

// classifyInterface maps a network interface onto a transport.
func classifyInterface(ifacePath, name string) (device.Transport, bool) {
	if exists(filepath.Join(ifacePath, "wireless")) || exists(filepath.Join(ifacePath, "phy80211")) {
		return device.TransportWiFi, true
	}
	for _, prefix := range cellularPrefixes {
		if strings.HasPrefix(name, prefix) {
			return device.TransportCellular, true
		}
	}
	if exists(filepath.Join(ifacePath, "tun_flags")) {
		return device.TransportVPN, true
	}
	if linkType, err := readIntFile(filepath.Join(ifacePath, "type")); err == nil && linkType == arphrdEther {
		return device.TransportEthernet, true
	}
	return 0, false
}

// defaultRouteInterface returns the interface of the lowest-metric default
// route that is up, or "" when there is none.
func defaultRouteInterface(routes string) string {
	best := ""
	bestMetric := -1
	for i, line := range strings.Split(routes, "\n") {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 7 || fields[1] != "00000000" {
			continue
		}
		flags, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil || flags&rtfUp == 0 {
			continue
		}
		metric, err := strconv.Atoi(fields[6])
		if err != nil {
			continue
		}
		if bestMetric < 0 || metric < bestMetric {
			best, bestMetric = fields[0], metric
		}
	}
	return best
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
