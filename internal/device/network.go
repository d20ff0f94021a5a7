package device

import "context"

// Transport identifies the physical medium of a network.
type Transport int

// Transport values, numbered as the connectivity service reports them.
const (
	TransportCellular  Transport = 0
	TransportWiFi      Transport = 1
	TransportBluetooth Transport = 2
	TransportEthernet  Transport = 3
	TransportVPN       Transport = 4
)

// Capability is a network capability flag.
type Capability int

// Capability values used by the network reader.
const (
	CapabilityNotMetered Capability = 11
	CapabilityInternet   Capability = 12
	CapabilityValidated  Capability = 16
)

// Connection type labels reported in NetworkSnapshot.ConnectionType.
const (
	ConnectionNone     = "none"
	ConnectionWiFi     = "wifi"
	ConnectionCellular = "cellular"
	ConnectionEthernet = "ethernet"
	ConnectionUnknown  = "unknown"
)

// UnknownCarrier is reported when no operator name is available.
const UnknownCarrier = "unknown"

// Network is an opaque handle to a network known to the connectivity service.
type Network struct {
	ID string
}

// NetworkCapabilities lists the transports and capabilities of a network.
type NetworkCapabilities struct {
	Transports   []Transport
	Capabilities []Capability
}

// HasTransport reports whether the network uses transport t.
func (nc *NetworkCapabilities) HasTransport(t Transport) bool {
	if nc == nil {
		return false
	}
	for _, have := range nc.Transports {
		if have == t {
			return true
		}
	}
	return false
}

// HasCapability reports whether the network has capability c.
func (nc *NetworkCapabilities) HasCapability(c Capability) bool {
	if nc == nil {
		return false
	}
	for _, have := range nc.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// NetworkSnapshot is the payload of getNetworkInfo.
type NetworkSnapshot struct {
	ConnectionType string `json:"connectionType"`
	IsConnected    bool   `json:"isConnected"`
	CarrierName    string `json:"carrierName"`
}

// ReadNetwork classifies the active network and resolves the carrier name.
// Unavailable services leave the defaults in place; it never fails.
func ReadNetwork(ctx context.Context, src NetworkSource) *NetworkSnapshot {
	snap := &NetworkSnapshot{
		ConnectionType: ConnectionNone,
		IsConnected:    false,
		CarrierName:    UnknownCarrier,
	}
	if src == nil {
		return snap
	}

	if cm, ok := src.Connectivity(ctx); ok && cm != nil {
		if active, ok := cm.ActiveNetwork(ctx); ok {
			if caps := cm.NetworkCapabilities(ctx, active); caps != nil {
				snap.IsConnected = caps.HasCapability(CapabilityInternet)
				snap.ConnectionType = classifyTransport(caps)
			}
		}
	}

	if tm, ok := src.Telephony(ctx); ok && tm != nil {
		if name := tm.NetworkOperatorName(ctx); name != "" {
			snap.CarrierName = name
		}
	}

	return snap
}

// classifyTransport checks WiFi, then cellular, then ethernet.
func classifyTransport(caps *NetworkCapabilities) string {
	switch {
	case caps.HasTransport(TransportWiFi):
		return ConnectionWiFi
	case caps.HasTransport(TransportCellular):
		return ConnectionCellular
	case caps.HasTransport(TransportEthernet):
		return ConnectionEthernet
	default:
		return ConnectionUnknown
	}
}
