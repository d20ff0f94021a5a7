package platform

import (
	"context"
	"time"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// Platform bundles the device sources for one target system.
type Platform interface {
	// Name returns the platform identifier (e.g. "android", "linux",
	// "remote-android").
	Name() string

	// Initialize prepares the platform (connects transports, probes paths).
	Initialize(ctx context.Context) error

	// Close releases transports. Safe to call multiple times.
	Close() error

	// Attributes returns the source for device attributes.
	Attributes() device.AttributeSource

	// Battery returns the source for battery broadcasts.
	Battery() device.BatterySource

	// Network returns the source for connectivity and telephony.
	Network() device.NetworkSource
}

// CircuitReporter is implemented by platforms whose transport sits behind a
// circuit breaker.
type CircuitReporter interface {
	CircuitState() CircuitState
}

// Transport names accepted by Config.Transport.
const (
	TransportLocal = "local"
	TransportSSH   = "ssh"
	TransportADB   = "adb"
)

// Config selects and configures a platform.
type Config struct {
	// Transport is one of TransportLocal, TransportSSH or TransportADB.
	// Empty means TransportLocal.
	Transport string

	// GOOS overrides the local operating system detection.
	GOOS string

	// Remote configures the SSH transport.
	Remote RemoteConfig

	// ADB configures the ADB transport.
	ADB ADBConfig

	// CommandTimeout bounds every shell command (default: 5s).
	CommandTimeout time.Duration

	// PlatformName is the platform label reported for non-Android targets.
	// Empty means "Linux".
	PlatformName string

	// Breaker configures the circuit breaker on remote transports.
	Breaker BreakerConfig

	// Logger receives transport diagnostics. Nil disables logging.
	Logger Logger
}

// RemoteConfig specifies connection parameters for an SSH-reachable device.
type RemoteConfig struct {
	// Host is the hostname or IP address of the device.
	Host string

	// Port is the SSH port (default: 22).
	Port int

	// User is the SSH username.
	User string

	// AuthMethod specifies how to authenticate.
	AuthMethod AuthMethod

	// KnownHostsPath enables host key verification against a known_hosts
	// file. Empty disables verification.
	KnownHostsPath string

	// KeepAliveInterval is the interval between keepalive probes
	// (default: 30s). Negative disables keepalives.
	KeepAliveInterval time.Duration
}

// ADBConfig specifies how to reach a device through the ADB server.
type ADBConfig struct {
	// Host is the ADB server host (default: localhost).
	Host string

	// Port is the ADB server port (default: 5037).
	Port int

	// Serial selects the device. Empty picks the only attached device.
	Serial string
}

// AuthMethod defines SSH authentication methods.
type AuthMethod interface {
	isAuthMethod()
}

// PasswordAuth authenticates using a password.
type PasswordAuth struct {
	Password string
}

func (PasswordAuth) isAuthMethod() {}

// KeyAuth authenticates using an SSH private key.
type KeyAuth struct {
	PrivateKeyPath string
	Passphrase     string // optional, for encrypted keys
}

func (KeyAuth) isAuthMethod() {}

// AgentAuth authenticates using the SSH agent.
type AgentAuth struct{}

func (AgentAuth) isAuthMethod() {}

// Logger is the slog-style logger used for transport diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
