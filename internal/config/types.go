// Package config provides configuration data structures for the device-info
// bridge. Configuration is written in Lua as a deviceinfo.config table and
// selects the transport used to reach the device, command timeouts, worker
// pool size and logging.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete device-info bridge configuration.
type Config struct {
	// Transport selects how device sources are reached.
	Transport Transport
	// SSH configures the ssh transport.
	SSH SSHConfig
	// ADB configures the adb transport.
	ADB ADBConfig
	// CommandTimeout bounds every shell command run against the device.
	CommandTimeout time.Duration
	// WorkerPoolSize is the number of concurrent worker operations.
	WorkerPoolSize int
	// Log contains logger settings.
	Log LogConfig
	// PlatformName is the platform label reported by non-Android targets.
	// Empty uses the platform default.
	PlatformName string
}

// SSHConfig holds the ssh transport settings.
type SSHConfig struct {
	// Host is the device hostname or address.
	Host string
	// Port is the SSH port.
	Port int
	// User is the login user.
	User string
	// KeyPath is a private key file. Takes precedence over Password.
	KeyPath string
	// KeyPassphrase decrypts KeyPath when it is encrypted.
	KeyPassphrase string
	// Password authenticates when no key is configured.
	Password string
	// KnownHosts enables host key verification against a known_hosts file.
	KnownHosts string
}

// ADBConfig holds the adb transport settings.
type ADBConfig struct {
	// Host is the ADB server host.
	Host string
	// Port is the ADB server port.
	Port int
	// Serial selects the device. Empty picks the only attached device.
	Serial string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
}

// Transport represents how device sources are reached.
type Transport int

const (
	// TransportLocal reads the machine the process runs on.
	TransportLocal Transport = iota
	// TransportSSH runs shell commands on a remote Android device over SSH.
	TransportSSH
	// TransportADB runs shell commands through an ADB server.
	TransportADB
)

// String returns the string representation of a Transport.
func (t Transport) String() string {
	switch t {
	case TransportLocal:
		return "local"
	case TransportSSH:
		return "ssh"
	case TransportADB:
		return "adb"
	default:
		return "unknown"
	}
}

// ParseTransport parses a string into a Transport.
func ParseTransport(s string) (Transport, error) {
	switch s {
	case "local", "":
		return TransportLocal, nil
	case "ssh":
		return TransportSSH, nil
	case "adb":
		return TransportADB, nil
	default:
		return TransportLocal, fmt.Errorf("unknown transport: %s", s)
	}
}

// LogLevel represents the minimum level a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota - 1
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// LogFormat selects the logger implementation.
type LogFormat int

const (
	// LogFormatText writes human-readable slog text records.
	LogFormatText LogFormat = iota
	// LogFormatJSON writes slog JSON records.
	LogFormatJSON
	// LogFormatZerolog writes zerolog JSON events.
	LogFormatZerolog
)

// String returns the string representation of a LogFormat.
func (f LogFormat) String() string {
	switch f {
	case LogFormatText:
		return "text"
	case LogFormatJSON:
		return "json"
	case LogFormatZerolog:
		return "zerolog"
	default:
		return "unknown"
	}
}

// ParseLogFormat parses a string into a LogFormat.
func ParseLogFormat(s string) (LogFormat, error) {
	switch s {
	case "text", "":
		return LogFormatText, nil
	case "json":
		return LogFormatJSON, nil
	case "zerolog":
		return LogFormatZerolog, nil
	default:
		return LogFormatText, fmt.Errorf("unknown log format: %s", s)
	}
}

// Validate checks if the Config has valid values using the default validator.
// For detailed validation results including warnings, use NewValidator().Validate().
func (c *Config) Validate() error {
	return ValidateConfig(c)
}
