package config

import (
	"runtime"
	"time"
)

// Default values for configuration options.
const (
	// DefaultCommandTimeout bounds each device shell command.
	DefaultCommandTimeout = 5 * time.Second
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22
	// DefaultADBHost is the host of a locally running ADB server.
	DefaultADBHost = "localhost"
	// DefaultADBPort is the standard ADB server port.
	DefaultADBPort = 5037
)

// DefaultWorkerPoolSize returns the default number of concurrent worker
// operations, one per CPU.
func DefaultWorkerPoolSize() int {
	return runtime.NumCPU()
}

// DefaultConfig returns a Config with sensible default values: local
// transport, text logging at info level and one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Transport: TransportLocal,
		SSH: SSHConfig{
			Port: DefaultSSHPort,
		},
		ADB: ADBConfig{
			Host: DefaultADBHost,
			Port: DefaultADBPort,
		},
		CommandTimeout: DefaultCommandTimeout,
		WorkerPoolSize: DefaultWorkerPoolSize(),
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}
