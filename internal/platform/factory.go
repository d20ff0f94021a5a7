package platform

import (
	"fmt"
	"runtime"
)

// New creates the Platform selected by config.Transport. The returned
// platform must be initialized before its sources are used.
func New(config Config) (Platform, error) {
	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	switch config.Transport {
	case "", TransportLocal:
		goos := config.GOOS
		if goos == "" {
			goos = runtime.GOOS
		}
		return newLocalPlatform(goos, config, logger)

	case TransportSSH:
		ssh, err := newSSHRunner(config.Remote, config.CommandTimeout, logger)
		if err != nil {
			return nil, err
		}
		return newRemoteAndroid("remote-android", ssh, ssh.Connect, config.Breaker, logger), nil

	case TransportADB:
		adb := newADBRunner(config.ADB, config.CommandTimeout, logger)
		return newRemoteAndroid("adb-android", adb, adb.Connect, config.Breaker, logger), nil

	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, config.Transport)
	}
}

// NewForOS creates the local Platform for the specified OS.
// Supported values for goos: "linux", "android".
func NewForOS(goos string) (Platform, error) {
	return newLocalPlatform(goos, Config{}, nopLogger{})
}

func newLocalPlatform(goos string, config Config, logger Logger) (Platform, error) {
	switch goos {
	case "android":
		runner := newLocalRunner(config.CommandTimeout)
		return &androidPlatform{
			name:   "android",
			runner: runner,
			source: newAndroidSource(runner, gopsutilProbe{}, logger),
		}, nil
	case "linux":
		return newLinuxPlatform(config.PlatformName), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// newRemoteAndroid builds an Android platform over a remote transport
// guarded by a circuit breaker. Memory and processor figures come from the
// device shell.
func newRemoteAndroid(name string, transport Runner, connect connectFunc, breaker BreakerConfig, logger Logger) *androidPlatform {
	if logger == nil {
		logger = nopLogger{}
	}
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(from, to CircuitState) {
			logger.Warn("transport circuit changed", "platform", name, "from", from.String(), "to", to.String())
		}
	}
	guarded := newBreakerRunner(transport, breaker)
	return &androidPlatform{
		name:    name,
		runner:  guarded,
		connect: connect,
		source:  newAndroidSource(guarded, shellProbe{runner: guarded}, logger),
	}
}
