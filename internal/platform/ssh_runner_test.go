package platform

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/electricbubble/gadb"
)

func TestNewSSHRunner(t *testing.T) {
	tests := []struct {
		name    string
		config  RemoteConfig
		wantErr bool
	}{
		{
			name:   "valid password auth",
			config: RemoteConfig{Host: "192.168.1.20", User: "shell", AuthMethod: PasswordAuth{Password: "secret"}},
		},
		{
			name:   "valid key auth",
			config: RemoteConfig{Host: "phone.lan", User: "u0_a123", AuthMethod: KeyAuth{PrivateKeyPath: "/tmp/key"}},
		},
		{
			name:    "missing host",
			config:  RemoteConfig{User: "shell", AuthMethod: AgentAuth{}},
			wantErr: true,
		},
		{
			name:    "missing user",
			config:  RemoteConfig{Host: "phone.lan", AuthMethod: AgentAuth{}},
			wantErr: true,
		},
		{
			name:    "missing auth",
			config:  RemoteConfig{Host: "phone.lan", User: "shell"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newSSHRunner(tt.config, 0, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newSSHRunner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if r.config.Port != defaultSSHPort {
				t.Errorf("Port = %d, want %d", r.config.Port, defaultSSHPort)
			}
			if r.config.KeepAliveInterval != defaultKeepAliveInterval {
				t.Errorf("KeepAliveInterval = %v, want %v", r.config.KeepAliveInterval, defaultKeepAliveInterval)
			}
			if r.timeout != defaultCommandTimeout {
				t.Errorf("timeout = %v, want %v", r.timeout, defaultCommandTimeout)
			}
		})
	}
}

func TestSSHRunnerAddress(t *testing.T) {
	r, err := newSSHRunner(RemoteConfig{Host: "fe80::1", Port: 8022, User: "u", AuthMethod: AgentAuth{}}, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.address(); got != "[fe80::1]:8022" {
		t.Errorf("address() = %q, want [fe80::1]:8022", got)
	}
}

func TestBuildSSHConfig(t *testing.T) {
	cfg, err := buildSSHConfig(RemoteConfig{User: "shell", AuthMethod: PasswordAuth{Password: "pw"}})
	if err != nil {
		t.Fatalf("buildSSHConfig() error = %v", err)
	}
	if cfg.User != "shell" || len(cfg.Auth) != 1 {
		t.Errorf("config = user %q, %d auth methods", cfg.User, len(cfg.Auth))
	}

	_, err = buildSSHConfig(RemoteConfig{User: "shell", AuthMethod: KeyAuth{PrivateKeyPath: filepath.Join(t.TempDir(), "missing")}})
	if err == nil || !strings.Contains(err.Error(), "private key") {
		t.Errorf("missing key error = %v", err)
	}

	t.Setenv("SSH_AUTH_SOCK", "")
	if _, err := buildSSHConfig(RemoteConfig{User: "shell", AuthMethod: AgentAuth{}}); err == nil {
		t.Error("agent auth without SSH_AUTH_SOCK should fail")
	}

	_, err = buildSSHConfig(RemoteConfig{
		User:           "shell",
		AuthMethod:     PasswordAuth{Password: "pw"},
		KnownHostsPath: filepath.Join(t.TempDir(), "missing_known_hosts"),
	})
	if err == nil {
		t.Error("missing known_hosts file should fail")
	}
}

func TestSSHRunnerNotConnected(t *testing.T) {
	r, err := newSSHRunner(RemoteConfig{Host: "h", User: "u", AuthMethod: AgentAuth{}}, time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), "getprop"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Run() error = %v, want ErrNotConnected", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestADBRunnerDefaults(t *testing.T) {
	r := newADBRunner(ADBConfig{}, 0, nil)
	if r.config.Host != defaultADBHost || r.config.Port != defaultADBPort {
		t.Errorf("config = %s:%d, want %s:%d", r.config.Host, r.config.Port, defaultADBHost, defaultADBPort)
	}
	if _, err := r.Run(context.Background(), "getprop"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Run() before Connect error = %v, want ErrNotConnected", err)
	}
}

func TestSelectDeviceNoDevices(t *testing.T) {
	if _, err := selectDevice(nil, ""); !errors.Is(err, ErrNoDevice) {
		t.Errorf("selectDevice(nil, \"\") error = %v, want ErrNoDevice", err)
	}
	if _, err := selectDevice([]gadb.Device{}, "emulator-5554"); !errors.Is(err, ErrNoDevice) {
		t.Errorf("selectDevice(serial) error = %v, want ErrNoDevice", err)
	}
}
