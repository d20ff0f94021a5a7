package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidatorWithStrictMode(t *testing.T) {
	v := NewValidator().WithStrictMode(true)
	if !v.strictMode {
		t.Error("strictMode should be true after WithStrictMode(true)")
	}

	v2 := NewValidator().WithStrictMode(false)
	if v2.strictMode {
		t.Error("strictMode should be false after WithStrictMode(false)")
	}
}

func TestValidationErrorError(t *testing.T) {
	ve := ValidationError{
		Field:   "ssh_host",
		Message: "required for ssh transport",
	}
	expected := "ssh_host: required for ssh transport"
	if ve.Error() != expected {
		t.Errorf("expected %q, got %q", expected, ve.Error())
	}
}

func TestValidationResultIsValid(t *testing.T) {
	tests := []struct {
		name   string
		result *ValidationResult
		want   bool
	}{
		{
			name:   "empty result is valid",
			result: &ValidationResult{},
			want:   true,
		},
		{
			name: "only warnings is valid",
			result: &ValidationResult{
				Warnings: []ValidationError{{Field: "f", Message: "m"}},
			},
			want: true,
		},
		{
			name: "errors make result invalid",
			result: &ValidationResult{
				Errors: []ValidationError{{Field: "f", Message: "m"}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationResultError(t *testing.T) {
	result := &ValidationResult{}
	if result.Error() != nil {
		t.Error("empty result should have nil error")
	}

	result.AddError("ssh_host", "required")
	result.AddError("ssh_user", "required")
	err := result.Error()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ssh_host: required") || !strings.Contains(msg, "ssh_user: required") {
		t.Errorf("error %q missing field messages", msg)
	}
}

func TestValidationResultMerge(t *testing.T) {
	a := &ValidationResult{}
	a.AddError("a", "err")
	b := &ValidationResult{}
	b.AddError("b", "err")
	b.AddWarning("b", "warn")

	a.Merge(b)
	a.Merge(nil)

	if len(a.Errors) != 2 || len(a.Warnings) != 1 {
		t.Errorf("Merge() = %d errors, %d warnings; want 2, 1", len(a.Errors), len(a.Warnings))
	}
}

func TestValidatorValidateTransport(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:   "local needs nothing",
			modify: func(c *Config) {},
		},
		{
			name: "ssh with key and known hosts",
			modify: func(c *Config) {
				c.Transport = TransportSSH
				c.SSH.Host = "phone.lan"
				c.SSH.User = "shell"
				c.SSH.KeyPath = "/home/user/.ssh/id_ed25519"
				c.SSH.KnownHosts = "/home/user/.ssh/known_hosts"
			},
		},
		{
			name: "ssh missing host and user",
			modify: func(c *Config) {
				c.Transport = TransportSSH
				c.SSH.Password = "pw"
				c.SSH.KnownHosts = "/k"
			},
			wantErrors: []string{"ssh_host", "ssh_user"},
		},
		{
			name: "ssh agent without known hosts",
			modify: func(c *Config) {
				c.Transport = TransportSSH
				c.SSH.Host = "phone.lan"
				c.SSH.User = "shell"
			},
			wantWarnings: []string{"ssh_key", "ssh_known_hosts"},
		},
		{
			name: "ssh port out of range",
			modify: func(c *Config) {
				c.Transport = TransportSSH
				c.SSH.Host = "phone.lan"
				c.SSH.User = "shell"
				c.SSH.Password = "pw"
				c.SSH.KnownHosts = "/k"
				c.SSH.Port = 70000
			},
			wantErrors: []string{"ssh_port"},
		},
		{
			name: "adb empty host and zero port",
			modify: func(c *Config) {
				c.Transport = TransportADB
				c.ADB.Host = ""
				c.ADB.Port = 0
			},
			wantErrors: []string{"adb_host", "adb_port"},
		},
		{
			name:       "unknown transport",
			modify:     func(c *Config) { c.Transport = Transport(9) },
			wantErrors: []string{"transport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			result := NewValidator().Validate(&cfg)
			assertFields(t, "errors", result.Errors, tt.wantErrors)
			assertFields(t, "warnings", result.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidatorValidateExecution(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		workers      int
		wantErrors   []string
		wantWarnings []string
	}{
		{name: "valid", timeout: 5 * time.Second, workers: 4},
		{name: "negative timeout", timeout: -time.Second, workers: 4, wantErrors: []string{"command_timeout"}},
		{name: "long timeout", timeout: 5 * time.Minute, workers: 4, wantWarnings: []string{"command_timeout"}},
		{name: "no workers", timeout: time.Second, workers: 0, wantErrors: []string{"worker_pool_size"}},
		{name: "huge pool", timeout: time.Second, workers: 1000, wantWarnings: []string{"worker_pool_size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CommandTimeout = tt.timeout
			cfg.WorkerPoolSize = tt.workers
			result := NewValidator().Validate(&cfg)
			assertFields(t, "errors", result.Errors, tt.wantErrors)
			assertFields(t, "warnings", result.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidatorValidateLog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = LogLevel(10)
	cfg.Log.Format = LogFormat(-1)

	result := NewValidator().Validate(&cfg)
	assertFields(t, "errors", result.Errors, []string{"log_level", "log_format"})
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := DefaultConfig()
	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig(defaults) error = %v", err)
	}
}

func TestValidateConfigStrict(t *testing.T) {
	if err := ValidateConfigStrict(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := DefaultConfig()
	cfg.Transport = TransportSSH
	cfg.SSH.Host = "phone.lan"
	cfg.SSH.User = "shell"
	cfg.SSH.Password = "pw"

	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v, want nil (warning only)", err)
	}
	err := ValidateConfigStrict(&cfg)
	if err == nil || !strings.Contains(err.Error(), "ssh_known_hosts") {
		t.Errorf("ValidateConfigStrict() error = %v, want ssh_known_hosts", err)
	}
}

func assertFields(t *testing.T, kind string, got []ValidationError, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want fields %v", kind, got, want)
	}
	for i, field := range want {
		if got[i].Field != field {
			t.Errorf("%s[%d].Field = %q, want %q", kind, i, got[i].Field, field)
		}
	}
}
