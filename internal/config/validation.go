// This file implements validation for configuration values.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues (e.g., unverified host keys).
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks configuration values.
type Validator struct {
	// strictMode turns warnings into errors.
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode enables strict validation where warnings are errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateTransport(cfg, result)
	v.validateExecution(cfg, result)
	v.validateLog(&cfg.Log, result)

	if v.strictMode {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

// validateTransport checks the settings the selected transport needs.
func (v *Validator) validateTransport(cfg *Config, result *ValidationResult) {
	switch cfg.Transport {
	case TransportLocal:
	case TransportSSH:
		s := &cfg.SSH
		if s.Host == "" {
			result.AddError("ssh_host", "required for ssh transport")
		}
		if s.User == "" {
			result.AddError("ssh_user", "required for ssh transport")
		}
		validatePort("ssh_port", s.Port, result)
		if s.KeyPath == "" && s.Password == "" {
			result.AddWarning("ssh_key", "no key or password configured, using ssh-agent")
		}
		if s.KnownHosts == "" {
			result.AddWarning("ssh_known_hosts", "host key will not be verified")
		}
	case TransportADB:
		if cfg.ADB.Host == "" {
			result.AddError("adb_host", "must not be empty")
		}
		validatePort("adb_port", cfg.ADB.Port, result)
	default:
		result.AddError("transport", fmt.Sprintf("unknown transport: %d", cfg.Transport))
	}
}

func validatePort(field string, port int, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("must be between 1 and 65535, got %d", port))
	}
}

// validateExecution checks command timeout and worker pool settings.
func (v *Validator) validateExecution(cfg *Config, result *ValidationResult) {
	if cfg.CommandTimeout <= 0 {
		result.AddError("command_timeout", fmt.Sprintf("must be positive, got %v", cfg.CommandTimeout))
	} else if cfg.CommandTimeout > time.Minute {
		result.AddWarning("command_timeout", fmt.Sprintf("unusually long timeout %v", cfg.CommandTimeout))
	}

	if cfg.WorkerPoolSize < 1 {
		result.AddError("worker_pool_size", fmt.Sprintf("must be at least 1, got %d", cfg.WorkerPoolSize))
	}
	const maxWorkers = 256
	if cfg.WorkerPoolSize > maxWorkers {
		result.AddWarning("worker_pool_size", fmt.Sprintf("unusually large value %d", cfg.WorkerPoolSize))
	}
}

// validateLog checks logger settings.
func (v *Validator) validateLog(lc *LogConfig, result *ValidationResult) {
	if lc.Level < LogLevelDebug || lc.Level > LogLevelError {
		result.AddError("log_level", fmt.Sprintf("unknown log level: %d", lc.Level))
	}
	if lc.Format < LogFormatText || lc.Format > LogFormatZerolog {
		result.AddError("log_format", fmt.Sprintf("unknown log format: %d", lc.Format))
	}
}

// ValidateConfig is a convenience function to validate a Config with default settings.
// Returns nil if the config is valid, or an error describing validation failures.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	validator := NewValidator()
	result := validator.Validate(cfg)
	return result.Error()
}

// ValidateConfigStrict validates a Config with strict mode enabled.
// Warnings such as an unverified SSH host key are treated as errors.
func ValidateConfigStrict(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	validator := NewValidator().WithStrictMode(true)
	result := validator.Validate(cfg)
	return result.Error()
}
