package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${NAME}, ${NAME:-fallback} and $NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv replaces environment references in s. ${NAME:-fallback} yields
// fallback when NAME is unset or empty; any other unset name expands to "".
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if groups[2] != "" {
			return os.Getenv(groups[2])
		}
		name, fallback, hasFallback := strings.Cut(groups[1], ":-")
		if val := os.Getenv(name); val != "" || !hasFallback {
			return val
		}
		return fallback
	})
}

// ExpandEnvConfig expands environment variables in all string configuration
// values in place. Secrets such as ssh_password are commonly supplied as
// ${VAR} references so the file can be committed.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	for _, s := range []*string{
		&cfg.SSH.Host,
		&cfg.SSH.User,
		&cfg.SSH.KeyPath,
		&cfg.SSH.KeyPassphrase,
		&cfg.SSH.Password,
		&cfg.SSH.KnownHosts,
		&cfg.ADB.Host,
		&cfg.ADB.Serial,
		&cfg.PlatformName,
	} {
		*s = ExpandEnv(*s)
	}
}
