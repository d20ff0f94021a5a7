// This file implements the Lua configuration parser.

package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// LuaConfigParser parses Lua configuration files. It uses the Golua runtime
// to execute Lua code and extract configuration values from the
// deviceinfo.config table.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser with custom output.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse parses a Lua configuration from content bytes. Values missing from
// deviceinfo.config keep their defaults; string values have environment
// references expanded.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024, // 50 MB
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	_, err = rt.Call1(thread, rt.FunctionValue(closure))
	if err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	cfg, err := p.extractConfig()
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

// initGlobal resets the deviceinfo global table before each parse.
func (p *LuaConfigParser) initGlobal() {
	tbl := rt.NewTable()
	tbl.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("deviceinfo"), rt.TableValue(tbl))
}

// extractConfig extracts configuration values from the deviceinfo global table.
func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	globalVal := p.runtime.GlobalEnv().Get(rt.StringValue("deviceinfo"))
	if globalVal == rt.NilValue {
		return &cfg, nil
	}

	globalTable, ok := globalVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("deviceinfo is not a table")
	}

	configVal := globalTable.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &cfg, nil
	}
	configTable, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("deviceinfo.config is not a table")
	}
	if err := p.extractConfigTable(&cfg, configTable); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// extractConfigTable extracts configuration values from the deviceinfo.config table.
func (p *LuaConfigParser) extractConfigTable(cfg *Config, table *rt.Table) error {
	// Enumerations are expanded before parsing so they can come from the
	// environment too.
	if val := getTableString(table, "transport"); val != nil {
		t, err := ParseTransport(ExpandEnv(*val))
		if err != nil {
			return fmt.Errorf("invalid transport: %w", err)
		}
		cfg.Transport = t
	}
	if val := getTableString(table, "log_level"); val != nil {
		l, err := ParseLogLevel(ExpandEnv(*val))
		if err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
		cfg.Log.Level = l
	}
	if val := getTableString(table, "log_format"); val != nil {
		f, err := ParseLogFormat(ExpandEnv(*val))
		if err != nil {
			return fmt.Errorf("invalid log_format: %w", err)
		}
		cfg.Log.Format = f
	}

	stringFields := []struct {
		key    string
		target *string
	}{
		{"ssh_host", &cfg.SSH.Host},
		{"ssh_user", &cfg.SSH.User},
		{"ssh_key", &cfg.SSH.KeyPath},
		{"ssh_key_passphrase", &cfg.SSH.KeyPassphrase},
		{"ssh_password", &cfg.SSH.Password},
		{"ssh_known_hosts", &cfg.SSH.KnownHosts},
		{"adb_host", &cfg.ADB.Host},
		{"adb_serial", &cfg.ADB.Serial},
		{"platform_name", &cfg.PlatformName},
	}
	for _, sf := range stringFields {
		if val := getTableString(table, sf.key); val != nil {
			*sf.target = *val
		}
	}

	intFields := []struct {
		key    string
		target *int
	}{
		{"ssh_port", &cfg.SSH.Port},
		{"adb_port", &cfg.ADB.Port},
		{"worker_pool_size", &cfg.WorkerPoolSize},
	}
	for _, f := range intFields {
		val, err := getTableInt(table, f.key)
		if err != nil {
			return err
		}
		if val != nil {
			*f.target = *val
		}
	}

	// command_timeout is given in seconds
	val, err := getTableFloat(table, "command_timeout")
	if err != nil {
		return err
	}
	if val != nil {
		cfg.CommandTimeout = time.Duration(*val * float64(time.Second))
	}

	return nil
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableFloat retrieves a float64 value from a Lua table. Strings are
// expanded and parsed so numbers can come from the environment.
// Returns nil if the key doesn't exist.
func getTableFloat(table *rt.Table, key string) (*float64, error) {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil, nil
	}

	if n, ok := val.TryFloat(); ok {
		return &n, nil
	}

	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f, nil
	}

	if s, ok := val.TryString(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(ExpandEnv(s)), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q is not a number", key, s)
		}
		return &f, nil
	}

	return nil, fmt.Errorf("invalid %s: expected a number", key)
}

// getTableInt retrieves an int value from a Lua table. Floats are
// truncated; strings are expanded and parsed.
// Returns nil if the key doesn't exist.
func getTableInt(table *rt.Table, key string) (*int, error) {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil, nil
	}

	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i, nil
	}

	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i, nil
	}

	if s, ok := val.TryString(); ok {
		i, err := strconv.Atoi(strings.TrimSpace(ExpandEnv(s)))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q is not an integer", key, s)
		}
		return &i, nil
	}

	return nil, fmt.Errorf("invalid %s: expected an integer", key)
}
