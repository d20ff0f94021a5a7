package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opd-ai/go-deviceinfo/pkg/deviceinfo"
)

// globalFlags are shared by every command that opens a device.
type globalFlags struct {
	configPath string
	transport  string
	sshHost    string
	sshPort    int
	sshUser    string
	sshKey     string
	knownHosts string
	adbHost    string
	adbPort    int
	adbSerial  string
	timeout    float64
	logLevel   string
	logFormat  string
	noColor    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "deviceinfo",
		Short: "Read device, battery and network information",
		Long: `deviceinfo reads device attributes, battery status and network status
from the local machine, an Android device over SSH, or a device attached
to an ADB server.

Common workflows:
  deviceinfo exec getBatteryInfo                      Local battery snapshot
  deviceinfo exec getDeviceInfo --transport adb       First ADB device
  deviceinfo exec getNetworkInfo -q connectionType    One field only
  deviceinfo run script.lua -c device.lua             Host a Lua script`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Lua configuration file")
	pf.StringVarP(&flags.transport, "transport", "t", "", "Transport: local, ssh or adb")
	pf.StringVar(&flags.sshHost, "ssh-host", "", "SSH host of the device")
	pf.IntVar(&flags.sshPort, "ssh-port", 0, "SSH port (default 22)")
	pf.StringVar(&flags.sshUser, "ssh-user", "", "SSH user")
	pf.StringVar(&flags.sshKey, "ssh-key", "", "SSH private key file (default: ssh-agent)")
	pf.StringVar(&flags.knownHosts, "known-hosts", "", "known_hosts file for host key verification")
	pf.StringVar(&flags.adbHost, "adb-host", "", "ADB server host (default localhost)")
	pf.IntVar(&flags.adbPort, "adb-port", 0, "ADB server port (default 5037)")
	pf.StringVarP(&flags.adbSerial, "serial", "s", "", "ADB device serial")
	pf.Float64Var(&flags.timeout, "timeout", 0, "Command timeout in seconds")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text, json, zerolog")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(execCmd(flags))
	root.AddCommand(allCmd(flags))
	root.AddCommand(actionsCmd())
	root.AddCommand(healthCmd(flags))
	root.AddCommand(runScriptCmd(flags))
	root.AddCommand(versionCmd())

	return root
}

// hasTransportFlags reports whether any flag that builds a configuration
// was set.
func (f *globalFlags) hasTransportFlags() bool {
	return f.transport != "" || f.sshHost != "" || f.sshPort != 0 || f.sshUser != "" ||
		f.sshKey != "" || f.knownHosts != "" || f.adbHost != "" || f.adbPort != 0 ||
		f.adbSerial != "" || f.timeout != 0
}

// luaConfig renders the flags as a configuration chunk.
func (f *globalFlags) luaConfig() string {
	var b strings.Builder
	b.WriteString("deviceinfo.config = {\n")
	str := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "    %s = %s,\n", key, luaQuote(value))
		}
	}
	num := func(key string, value float64) {
		if value != 0 {
			fmt.Fprintf(&b, "    %s = %g,\n", key, value)
		}
	}

	str("transport", f.transport)
	str("ssh_host", f.sshHost)
	num("ssh_port", float64(f.sshPort))
	str("ssh_user", f.sshUser)
	str("ssh_key", f.sshKey)
	str("ssh_known_hosts", f.knownHosts)
	str("adb_host", f.adbHost)
	num("adb_port", float64(f.adbPort))
	str("adb_serial", f.adbSerial)
	num("command_timeout", f.timeout)

	logLevel := f.logLevel
	if logLevel == "" {
		logLevel = "warn"
	}
	str("log_level", logLevel)
	str("log_format", f.logFormat)
	b.WriteString("}\n")
	return b.String()
}

// luaQuote returns s as a single-quoted Lua string literal.
func luaQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// open creates a DeviceInfo from --config, or from the transport flags.
func (f *globalFlags) open(stderr io.Writer) (deviceinfo.DeviceInfo, error) {
	opts := deviceinfo.DefaultOptions()
	opts.LogOutput = stderr

	if f.configPath != "" {
		if f.hasTransportFlags() {
			return nil, fmt.Errorf("use either --config or transport flags, not both")
		}
		return deviceinfo.New(f.configPath, &opts)
	}
	return deviceinfo.NewFromReader(strings.NewReader(f.luaConfig()), &opts)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deviceinfo version %s\n", Version)
		},
	}
}

func actionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the supported actions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range knownActions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", cyan(fmt.Sprintf("%-15s", a.name)), a.summary)
			}
		},
	}
}

type actionInfo struct {
	name    string
	summary string
}

var knownActions = []actionInfo{
	{deviceinfo.ActionBatteryInfo, "Battery level (0-1, -1 when unknown) and charging state"},
	{deviceinfo.ActionDeviceInfo, "Identity, build, screen, memory and processor count"},
	{deviceinfo.ActionNetworkInfo, "Connection type, connectivity and carrier"},
}
