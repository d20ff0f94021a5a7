package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-deviceinfo/internal/lua"
)

func runScriptCmd(flags *globalFlags) *cobra.Command {
	var (
		cpuLimit    uint64
		memoryLimit uint64
	)

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script with the deviceinfo bridge",
		Long: `Run a Lua script that calls the device-info actions through the global
deviceinfo table:

  deviceinfo.getBatteryInfo(function(r) print(r.level) end, print)
  deviceinfo.exec(ok, fail, "DeviceInfo", "getNetworkInfo", {})
  deviceinfo.wait(5)

Callbacks still pending when the script returns are delivered before exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			cfg := lua.DefaultConfig()
			cfg.CPULimit = cpuLimit
			cfg.MemoryLimit = memoryLimit
			cfg.Stdout = cmd.OutOrStdout()

			runtime, err := lua.New(cfg)
			if err != nil {
				return err
			}
			defer runtime.Close()

			host, err := lua.NewHost(runtime, d)
			if err != nil {
				return err
			}

			if _, err := runtime.ExecuteFile(args[0]); err != nil {
				return fmt.Errorf("script: %w", err)
			}
			if _, err := host.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("callbacks: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&cpuLimit, "cpu-limit", 0, "Lua instruction limit per call (0 = unlimited)")
	cmd.Flags().Uint64Var(&memoryLimit, "memory-limit", 0, "Lua memory limit in bytes (0 = unlimited)")
	return cmd
}
