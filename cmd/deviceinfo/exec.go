package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-deviceinfo/pkg/deviceinfo"
)

type outputFlags struct {
	json  bool
	raw   bool
	query string
}

func (o *outputFlags) mode() outputMode {
	switch {
	case o.raw:
		return outputRaw
	case o.json:
		return outputJSON
	default:
		return outputTable
	}
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Print indented JSON")
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print the payload exactly as returned")
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "Print one field (gjson path syntax, e.g. screenWidth)")
}

func execCmd(flags *globalFlags) *cobra.Command {
	out := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "exec <action>",
		Short: "Run one action and print its result",
		Example: `  deviceinfo exec getBatteryInfo
  deviceinfo exec getDeviceInfo --transport ssh --ssh-host 192.168.1.20 --ssh-user u0_a123
  deviceinfo exec getNetworkInfo --query carrierName`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			names := make([]string, 0, len(knownActions))
			for _, a := range knownActions {
				names = append(names, a.name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			payload, err := d.Call(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printPayload(cmd.OutOrStdout(), payload, out.mode(), out.query)
		},
	}
	out.register(cmd)
	return cmd
}

func allCmd(flags *globalFlags) *cobra.Command {
	out := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every action concurrently and print each result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			return runAll(cmd.Context(), d, cmd.OutOrStdout(), out)
		},
	}
	out.register(cmd)
	return cmd
}

type actionResult struct {
	payload []byte
	err     error
}

// runAll calls every action in parallel and prints them in action order.
// It fails if any action failed, after printing the others.
func runAll(ctx context.Context, d deviceinfo.DeviceInfo, w io.Writer, out *outputFlags) error {
	actions := d.Actions()
	results := make([]actionResult, len(actions))

	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action string) {
			defer wg.Done()
			payload, err := d.Call(ctx, action)
			results[i] = actionResult{payload, err}
		}(i, action)
	}
	wg.Wait()

	var failed []string
	for i, action := range actions {
		fmt.Fprintln(w, bold(action))
		if err := results[i].err; err != nil {
			fmt.Fprintf(w, "  %s %v\n", red("✗"), err)
			failed = append(failed, action)
			continue
		}
		if err := printPayload(w, results[i].payload, out.mode(), out.query); err != nil {
			fmt.Fprintf(w, "  %s %v\n", red("✗"), err)
			failed = append(failed, action)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d action(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}
