package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-deviceinfo/pkg/deviceinfo"
)

func healthCmd(flags *globalFlags) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Connect to the device and report component health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()

			h := d.Health()
			printHealth(cmd.OutOrStdout(), d.Platform(), h)
			printRecentErrors(cmd.OutOrStdout(), d.Errors().RecentErrors(recent))
			if h.IsUnhealthy() {
				return fmt.Errorf("unhealthy: %s", h.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "errors", 5, "number of recent errors to list")
	return cmd
}

func statusMark(s deviceinfo.HealthStatus) string {
	switch s {
	case deviceinfo.HealthOK:
		return green("✓")
	case deviceinfo.HealthDegraded:
		return yellow("!")
	default:
		return red("✗")
	}
}

func printHealth(w io.Writer, platform string, h deviceinfo.HealthCheck) {
	fmt.Fprintf(w, "%s %s %s\n", statusMark(h.Status), bold(platform), h.Message)

	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := h.Components[name]
		fmt.Fprintf(w, "  %s %-10s %s\n", statusMark(c.Status), name, dim(c.Message))
	}
}

func printRecentErrors(w io.Writer, errs []deviceinfo.CategorizedError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", bold("recent errors"))
	for _, e := range errs {
		fmt.Fprintf(w, "  %s %s\n", dim(e.Timestamp.Format("15:04:05")), e.Error())
	}
}
