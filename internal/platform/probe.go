package platform

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// hostProbe reports the memory and processor figures of the target.
type hostProbe interface {
	MemoryBytes(ctx context.Context) (uint64, error)
	ProcessorCount(ctx context.Context) (int, error)
}

// gopsutilProbe reads the local host through gopsutil.
type gopsutilProbe struct{}

func (gopsutilProbe) MemoryBytes(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	return vm.Total, nil
}

func (gopsutilProbe) ProcessorCount(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("failed to count processors: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid processor count %d", n)
	}
	return n, nil
}

// shellProbe reads a remote target through /proc/meminfo and nproc.
type shellProbe struct {
	runner Runner
}

func (p shellProbe) MemoryBytes(ctx context.Context) (uint64, error) {
	output, err := p.runner.Run(ctx, "cat /proc/meminfo")
	if err != nil {
		return 0, fmt.Errorf("failed to read /proc/meminfo: %w", err)
	}
	return parseMemTotal(output)
}

func (p shellProbe) ProcessorCount(ctx context.Context) (int, error) {
	output, err := p.runner.Run(ctx, "nproc")
	if err != nil {
		return 0, fmt.Errorf("failed to run nproc: %w", err)
	}
	return parseCount(output)
}
