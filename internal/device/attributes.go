package device

import (
	"context"
	"fmt"
)

// bytesPerMiB converts memory figures from bytes to mebibytes.
const bytesPerMiB = 1024 * 1024

// Attributes is the flat identity/capability record returned by
// getDeviceInfo. It is built fresh on every call and never mutated.
type Attributes struct {
	UUID             string  `json:"uuid"`
	Model            string  `json:"model"`
	Manufacturer     string  `json:"manufacturer"`
	Platform         string  `json:"platform"`
	OSVersion        string  `json:"osVersion"`
	SDKVersion       int     `json:"sdkVersion"`
	DeviceName       string  `json:"deviceName"`
	Brand            string  `json:"brand"`
	Product          string  `json:"product"`
	Hardware         string  `json:"hardware"`
	IsPhysicalDevice bool    `json:"isPhysicalDevice"`
	ScreenWidth      int     `json:"screenWidth"`
	ScreenHeight     int     `json:"screenHeight"`
	ScreenScale      float64 `json:"screenScale"`
	TotalMemory      int64   `json:"totalMemory"`
	ProcessorCount   int     `json:"processorCount"`
}

// ReadAttributes collects the sixteen device attributes from src.
// A failing lookup fails the whole read; no partial record is returned.
func ReadAttributes(ctx context.Context, src AttributeSource) (*Attributes, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	build, err := src.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build info: %w", err)
	}

	id, err := src.SecureID(ctx)
	if err != nil {
		return nil, fmt.Errorf("secure id: %w", err)
	}

	metrics, err := src.RealDisplayMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("display metrics: %w", err)
	}

	mem, err := src.MemoryBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}

	cpus, err := src.ProcessorCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("processor count: %w", err)
	}

	return &Attributes{
		UUID:             id,
		Model:            build.Model,
		Manufacturer:     build.Manufacturer,
		Platform:         src.Platform(),
		OSVersion:        build.OSVersion,
		SDKVersion:       build.SDKVersion,
		DeviceName:       build.Device,
		Brand:            build.Brand,
		Product:          build.Product,
		Hardware:         build.Hardware,
		IsPhysicalDevice: !IsEmulator(build),
		ScreenWidth:      metrics.WidthPixels,
		ScreenHeight:     metrics.HeightPixels,
		ScreenScale:      metrics.Density,
		TotalMemory:      BytesToMiB(mem),
		ProcessorCount:   cpus,
	}, nil
}

// BytesToMiB converts a byte count to whole mebibytes, truncating.
func BytesToMiB(b uint64) int64 {
	return int64(b / bytesPerMiB)
}
