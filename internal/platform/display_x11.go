package platform

import (
	"context"
	"fmt"
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// mmPerInch converts the X11 screen size in millimetres to inches.
const mmPerInch = 25.4

// displayProbe reports the real display metrics of a host.
type displayProbe interface {
	Metrics(ctx context.Context) (device.DisplayMetrics, error)
}

// x11Display reads the default screen of the X server named by $DISPLAY.
// A host without a display reports zero metrics rather than an error.
type x11Display struct {
	getenv func(string) string
}

func newX11Display() *x11Display {
	return &x11Display{getenv: os.Getenv}
}

func (d *x11Display) Metrics(context.Context) (device.DisplayMetrics, error) {
	if d.getenv("DISPLAY") == "" {
		return device.DisplayMetrics{}, nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return device.DisplayMetrics{}, fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		return device.DisplayMetrics{}, fmt.Errorf("no screens found")
	}

	screen := setup.Roots[0]
	return screenMetrics(int(screen.WidthInPixels), int(screen.HeightInPixels), int(screen.WidthInMillimeters)), nil
}

// screenMetrics derives the density factor from the horizontal pixel count
// and physical width. An unknown physical width yields density 1.
func screenMetrics(widthPx, heightPx, widthMM int) device.DisplayMetrics {
	density := 1.0
	if widthMM > 0 && widthPx > 0 {
		dpi := float64(widthPx) / (float64(widthMM) / mmPerInch)
		density = densityFromDPI(dpi)
	}
	return device.DisplayMetrics{
		WidthPixels:  widthPx,
		HeightPixels: heightPx,
		Density:      density,
	}
}
