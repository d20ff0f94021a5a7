package platform

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opd-ai/go-deviceinfo/internal/device"
)

// linuxBattery synthesizes the battery broadcast from the sysfs
// power_supply class.
type linuxBattery struct {
	powerSupplyPath string
}

func newLinuxBattery() *linuxBattery {
	return &linuxBattery{
		powerSupplyPath: "/sys/class/power_supply",
	}
}

// StickyBatteryIntent reports the first battery supply. Hosts without a
// battery return nil.
func (b *linuxBattery) StickyBatteryIntent(context.Context) *device.BatteryIntent {
	batteries := b.findBatteries()
	if len(batteries) == 0 {
		return nil
	}
	batteryPath := filepath.Join(b.powerSupplyPath, batteries[0])

	capacity, err := readIntFile(filepath.Join(batteryPath, "capacity"))
	if err != nil {
		capacity = -1
	}
	status, _ := readStringFile(filepath.Join(batteryPath, "status"))

	return device.NewBatteryIntent(capacity, 100, sysfsBatteryStatus(status))
}

// findBatteries returns the battery power supply names, sorted.
func (b *linuxBattery) findBatteries() []string {
	entries, err := os.ReadDir(b.powerSupplyPath)
	if err != nil {
		return nil
	}

	var batteries []string
	for _, entry := range entries {
		typeData, err := os.ReadFile(filepath.Join(b.powerSupplyPath, entry.Name(), "type"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(typeData)) == "Battery" {
			batteries = append(batteries, entry.Name())
		}
	}
	return batteries
}

// sysfsBatteryStatus maps the power_supply status string onto the
// broadcast status codes.
func sysfsBatteryStatus(status string) int {
	switch strings.TrimSpace(status) {
	case "Charging":
		return device.BatteryStatusCharging
	case "Discharging":
		return device.BatteryStatusDischarging
	case "Not charging":
		return device.BatteryStatusNotCharging
	case "Full":
		return device.BatteryStatusFull
	default:
		return device.BatteryStatusUnknown
	}
}

func readStringFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readIntFile(path string) (int, error) {
	s, err := readStringFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
