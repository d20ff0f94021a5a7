package device

import "context"

// Battery-changed broadcast extra keys.
const (
	ExtraLevel   = "level"
	ExtraScale   = "scale"
	ExtraStatus  = "status"
	ExtraPlugged = "plugged"
)

// Battery status codes carried in the status extra.
const (
	BatteryStatusUnknown     = 1
	BatteryStatusCharging    = 2
	BatteryStatusDischarging = 3
	BatteryStatusNotCharging = 4
	BatteryStatusFull        = 5
)

// unknownLevel is reported when the charge fraction cannot be computed.
const unknownLevel = -1

// BatteryIntent is a battery-changed broadcast snapshot: a bag of integer
// extras keyed by name.
type BatteryIntent struct {
	Extras map[string]int
}

// NewBatteryIntent returns an intent carrying level, scale and status.
func NewBatteryIntent(level, scale, status int) *BatteryIntent {
	return &BatteryIntent{Extras: map[string]int{
		ExtraLevel:  level,
		ExtraScale:  scale,
		ExtraStatus: status,
	}}
}

// IntExtra returns the named extra, or def when it is absent.
func (i *BatteryIntent) IntExtra(name string, def int) int {
	if i == nil || i.Extras == nil {
		return def
	}
	v, ok := i.Extras[name]
	if !ok {
		return def
	}
	return v
}

// BatterySnapshot is the payload of getBatteryInfo.
type BatterySnapshot struct {
	// Level is the charge fraction in [0,1], or -1 when unknown.
	Level      float64 `json:"level"`
	IsCharging bool    `json:"isCharging"`
}

// ReadBattery computes the battery snapshot from the sticky broadcast.
// It never fails: a missing broadcast yields {-1, false}.
func ReadBattery(ctx context.Context, src BatterySource) *BatterySnapshot {
	var intent *BatteryIntent
	if src != nil {
		intent = src.StickyBatteryIntent(ctx)
	}
	if intent == nil {
		return &BatterySnapshot{Level: unknownLevel, IsCharging: false}
	}

	level := intent.IntExtra(ExtraLevel, -1)
	scale := intent.IntExtra(ExtraScale, -1)
	status := intent.IntExtra(ExtraStatus, -1)

	return &BatterySnapshot{
		Level:      chargeFraction(level, scale),
		IsCharging: status == BatteryStatusCharging || status == BatteryStatusFull,
	}
}

func chargeFraction(level, scale int) float64 {
	if level < 0 || scale <= 0 {
		return unknownLevel
	}
	return float64(level) / float64(scale)
}
