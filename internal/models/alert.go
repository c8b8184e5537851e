package models

import "time"

// AlertKind categorizes the condition that fired.
type AlertKind string

const (
	VolumeSpike   AlertKind = "volume_spike"
	PriceMove     AlertKind = "price_move"
	PriceWarning  AlertKind = "price_warning"
	TargetReached AlertKind = "target_reached"

	// MonitorNotice covers run-level events (feed unreachable, retry budget
	// exhausted, shutdown) that are not tied to a single symbol.
	MonitorNotice AlertKind = "monitor_notice"
)

// Alert is one candidate produced by the evaluator for a single tick.
// Whether it is actually delivered is decided downstream by the cooldown
// dispatcher.
type Alert struct {
	Code     string
	Label    string
	Kind     AlertKind
	Title    string
	Message  string
	Critical bool

	Price         float64
	ChangePercent float64
	VolumeDelta   float64
	TargetPrice   float64

	DetectedAt time.Time
}
