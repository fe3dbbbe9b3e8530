package events

import "time"

// TemperatureEvent is published for every accepted external temperature
// reading.
type TemperatureEvent struct {
	Celsius float64
	At      time.Time
}

// SensorStaleEvent is published once whenever the temperature feed changes
// between fresh and stale; Stale reflects the new state.
type SensorStaleEvent struct {
	Stale bool
	At    time.Time
}
