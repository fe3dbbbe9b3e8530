package model

import "time"

// TemperatureReading is the last external temperature received over CoE.
// At most one reading exists per process; new arrivals overwrite it.
type TemperatureReading struct {
	Celsius float64
	At      time.Time
}
