package model

import "time"

// BookingInterval is one occupancy window [Start, End) of a room, in UTC.
// A room may hold any number of intervals; they may overlap.
type BookingInterval struct {
	Start time.Time
	End   time.Time
}

// HeatWindow returns the interval widened by the effective lead and lag
// times: [Start-lead, End+lag).
func (b BookingInterval) HeatWindow(lead, lag time.Duration) (from, to time.Time) {
	return b.Start.Add(-lead), b.End.Add(lag)
}

// HeatsAt reports whether the heat window covers t. Overlapping intervals
// naturally union under this rule; lead times are never summed.
func (b BookingInterval) HeatsAt(t time.Time, lead, lag time.Duration) bool {
	from, to := b.HeatWindow(lead, lag)
	return !t.Before(from) && t.Before(to)
}
