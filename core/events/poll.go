package events

import "time"

// PollEvent is published after each booking fetch attempt for a room. On
// failure Err is set and the room's previous booking set stays in place.
type PollEvent struct {
	Room     string
	Bookings int
	Err      error
	At       time.Time
}
