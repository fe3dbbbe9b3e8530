package events

import "time"

// SendEvent is published for every (target, slot) send of a dispatch pass,
// acknowledged or failed. TickID correlates all sends of one pass.
type SendEvent struct {
	TickID  string
	Target  string
	Room    string
	PDO     uint8
	On      bool
	Err     error
	Latency time.Duration
	At      time.Time
}
