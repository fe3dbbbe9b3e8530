package metrics

import "time"

// CommandSend is one outbound heating command to a (target, slot) pair,
// recorded per dispatch pass.
type CommandSend struct {
	// TickID correlates all sends of one dispatch pass.
	TickID   string
	Target   string
	Room     string
	PDOIndex uint8
	On       bool
	Sent     bool
	Latency  time.Duration
	Error    string
	Time     time.Time
}

// MetricsSink records dispatch results for observability purposes.
type MetricsSink interface {
	RecordCommandSends(sends []CommandSend) error
}

// PollResult captures the outcome of one booking fetch for one room.
type PollResult struct {
	Room     string
	Bookings int
	Error    string
	Time     time.Time
}

// PollRecorder is implemented by sinks able to record booking poll outcomes.
type PollRecorder interface {
	RecordPollResult(res PollResult) error
}

// TemperatureRecorder is implemented by sinks able to record the external
// temperature feed and its staleness.
type TemperatureRecorder interface {
	RecordTemperature(celsius float64, stale bool, t time.Time) error
}

// CommandRecorder is implemented by sinks able to record latched room
// commands as they change.
type CommandRecorder interface {
	RecordRoomCommand(room string, on bool, t time.Time) error
}

// NopSink implements all recorder interfaces with no-op methods.
type NopSink struct{}

func (NopSink) RecordCommandSends([]CommandSend) error           { return nil }
func (NopSink) RecordPollResult(PollResult) error                { return nil }
func (NopSink) RecordTemperature(float64, bool, time.Time) error { return nil }
func (NopSink) RecordRoomCommand(string, bool, time.Time) error  { return nil }
