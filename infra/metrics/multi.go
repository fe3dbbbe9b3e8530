package metrics

import (
	"time"

	coremetrics "github.com/heatplan/heatplan/core/metrics"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCommandSends forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordCommandSends(sends []coremetrics.CommandSend) error {
	for _, s := range m.Sinks {
		if err := s.RecordCommandSends(sends); err != nil {
			return err
		}
	}
	return nil
}

// RecordPollResult forwards poll outcomes when supported by the sink.
func (m *MultiSink) RecordPollResult(res coremetrics.PollResult) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.PollRecorder); ok {
			if err := rec.RecordPollResult(res); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTemperature forwards the feed state when supported by the sink.
func (m *MultiSink) RecordTemperature(celsius float64, stale bool, t time.Time) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TemperatureRecorder); ok {
			if err := rec.RecordTemperature(celsius, stale, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRoomCommand forwards command transitions when supported by the sink.
func (m *MultiSink) RecordRoomCommand(room string, on bool, t time.Time) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.CommandRecorder); ok {
			if err := rec.RecordRoomCommand(room, on, t); err != nil {
				return err
			}
		}
	}
	return nil
}
