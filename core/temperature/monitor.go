// Package temperature tracks the external temperature feed received over
// CoE and answers whether the last reading is still trustworthy.
package temperature

import (
	"sync"
	"time"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/core/logger"
	"github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/core/model"
	"github.com/heatplan/heatplan/internal/eventbus"
)

// Monitor holds the single external temperature cell. Writes come from the
// CoE listener goroutine, reads from the poll loop; one mutex makes the
// read-and-compare-timestamp atomic with respect to writes.
//
// The network gives no ordering guarantee, so a late out-of-order packet may
// overwrite a newer reading. Last-write-wins is acceptable at the sensor's
// cadence.
type Monitor struct {
	mu      sync.Mutex
	reading *model.TemperatureReading
	stale   bool

	log logger.Logger
	bus *eventbus.Bus
	rec metrics.TemperatureRecorder
}

// New creates a Monitor with no reading; the feed starts out stale so the
// scaler fails safe until the first packet arrives. bus and rec may be nil.
func New(log logger.Logger, bus *eventbus.Bus, rec metrics.TemperatureRecorder) *Monitor {
	return &Monitor{stale: true, log: log, bus: bus, rec: rec}
}

// Record stores a reading with arrival time now, unconditionally replacing
// any prior value.
func (m *Monitor) Record(celsius float64, now time.Time) {
	m.mu.Lock()
	m.reading = &model.TemperatureReading{Celsius: celsius, At: now}
	becameFresh := m.stale
	m.stale = false
	m.mu.Unlock()

	if becameFresh {
		m.log.Infof("external temperature feed active: %.1f°C", celsius)
		m.publish(events.SensorStaleEvent{Stale: false, At: now})
	}
	m.publish(events.TemperatureEvent{Celsius: celsius, At: now})
	m.record(celsius, false, now)
}

// Current returns the stored reading if its arrival is no older than
// timeout relative to now. Otherwise it reports stale; the caller is
// expected to fall back to the configured maximum hold-over times.
func (m *Monitor) Current(now time.Time, timeout time.Duration) (float64, bool) {
	m.mu.Lock()
	var (
		value float64
		fresh bool
	)
	if m.reading != nil {
		if now.Sub(m.reading.At) <= timeout {
			value, fresh = m.reading.Celsius, true
		} else {
			value = m.reading.Celsius
		}
	}
	becameStale := !fresh && !m.stale && m.reading != nil
	if becameStale {
		m.stale = true
	}
	m.mu.Unlock()

	if becameStale {
		m.log.Infof("external temperature stale (last reading %.1f°C older than %s), using maximum hold-over times", value, timeout)
		m.publish(events.SensorStaleEvent{Stale: true, At: now})
		m.record(value, true, now)
	}
	if !fresh {
		return 0, false
	}
	return value, true
}

// Reading returns a snapshot of the stored reading for status reporting,
// regardless of staleness.
func (m *Monitor) Reading() (model.TemperatureReading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reading == nil {
		return model.TemperatureReading{}, false
	}
	return *m.reading, true
}

func (m *Monitor) publish(e any) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

func (m *Monitor) record(celsius float64, stale bool, t time.Time) {
	if m.rec == nil {
		return
	}
	if err := m.rec.RecordTemperature(celsius, stale, t); err != nil {
		m.log.Errorf("temperature metrics error: %v", err)
	}
}
