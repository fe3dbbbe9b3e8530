package metrics

import (
	"strconv"
	"time"

	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling and dispatch outcomes in Prometheus metrics.
type PromSink struct {
	sends       *prometheus.CounterVec
	polls       *prometheus.CounterVec
	bookings    *prometheus.GaugeVec
	roomHeating *prometheus.GaugeVec
	extTemp     prometheus.Gauge
	extStale    prometheus.Gauge
}

// NewPromSink registers the collectors on the default Prometheus registerer.
// The ops HTTP server is started separately on cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the collectors on the provided
// registerer. A nil registerer defaults to the global one; collectors that
// are already registered are reused.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "command_send_events_total",
		Help: "Heating command sends by room, controller target and outcome",
	}, []string{"room", "target", "sent"})
	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_poll_total",
		Help: "Booking fetch attempts by room and result",
	}, []string{"room", "result"})
	bookings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bookings_known",
		Help: "Bookings currently known per room",
	}, []string{"room"})
	roomHeating := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "room_heating",
		Help: "Latched heating command per room (1 on, 0 off)",
	}, []string{"room"})
	extTemp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "external_temperature_celsius",
		Help: "Last external temperature reading",
	})
	extStale := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "external_temperature_stale",
		Help: "Whether the external temperature feed is stale (1 stale)",
	})

	if err := reg.Register(sends); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sends = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(polls); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			polls = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bookings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bookings = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(roomHeating); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			roomHeating = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(extTemp); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			extTemp = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(extStale); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			extStale = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		sends:       sends,
		polls:       polls,
		bookings:    bookings,
		roomHeating: roomHeating,
		extTemp:     extTemp,
		extStale:    extStale,
	}, nil
}

// RecordCommandSends increments the send counter for each result.
func (s *PromSink) RecordCommandSends(sends []coremetrics.CommandSend) error {
	for _, r := range sends {
		s.sends.WithLabelValues(r.Room, r.Target, strconv.FormatBool(r.Sent)).Inc()
	}
	return nil
}

// RecordPollResult counts the attempt and tracks the per-room booking gauge.
func (s *PromSink) RecordPollResult(res coremetrics.PollResult) error {
	result := "ok"
	if res.Error != "" {
		result = "error"
	} else {
		s.bookings.WithLabelValues(res.Room).Set(float64(res.Bookings))
	}
	s.polls.WithLabelValues(res.Room, result).Inc()
	return nil
}

// RecordTemperature tracks the reading and the staleness flag.
func (s *PromSink) RecordTemperature(celsius float64, stale bool, _ time.Time) error {
	s.extTemp.Set(celsius)
	if stale {
		s.extStale.Set(1)
	} else {
		s.extStale.Set(0)
	}
	return nil
}

// RecordRoomCommand tracks the latched command per room.
func (s *PromSink) RecordRoomCommand(room string, on bool, _ time.Time) error {
	if on {
		s.roomHeating.WithLabelValues(room).Set(1)
	} else {
		s.roomHeating.WithLabelValues(room).Set(0)
	}
	return nil
}
