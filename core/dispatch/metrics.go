package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sendLatency     *prometheus.HistogramVec
	commandsSent    *prometheus.CounterVec
	sendFailureRate *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.GaugeVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coe_send_latency_seconds",
			Help:    "Latency of CoE command sends per controller target",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)
	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commands_sent_total",
			Help: "Number of heating commands sent over CoE",
		},
		[]string{"target", "result"},
	)
	rate := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "send_failure_rate",
			Help: "Failed fraction of the last dispatch pass per controller target",
		},
		[]string{"target"},
	)
	return lat, sent, rate
}

func init() {
	sendLatency, commandsSent, sendFailureRate = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(sendLatency, commandsSent, sendFailureRate)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	sendLatency, commandsSent, sendFailureRate = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
