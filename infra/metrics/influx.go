package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/infra/logger"
)

// InfluxSink writes scheduling and dispatch events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the configured InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing metrics backend never
// keeps heating commands from flowing.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCommandSends writes each send as a point.
func (s *InfluxSink) RecordCommandSends(sends []coremetrics.CommandSend) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range sends {
		p := write.NewPointWithMeasurement("command_send").
			AddTag("tick_id", r.TickID).
			AddTag("target", r.Target).
			AddTag("room", r.Room).
			AddTag("pdo_index", strconv.Itoa(int(r.PDOIndex))).
			AddTag("sent", strconv.FormatBool(r.Sent)).
			AddField("on", r.On).
			AddField("latency_ms", float64(r.Latency.Microseconds())/1000).
			AddField("error", r.Error).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordPollResult writes one booking fetch outcome.
func (s *InfluxSink) RecordPollResult(res coremetrics.PollResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := "ok"
	if res.Error != "" {
		result = "error"
	}
	p := write.NewPointWithMeasurement("booking_poll").
		AddTag("room", res.Room).
		AddTag("result", result).
		AddField("bookings", res.Bookings).
		AddField("error", res.Error).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTemperature writes the external temperature feed state.
func (s *InfluxSink) RecordTemperature(celsius float64, stale bool, t time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("external_temperature").
		AddTag("stale", strconv.FormatBool(stale)).
		AddField("celsius", celsius).
		SetTime(t)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRoomCommand writes a latched command transition.
func (s *InfluxSink) RecordRoomCommand(room string, on bool, t time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("room_heating").
		AddTag("room", room).
		AddField("on", on).
		SetTime(t)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts the underlying client down.
func (s *InfluxSink) Close() {
	s.client.Close()
}
