package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/heatplan/heatplan/core/metrics"
)

func influxConfig(url string) coremetrics.Config {
	return coremetrics.Config{
		InfluxEnabled: true,
		InfluxURL:     url,
		InfluxToken:   "token",
		InfluxOrg:     "org",
		InfluxBucket:  "bucket",
	}
}

func TestInfluxSink_RecordCommandSends(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(influxConfig(srv.URL))
	defer sink.Close()
	now := time.Now()
	rec := coremetrics.CommandSend{
		TickID:   "tick-1",
		Target:   "10.1.0.5:5442/node50",
		Room:     "nave",
		PDOIndex: 3,
		On:       true,
		Sent:     true,
		Latency:  1500 * time.Microsecond,
		Time:     now,
	}
	if err := sink.RecordCommandSends([]coremetrics.CommandSend{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("command_send").
		AddTag("tick_id", "tick-1").
		AddTag("target", "10.1.0.5:5442/node50").
		AddTag("room", "nave").
		AddTag("pdo_index", "3").
		AddTag("sent", "true").
		AddField("on", true).
		AddField("latency_ms", 1.5).
		AddField("error", "").
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, expected)
	}
}

func TestInfluxSink_RecordTemperature(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(influxConfig(srv.URL))
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordTemperature(21.3, false, now); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(body, "external_temperature") || !strings.Contains(body, "celsius=21.3") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer healthy.Close()

	if _, ok := NewInfluxSinkWithFallback(influxConfig(healthy.URL)).(*InfluxSink); !ok {
		t.Error("healthy instance should yield an InfluxSink")
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	if _, ok := NewInfluxSinkWithFallback(influxConfig(broken.URL)).(coremetrics.NopSink); !ok {
		t.Error("unhealthy instance should fall back to NopSink")
	}
}
