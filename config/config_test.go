package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heatplan/heatplan/core/holdover"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fullConfig = `global:
  ct_pull_frequency: 60
  ta_push_frequency: 1
  log_level: debug
  emiter_bind_addr: 192.168.1.2
rooms:
  sanctuary:
    churchtools_id: 17
    preheat_mins: 45
    preshutdown_mins: 15
  parish-hall:
    churchtools_id: 21
cmis:
  - host: 10.1.0.5
    our_virtual_can_id: 50
    rooms:
      - {name: sanctuary, pdo_index: 1}
      - {name: parish-hall, pdo_index: 2}
  - host: 10.1.0.6:5442
    our_virtual_can_id: 51
    rooms:
      - {name: sanctuary, pdo_index: 4}
external_temperature_sensor:
  can_id: 10
  pdo_index: 2
  timeout: 45
ct:
  host: churchtools.example.org
  login_token: secret
holdover:
  low_temp_c: -10.0
  high_temp_c: 20.0
  min_fraction: 0.0
metrics:
  prometheus_enabled: true
  ops_token: ops-secret
`

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", fullConfig))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"ct_pull_frequency", cfg.Global.CTPullFrequency, 60},
		{"ta_push_frequency", cfg.Global.TAPushFrequency, 1},
		{"log_level", cfg.Global.LogLevel, "debug"},
		{"emiter_bind_addr", cfg.Global.EmiterBindAddr, "192.168.1.2"},
		{"rooms.sanctuary.churchtools_id", cfg.Rooms["sanctuary"].ChurchToolsID, int64(17)},
		{"cmis[0].host", cfg.CMIs[0].Host, "10.1.0.5"},
		{"cmis[0].our_virtual_can_id", cfg.CMIs[0].OurVirtualCANID, 50},
		{"cmis[1].host", cfg.CMIs[1].Host, "10.1.0.6:5442"},
		{"sensor.bind_addr default", cfg.Sensor.BindAddr, "0.0.0.0"},
		{"sensor.can_id", cfg.Sensor.CANID, 10},
		{"sensor.timeout", cfg.Sensor.Timeout, 45},
		{"ct.host", cfg.CT.Host, "churchtools.example.org"},
		{"ct.login_token", cfg.CT.LoginToken, "secret"},
		{"ct.lookahead_hours default", cfg.CT.LookaheadHours, 24},
		{"ct.request_timeout_seconds default", cfg.CT.RequestTimeoutSeconds, 10},
		{"holdover.low_temp_c", cfg.Holdover.LowTempC, -10.0},
		{"dispatch.send_timeout_seconds default", cfg.Dispatch.SendTimeoutSeconds, 5},
		{"metrics.prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"metrics.prometheus_addr default", cfg.Metrics.PrometheusAddr, ":9090"},
		{"metrics.ops_token", cfg.Metrics.OpsToken, "ops-secret"},
		{"mqtt disabled by default", cfg.MQTT.Enabled, false},
		{"mqtt.client_id default", cfg.MQTT.ClientID, "heatplan"},
		{"mqtt.topic_prefix default", cfg.MQTT.TopicPrefix, "heatplan"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.Rooms["sanctuary"].PreheatMins == nil || *cfg.Rooms["sanctuary"].PreheatMins != 45 {
		t.Errorf("preheat_mins not parsed: %v", cfg.Rooms["sanctuary"].PreheatMins)
	}
	if cfg.Rooms["parish-hall"].PreheatMins != nil {
		t.Errorf("absent preheat_mins must stay nil, got %v", *cfg.Rooms["parish-hall"].PreheatMins)
	}
}

func TestLoadJSON(t *testing.T) {
	data := `{
  "global": {"ct_pull_frequency": 30, "ta_push_frequency": 2},
  "rooms": {"sanctuary": {"churchtools_id": 17}},
  "cmis": [{"host": "10.1.0.5", "our_virtual_can_id": 50, "rooms": [{"name": "sanctuary", "pdo_index": 1}]}],
  "external_temperature_sensor": {"can_id": 10, "pdo_index": 2},
  "ct": {"host": "ct.example.org", "login_token": "tok"}
}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Global.CTPullFrequency != 30 || cfg.Global.TAPushFrequency != 2 {
		t.Fatalf("cadences %d/%d", cfg.Global.CTPullFrequency, cfg.Global.TAPushFrequency)
	}
	if cfg.Sensor.Timeout != 30 {
		t.Fatalf("sensor timeout default %d, want 30", cfg.Sensor.Timeout)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HEATPLAN_CT__LOGIN_TOKEN", "from-env")
	t.Setenv("HEATPLAN_GLOBAL__LOG_LEVEL", "warn")
	cfg, err := Load(writeConfig(t, "config.yaml", fullConfig))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.CT.LoginToken != "from-env" {
		t.Errorf("login_token not overridden: %q", cfg.CT.LoginToken)
	}
	if cfg.Global.LogLevel != "warn" {
		t.Errorf("log_level not overridden: %q", cfg.Global.LogLevel)
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{CTPullFrequency: 60, TAPushFrequency: 1, LogLevel: "info", EmiterBindAddr: "0.0.0.0"},
		Rooms:  map[string]RoomConfig{"sanctuary": {ChurchToolsID: 17}},
		CMIs: []CMIConfig{{
			Host:            "10.1.0.5",
			OurVirtualCANID: 50,
			Rooms:           []CMIRoomConfig{{Name: "sanctuary", PDOIndex: 1}},
		}},
		Sensor:   SensorConfig{BindAddr: "0.0.0.0", CANID: 10, PDOIndex: 2, Timeout: 30},
		CT:       CTConfig{Host: "ct.example.org", LoginToken: "tok", LookaheadHours: 24, RequestTimeoutSeconds: 10},
		Holdover: holdover.Config{LowTempC: -10, HighTempC: 20},
		Dispatch: DispatchConfig{SendTimeoutSeconds: 5},
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero pull cadence", func(c *Config) { c.Global.CTPullFrequency = 0 }},
		{"zero push cadence", func(c *Config) { c.Global.TAPushFrequency = 0 }},
		{"unknown log level", func(c *Config) { c.Global.LogLevel = "verbose" }},
		{"bad emiter bind addr", func(c *Config) { c.Global.EmiterBindAddr = "not-an-ip" }},
		{"no rooms", func(c *Config) { c.Rooms = nil }},
		{"non-positive churchtools id", func(c *Config) { c.Rooms["sanctuary"] = RoomConfig{ChurchToolsID: 0} }},
		{"preheat out of range", func(c *Config) {
			v := 300
			rc := c.Rooms["sanctuary"]
			rc.PreheatMins = &v
			c.Rooms["sanctuary"] = rc
		}},
		{"negative preshutdown", func(c *Config) {
			v := -1
			rc := c.Rooms["sanctuary"]
			rc.PreshutdownMins = &v
			c.Rooms["sanctuary"] = rc
		}},
		{"cmi without host", func(c *Config) { c.CMIs[0].Host = "" }},
		{"cmi can id out of range", func(c *Config) { c.CMIs[0].OurVirtualCANID = 63 }},
		{"cmi without rooms", func(c *Config) { c.CMIs[0].Rooms = nil }},
		{"cmi references unknown room", func(c *Config) { c.CMIs[0].Rooms[0].Name = "crypt" }},
		{"pdo index zero", func(c *Config) { c.CMIs[0].Rooms[0].PDOIndex = 0 }},
		{"pdo index too large", func(c *Config) { c.CMIs[0].Rooms[0].PDOIndex = 65 }},
		{"duplicate pdo index", func(c *Config) {
			c.CMIs[0].Rooms = append(c.CMIs[0].Rooms, CMIRoomConfig{Name: "sanctuary", PDOIndex: 1})
		}},
		{"sensor can id out of range", func(c *Config) { c.Sensor.CANID = 0 }},
		{"sensor pdo out of range", func(c *Config) { c.Sensor.PDOIndex = 65 }},
		{"sensor timeout zero", func(c *Config) { c.Sensor.Timeout = 0 }},
		{"missing ct host", func(c *Config) { c.CT.Host = "" }},
		{"missing login token", func(c *Config) { c.CT.LoginToken = "" }},
	}
	for _, c := range cases {
		cfg := validConfig()
		c.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", c.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: error %v is not a ValidationError", c.name, err)
		}
	}
}

func TestResolveRooms(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", fullConfig))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	rooms := cfg.ResolveRooms()
	if len(rooms) != 2 {
		t.Fatalf("resolved %d rooms, want 2", len(rooms))
	}
	if rooms[0].Name != "parish-hall" || rooms[1].Name != "sanctuary" {
		t.Fatalf("rooms not in name order: %q, %q", rooms[0].Name, rooms[1].Name)
	}
	if rooms[0].Preheat != 30*time.Minute || rooms[0].Preshutdown != 10*time.Minute {
		t.Errorf("parish-hall defaults %v/%v, want 30m/10m", rooms[0].Preheat, rooms[0].Preshutdown)
	}
	if rooms[1].Preheat != 45*time.Minute || rooms[1].Preshutdown != 15*time.Minute {
		t.Errorf("sanctuary hold-over %v/%v, want 45m/15m", rooms[1].Preheat, rooms[1].Preshutdown)
	}
	if rooms[1].ChurchToolsID != 17 {
		t.Errorf("sanctuary id %d, want 17", rooms[1].ChurchToolsID)
	}
}

func TestResolveTargets(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", fullConfig))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	targets := cfg.ResolveTargets()
	if len(targets) != 2 {
		t.Fatalf("resolved %d targets, want 2", len(targets))
	}
	if targets[0].Host != "10.1.0.5" || targets[0].VirtualCANID != 50 {
		t.Fatalf("target 0: %s node %d", targets[0].Host, targets[0].VirtualCANID)
	}
	// Config indexes are one-based; the wire uses zero-based slots.
	if targets[0].Slots[0].Room != "sanctuary" || targets[0].Slots[0].PDOIndex != 0 {
		t.Errorf("slot 0: %+v", targets[0].Slots[0])
	}
	if targets[0].Slots[1].Room != "parish-hall" || targets[0].Slots[1].PDOIndex != 1 {
		t.Errorf("slot 1: %+v", targets[0].Slots[1])
	}
	if targets[1].Slots[0].PDOIndex != 3 {
		t.Errorf("second target slot: %+v", targets[1].Slots[0])
	}
	if cfg.Sensor.WirePDO() != 1 {
		t.Errorf("sensor wire pdo %d, want 1", cfg.Sensor.WirePDO())
	}
	if cfg.Sensor.StaleAfter() != 45*time.Minute {
		t.Errorf("stale horizon %v, want 45m", cfg.Sensor.StaleAfter())
	}
}

func TestCadenceMapping(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", fullConfig))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	bc := cfg.BookingConfig()
	if bc.PullCadenceSeconds != 60 || bc.LookaheadHours != 24 || bc.RequestTimeoutSeconds != 10 {
		t.Fatalf("booking config %+v", bc)
	}
	dc := cfg.DispatcherConfig()
	if dc.PushCadenceMinutes != 1 || dc.SendTimeoutSeconds != 5 {
		t.Fatalf("dispatcher config %+v", dc)
	}
}

func TestLoginTokenRedacted(t *testing.T) {
	ct := CTConfig{Host: "ct.example.org", LoginToken: "super-secret", LookaheadHours: 24, RequestTimeoutSeconds: 10}
	for _, dump := range []string{fmt.Sprintf("%v", ct), fmt.Sprintf("%+v", ct), fmt.Sprint(ct)} {
		if strings.Contains(dump, "super-secret") {
			t.Fatalf("login token leaked: %s", dump)
		}
		if !strings.Contains(dump, "[redacted]") {
			t.Fatalf("redaction marker missing: %s", dump)
		}
	}
}
