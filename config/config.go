// Package config loads, defaults and validates the service configuration
// and resolves it into the immutable views handed to components. Any
// validation failure is fatal at startup; nothing here changes at runtime.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/heatplan/heatplan/core/booking"
	"github.com/heatplan/heatplan/core/dispatch"
	"github.com/heatplan/heatplan/core/holdover"
	"github.com/heatplan/heatplan/core/metrics"
	"github.com/heatplan/heatplan/infra/mqtt"
)

// Config is the root configuration of the service.
type Config struct {
	Global   GlobalConfig          `json:"global"`
	Rooms    map[string]RoomConfig `json:"rooms"`
	CMIs     []CMIConfig           `json:"cmis"`
	Sensor   SensorConfig          `json:"external_temperature_sensor"`
	CT       CTConfig              `json:"ct"`
	Holdover holdover.Config       `json:"holdover"`
	Dispatch DispatchConfig        `json:"dispatch"`
	Metrics  metrics.Config        `json:"metrics"`
	MQTT     mqtt.Config           `json:"mqtt"`
}

// Load reads, defaults and validates a configuration file. YAML and JSON are
// selected by extension. Environment variables prefixed HEATPLAN_ override
// file values, with __ separating path segments:
// HEATPLAN_CT__LOGIN_TOKEN=... sets ct.login_token.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("HEATPLAN_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "heatplan_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Global.SetDefaults()
	cfg.Sensor.SetDefaults()
	cfg.CT.SetDefaults()
	cfg.Holdover.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and the cross-references between rooms and
// CMI mappings.
func (c *Config) Validate() error {
	if err := c.Global.Validate(); err != nil {
		return err
	}
	if err := validateRooms(c.Rooms); err != nil {
		return err
	}
	if err := validateCMIs(c.CMIs, c.Rooms); err != nil {
		return err
	}
	if err := c.Sensor.Validate(); err != nil {
		return err
	}
	if err := c.CT.Validate(); err != nil {
		return err
	}
	if err := c.Holdover.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.MQTT.Validate()
}

// BookingConfig maps the global and ct sections onto the poller's settings.
func (c *Config) BookingConfig() booking.Config {
	return booking.Config{
		PullCadenceSeconds:    c.Global.CTPullFrequency,
		LookaheadHours:        c.CT.LookaheadHours,
		RequestTimeoutSeconds: c.CT.RequestTimeoutSeconds,
	}
}

// DispatcherConfig maps the global and dispatch sections onto the
// dispatcher's settings.
func (c *Config) DispatcherConfig() dispatch.Config {
	return dispatch.Config{
		PushCadenceMinutes: c.Global.TAPushFrequency,
		SendTimeoutSeconds: c.Dispatch.SendTimeoutSeconds,
	}
}
