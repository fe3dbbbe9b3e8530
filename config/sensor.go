package config

import (
	"net"
	"time"
)

// SensorConfig selects which CoE sender is accepted as the external
// temperature feed and how old a reading may grow before fail-safe applies.
type SensorConfig struct {
	// BindAddr is the local UDP listen address; the port is always 5442.
	BindAddr string `json:"bind_addr"`
	// CANID is the sending node id, 1..62.
	CANID int `json:"can_id"`
	// PDOIndex is the sender's analog output, one-based like the CMI room
	// mappings.
	PDOIndex int `json:"pdo_index"`
	// Timeout is the staleness horizon in minutes.
	Timeout int `json:"timeout"`
}

// SetDefaults applies the wildcard bind address and the default staleness
// horizon.
func (c *SensorConfig) SetDefaults() {
	if c.BindAddr == "" {
		c.BindAddr = "0.0.0.0"
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// Validate checks the feed identity and horizon.
func (c SensorConfig) Validate() error {
	if c.CANID < 1 || c.CANID > 62 {
		return invalid("external_temperature_sensor", "can_id", "must be within 1..62, got %d", c.CANID)
	}
	if c.PDOIndex < 1 || c.PDOIndex > 64 {
		return invalid("external_temperature_sensor", "pdo_index", "must be within 1..64, got %d", c.PDOIndex)
	}
	if c.Timeout < 1 {
		return invalid("external_temperature_sensor", "timeout", "must be at least 1 minute, got %d", c.Timeout)
	}
	if net.ParseIP(c.BindAddr) == nil {
		return invalid("external_temperature_sensor", "bind_addr", "not an IP address: %q", c.BindAddr)
	}
	return nil
}

// StaleAfter returns the staleness horizon as a duration.
func (c SensorConfig) StaleAfter() time.Duration {
	return time.Duration(c.Timeout) * time.Minute
}

// WirePDO returns the zero-based slot index matched against inbound payloads.
func (c SensorConfig) WirePDO() uint8 {
	return uint8(c.PDOIndex - 1)
}
