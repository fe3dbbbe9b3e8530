package config

import "net"

// GlobalConfig carries the service-wide cadences and the process log level.
type GlobalConfig struct {
	// CTPullFrequency is the booking poll cadence in seconds.
	CTPullFrequency int `json:"ct_pull_frequency"`
	// TAPushFrequency is the command push cadence in minutes. Controllers
	// fall back to their own default output when commands stop arriving, so
	// pushes double as a keep-alive; less than a minute is below what the
	// hardware accepts.
	TAPushFrequency int `json:"ta_push_frequency"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// EmiterBindAddr is the local address outbound CoE sockets bind to.
	EmiterBindAddr string `json:"emiter_bind_addr"`
}

// SetDefaults applies the default log level and wildcard bind address. The
// cadences have no defaults: they must be set explicitly.
func (c *GlobalConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.EmiterBindAddr == "" {
		c.EmiterBindAddr = "0.0.0.0"
	}
}

// Validate rejects cadences that would disable or spin a loop.
func (c GlobalConfig) Validate() error {
	if c.CTPullFrequency < 1 {
		return invalid("global", "ct_pull_frequency", "must be at least 1 second, got %d", c.CTPullFrequency)
	}
	if c.TAPushFrequency < 1 {
		return invalid("global", "ta_push_frequency", "must be at least 1 minute, got %d", c.TAPushFrequency)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return invalid("global", "log_level", "unknown level %q", c.LogLevel)
	}
	if net.ParseIP(c.EmiterBindAddr) == nil {
		return invalid("global", "emiter_bind_addr", "not an IP address: %q", c.EmiterBindAddr)
	}
	return nil
}

// DispatchConfig tunes command sending. The push cadence itself lives under
// global.ta_push_frequency.
type DispatchConfig struct {
	// SendTimeoutSeconds bounds each (target, slot) send.
	SendTimeoutSeconds int `json:"send_timeout_seconds"`
}

// SetDefaults applies the default per-send deadline.
func (c *DispatchConfig) SetDefaults() {
	if c.SendTimeoutSeconds == 0 {
		c.SendTimeoutSeconds = 5
	}
}

// Validate rejects non-positive deadlines.
func (c DispatchConfig) Validate() error {
	if c.SendTimeoutSeconds < 1 {
		return invalid("dispatch", "send_timeout_seconds", "must be at least 1 second, got %d", c.SendTimeoutSeconds)
	}
	return nil
}
