package config

import "fmt"

// CTConfig is the booking-service endpoint and pull tuning.
type CTConfig struct {
	// Host is the ChurchTools instance, host name or full URL.
	Host string `json:"host"`
	// LoginToken authenticates every request.
	LoginToken string `json:"login_token"`
	// LookaheadHours bounds how far ahead bookings are fetched.
	LookaheadHours int `json:"lookahead_hours"`
	// RequestTimeoutSeconds bounds each per-room request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// SetDefaults applies the default lookahead and request timeout.
func (c *CTConfig) SetDefaults() {
	if c.LookaheadHours == 0 {
		c.LookaheadHours = 24
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 10
	}
}

// Validate checks the endpoint and pull tuning.
func (c CTConfig) Validate() error {
	if c.Host == "" {
		return invalid("ct", "host", "is required")
	}
	if c.LoginToken == "" {
		return invalid("ct", "login_token", "is required")
	}
	if c.LookaheadHours < 1 {
		return invalid("ct", "lookahead_hours", "must be at least 1 hour, got %d", c.LookaheadHours)
	}
	if c.RequestTimeoutSeconds < 1 {
		return invalid("ct", "request_timeout_seconds", "must be at least 1 second, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// String keeps the login token out of logs and dumps.
func (c CTConfig) String() string {
	return fmt.Sprintf("{Host:%s LoginToken:[redacted] LookaheadHours:%d RequestTimeoutSeconds:%d}",
		c.Host, c.LookaheadHours, c.RequestTimeoutSeconds)
}
