package metrics

import "fmt"

// Config defines settings for metrics sinks and the ops HTTP server.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	// OpsToken, when set, protects the dispatch log endpoint with a
	// bearer token. The room status and metrics endpoints stay open.
	OpsToken      string `json:"ops_token"`
	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults applies the default ops listen address.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// Validate checks that enabled sinks are fully specified.
func (c Config) Validate() error {
	if c.InfluxEnabled {
		if c.InfluxURL == "" {
			return fmt.Errorf("metrics: influx_url is required when influx_enabled")
		}
		if c.InfluxOrg == "" || c.InfluxBucket == "" {
			return fmt.Errorf("metrics: influx_org and influx_bucket are required when influx_enabled")
		}
	}
	return nil
}
