package observability

import (
	"fmt"
	"time"
)

// Config enables OTLP export of traces and metrics. With an empty Endpoint
// nothing is exported and the global no-op providers stay in place.
type Config struct {
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plain HTTP to the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// MetricInterval is the metric export interval.
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be within [0,1] (got: %v)", c.SampleRate)
	}
	return nil
}

// Enabled reports whether an exporter endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}
