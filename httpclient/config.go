package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/transcriptfeed/resilience"
	"github.com/kbukum/transcriptfeed/security"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds each attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// TLS configures the transport. Nil uses system defaults.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth is the default authentication; requests may override it.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`
	// Retry enables retries. Nil disables them.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
	// CircuitBreaker enables a breaker. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRetryConfig retries timeouts, connection errors, 429 and 5xx.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig opens on timeouts, connection errors and 5xx
// only; a 4xx says nothing about the remote side's health.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = IsRetryable
	return &cfg
}
