package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/transcriptfeed/resilience"
	"github.com/kbukum/transcriptfeed/security"
)

const (
	// DefaultEndpoint is the beta API root; the activity feed is beta only.
	DefaultEndpoint = "https://graph.microsoft.com/beta"
	// DefaultEncryptionCertificateID labels the webhook encryption certificate.
	DefaultEncryptionCertificateID = "transcriptfeed"
	// NotificationPath is where the webhook receiver listens.
	NotificationPath = "/api/notification/meetingEvents"
)

// Config configures Client.
type Config struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// NotificationURL is this service's public base URL.
	NotificationURL         string                          `yaml:"notification_url" mapstructure:"notification_url"`
	EncryptionCertificateID string                          `yaml:"encryption_certificate_id" mapstructure:"encryption_certificate_id"`
	Timeout                 time.Duration                   `yaml:"timeout" mapstructure:"timeout"`
	Retry                   resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker          resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	TLS                     *security.TLSConfig             `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.EncryptionCertificateID == "" {
		c.EncryptionCertificateID = DefaultEncryptionCertificateID
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("graph: endpoint must be an http(s) URL")
	}
	return nil
}

// WebhookURL is the notificationUrl sent when subscribing to call events.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.NotificationURL, "/") + NotificationPath
}
