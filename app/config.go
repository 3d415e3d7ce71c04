package app

import (
	"fmt"
	"path/filepath"

	"github.com/kbukum/transcriptfeed/config"
	"github.com/kbukum/transcriptfeed/graph"
	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/observability"
	"github.com/kbukum/transcriptfeed/server"
	"github.com/kbukum/transcriptfeed/token"
)

// ServiceName is the default service name and config directory.
const ServiceName = "transcriptfeed"

// Config is the complete service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Graph         graph.Config         `yaml:"graph" mapstructure:"graph"`
	Auth          AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Certificates  CertificatesConfig   `yaml:"certificates" mapstructure:"certificates"`
	Streaming     StreamingConfig      `yaml:"streaming" mapstructure:"streaming"`
	Logs          LogsConfig           `yaml:"logs" mapstructure:"logs"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// AuthConfig selects how bearer tokens are obtained. With a client id the
// app token comes from the client credentials grant; StaticToken alone is a
// development shortcut used for both app and delegated calls.
type AuthConfig struct {
	token.Config `yaml:",inline" mapstructure:",squash"`
	// DelegatedToken is a user token for delegated-only calls.
	DelegatedToken string `yaml:"delegated_token" mapstructure:"delegated_token"`
	StaticToken    string `yaml:"static_token" mapstructure:"static_token"`
}

// UsesClientCredentials reports whether a client id is configured.
func (c *AuthConfig) UsesClientCredentials() bool {
	return c.ClientID != ""
}

// CertificatesConfig locates the certificates. Thumbprint picks the client
// assertion certificate out of StoreDir; DecryptionFile holds the key that
// unwraps webhook payloads and whose public part is sent as the
// encryption certificate.
type CertificatesConfig struct {
	StoreDir       string `yaml:"store_dir" mapstructure:"store_dir"`
	Thumbprint     string `yaml:"thumbprint" mapstructure:"thumbprint"`
	DecryptionFile string `yaml:"decryption_file" mapstructure:"decryption_file"`
	Password       string `yaml:"password" mapstructure:"password"`
}

// DecryptionPath resolves DecryptionFile against StoreDir.
func (c *CertificatesConfig) DecryptionPath() string {
	if c.DecryptionFile == "" || filepath.IsAbs(c.DecryptionFile) {
		return c.DecryptionFile
	}
	return filepath.Join(c.StoreDir, c.DecryptionFile)
}

// StreamingConfig tunes the transcript stream handlers.
type StreamingConfig struct {
	BufferCapacity  int    `yaml:"buffer_capacity" mapstructure:"buffer_capacity"`
	Origin          string `yaml:"origin" mapstructure:"origin"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes" mapstructure:"max_payload_bytes"`
}

// LogsConfig sizes the in-memory log store.
type LogsConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Graph.ApplyDefaults()
	if c.UsesClientCredentials() {
		c.Auth.Config.ApplyDefaults()
	}
	if c.Certificates.StoreDir == "" {
		c.Certificates.StoreDir = "certs"
	}
	if c.Streaming.BufferCapacity <= 0 {
		c.Streaming.BufferCapacity = 100
	}
	if c.Logs.Capacity <= 0 {
		c.Logs.Capacity = logstore.DefaultCapacity
	}
	c.Observability.ApplyDefaults()
}

// UsesClientCredentials reports whether the client credentials grant is configured.
func (c *Config) UsesClientCredentials() bool {
	return c.Auth.UsesClientCredentials()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	switch {
	case c.UsesClientCredentials():
		if err := c.Auth.Config.Validate(); err != nil {
			return err
		}
		if c.Certificates.Thumbprint == "" {
			return fmt.Errorf("certificates.thumbprint is required with auth.client_id")
		}
	case c.Auth.StaticToken == "":
		return fmt.Errorf("auth: either client_id or static_token is required")
	}
	if c.Certificates.DecryptionFile == "" {
		return fmt.Errorf("certificates.decryption_file is required")
	}
	return c.Observability.Validate()
}
