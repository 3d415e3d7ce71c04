package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/transcriptfeed/logger"
)

var environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every service has. Embed it with
// `mapstructure:",squash"`.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the embedded base config. Application configs
// that embed ServiceConfig satisfy bootstrap.Config through this method.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

// ApplyDefaults applies default values. Development turns on debug.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
