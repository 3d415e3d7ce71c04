package bootstrap

import (
	"github.com/kbukum/transcriptfeed/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig satisfies it through promoted
// methods, provided it overrides ApplyDefaults and Validate for its own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
