package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/transcriptfeed/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	sinks           []io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the global logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithLogSinks adds writers that receive every log event as a JSON line.
// Ignored when WithLogger is used.
func WithLogSinks(sinks ...io.Writer) Option {
	return func(o *appOptions) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}
