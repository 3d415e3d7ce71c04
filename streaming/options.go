package streaming

import (
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/observability"
)

type options struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	capacity int
}

// Option configures a Handler.
type Option func(*options)

// WithLogger sets the handler logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records stream metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBufferCapacity overrides the transcript buffer size.
func WithBufferCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// Factory builds handlers sharing the same collaborators.
type Factory struct {
	Tokens TokenProvider
	Dialer Dialer
	Opts   []Option
}

// NewHandler creates a handler for info.
func (f *Factory) NewHandler(info meeting.SubscriptionInfo) *Handler {
	return NewHandler(info, f.Tokens, f.Dialer, f.Opts...)
}
