package subscription

import (
	"context"
	"time"

	"github.com/kbukum/transcriptfeed/meeting"
)

// ActivityFeed creates and deletes transcript subscriptions remotely.
type ActivityFeed interface {
	SubscribeToActivity(ctx context.Context, meetingURL string) (meeting.ActivitySubscription, error)
	UnsubscribeFromActivity(ctx context.Context, id string) error
}

// EventFeed creates and deletes call-event webhook subscriptions remotely.
type EventFeed interface {
	SubscribeToEvents(ctx context.Context, organizerID string, expiration time.Time) (string, error)
	RemoveEventSubscription(ctx context.Context, id string) error
}

// StreamHandler is the registry's view of a streaming.Handler.
type StreamHandler interface {
	Start(ctx context.Context, streamURL string) error
	Close() error
	Info() meeting.SubscriptionInfo
	Snapshot() meeting.SubscriptionDetails
}

// HandlerFactory builds a handler for a new subscription.
type HandlerFactory interface {
	NewHandler(info meeting.SubscriptionInfo) StreamHandler
}

// HandlerFactoryFunc adapts a function to HandlerFactory.
type HandlerFactoryFunc func(info meeting.SubscriptionInfo) StreamHandler

// NewHandler implements HandlerFactory.
func (f HandlerFactoryFunc) NewHandler(info meeting.SubscriptionInfo) StreamHandler {
	return f(info)
}
