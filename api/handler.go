package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/meeting"
)

// Subscriptions is the registry the API drives.
type Subscriptions interface {
	AddSubscription(ctx context.Context, meetingURL string) (meeting.SubscriptionInfo, error)
	GetSubscription(id string) (meeting.SubscriptionDetails, error)
	GetAllSubscriptions() []meeting.SubscriptionInfo
	RemoveSubscription(id string) error
	Unsubscribe(ctx context.Context, id string) error

	AddEventSubscription(ctx context.Context, organizerID string, expiration time.Time) (meeting.EventSubscription, error)
	GetEventSubscriptionByID(id string) (meeting.EventSubscription, error)
	GetAllEventSubscriptions() []meeting.EventSubscription
	RemoveEventSubscription(ctx context.Context, id string) error
}

// Dispatcher hands a webhook body off for background processing.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte)
}

// LogStore is the in-memory log sink.
type LogStore interface {
	Entries(q logstore.Query) []logstore.Entry
	Clear()
}

// Handler serves the HTTP API.
type Handler struct {
	subs       Subscriptions
	dispatcher Dispatcher
	logs       LogStore
	log        *logger.Logger
	now        func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(subs Subscriptions, dispatcher Dispatcher, logs LogStore, log *logger.Logger) *Handler {
	return &Handler{
		subs:       subs,
		dispatcher: dispatcher,
		logs:       logs,
		log:        log.WithComponent("api"),
		now:        time.Now,
	}
}

// Register mounts every route under /api.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")

	subs := g.Group("/subscriptions")
	subs.GET("", h.listSubscriptions)
	subs.POST("", h.createSubscription)
	subs.GET("/:id", h.getSubscription)
	subs.GET("/:id/transcripts", h.getTranscripts)
	subs.DELETE("/:id", h.deleteSubscription)
	subs.POST("/:id/unsubscribe", h.unsubscribe)

	events := g.Group("/event-subscriptions")
	events.GET("", h.listEventSubscriptions)
	events.POST("", h.createEventSubscription)
	events.GET("/:id", h.getEventSubscription)
	events.DELETE("/:id", h.deleteEventSubscription)

	g.POST("/notification/meetingEvents", h.meetingEvents)

	g.GET("/logs", h.listLogs)
	g.DELETE("/logs", h.clearLogs)
}
