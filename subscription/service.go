package subscription

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/transcriptfeed/component"
	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/observability"
)

// Service tracks live subscriptions and event subscriptions.
type Service struct {
	activity ActivityFeed
	events   EventFeed
	factory  HandlerFactory
	log      *logger.Logger
	now      func() time.Time

	// handlers maps subscription id to StreamHandler.
	handlers sync.Map

	eventsMu           sync.RWMutex
	eventSubscriptions []meeting.EventSubscription
}

var _ component.Component = (*Service)(nil)

// NewService creates the registry.
func NewService(activity ActivityFeed, events EventFeed, factory HandlerFactory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Service{
		activity: activity,
		events:   events,
		factory:  factory,
		log:      log.WithComponent("subscriptions"),
		now:      time.Now,
	}
}

// AddSubscription subscribes to the meeting's transcript feed, starts
// streaming and registers the handler. Nothing is registered when the
// remote call or Start fails. If another caller registered the same id
// first, the new handler is closed and the existing subscription returned.
func (s *Service) AddSubscription(ctx context.Context, meetingURL string) (meeting.SubscriptionInfo, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSubscriptionAdd)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	log := s.log.WithContext(ctx)

	var remote meeting.ActivitySubscription
	remote, err = s.activity.SubscribeToActivity(ctx, meetingURL)
	if err != nil {
		log.Error("Remote subscribe failed", logger.ErrorFields("subscribe", err), logger.Fields(logger.FieldMeetingURL, meetingURL))
		return meeting.SubscriptionInfo{}, err
	}

	info := meeting.SubscriptionInfo{
		ID:         remote.ID,
		MeetingURL: meetingURL,
		Status:     meeting.StatusInactive,
		StreamURL:  remote.StreamURL,
	}
	handler := s.factory.NewHandler(info)
	if err = handler.Start(ctx, remote.StreamURL); err != nil {
		_ = handler.Close()
		log.Error("Failed to start subscription", logger.ErrorFields("start", err), logger.SubscriptionFields(info.ID, meetingURL))
		return meeting.SubscriptionInfo{}, err
	}

	if existing, loaded := s.handlers.LoadOrStore(info.ID, handler); loaded {
		_ = handler.Close()
		log.Warn("Subscription already registered", logger.SubscriptionFields(info.ID, meetingURL))
		return existing.(StreamHandler).Info(), nil
	}

	log.Info("Subscription added", logger.SubscriptionFields(info.ID, meetingURL))
	return handler.Info(), nil
}

// GetSubscription returns a snapshot of one subscription.
func (s *Service) GetSubscription(id string) (meeting.SubscriptionDetails, error) {
	h, ok := s.handler(id)
	if !ok {
		return meeting.SubscriptionDetails{}, apperrors.NotFound("subscription", id)
	}
	return h.Snapshot(), nil
}

// GetAllSubscriptions lists every registered subscription, ordered by id.
func (s *Service) GetAllSubscriptions() []meeting.SubscriptionInfo {
	var out []meeting.SubscriptionInfo
	s.handlers.Range(func(_, v any) bool {
		out = append(out, v.(StreamHandler).Info())
		return true
	})
	slices.SortFunc(out, func(a, b meeting.SubscriptionInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// RemoveSubscription stops streaming and forgets the subscription. It
// returns after the receive loop has exited. The remote subscription is
// left in place; see Unsubscribe.
func (s *Service) RemoveSubscription(id string) error {
	v, ok := s.handlers.LoadAndDelete(id)
	if !ok {
		return apperrors.NotFound("subscription", id)
	}
	if err := v.(StreamHandler).Close(); err != nil {
		s.log.Warn("Error closing subscription", logger.ErrorFields("close", err), logger.SubscriptionFields(id, ""))
	}
	s.log.Info("Subscription removed", logger.SubscriptionFields(id, ""))
	return nil
}

// Unsubscribe deletes the remote subscription only. The local entry and its
// stream are untouched until the feed closes it or RemoveSubscription runs.
func (s *Service) Unsubscribe(ctx context.Context, id string) error {
	if err := s.activity.UnsubscribeFromActivity(ctx, id); err != nil {
		s.log.WithContext(ctx).Error("Remote unsubscribe failed", logger.ErrorFields("unsubscribe", err), logger.SubscriptionFields(id, ""))
		return err
	}
	s.log.WithContext(ctx).Info("Unsubscribed from transcript feed", logger.SubscriptionFields(id, ""))
	return nil
}

func (s *Service) handler(id string) (StreamHandler, bool) {
	v, ok := s.handlers.Load(id)
	if !ok {
		return nil, false
	}
	return v.(StreamHandler), true
}

// --- event subscriptions ---

// AddEventSubscription creates a remote call-event subscription for an
// organizer and records it.
func (s *Service) AddEventSubscription(ctx context.Context, organizerID string, expiration time.Time) (meeting.EventSubscription, error) {
	id, err := s.events.SubscribeToEvents(ctx, organizerID, expiration)
	if err != nil {
		s.log.WithContext(ctx).Error("Remote event subscribe failed", logger.ErrorFields("subscribe_events", err), logger.Fields(logger.FieldOrganizerID, organizerID))
		return meeting.EventSubscription{}, err
	}

	sub := meeting.EventSubscription{
		ID:                 id,
		OrganizerID:        organizerID,
		ExpirationDateTime: expiration.UTC(),
		CreatedAt:          s.now().UTC(),
	}

	s.eventsMu.Lock()
	s.eventSubscriptions = append(s.eventSubscriptions, sub)
	s.eventsMu.Unlock()

	s.log.WithContext(ctx).Info("Event subscription added", logger.Fields(logger.FieldSubscriptionID, id, logger.FieldOrganizerID, organizerID))
	return sub, nil
}

// GetEventSubscriptionByID returns one event subscription.
func (s *Service) GetEventSubscriptionByID(id string) (meeting.EventSubscription, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	for _, sub := range s.eventSubscriptions {
		if sub.ID == id {
			return sub, nil
		}
	}
	return meeting.EventSubscription{}, apperrors.NotFound("event subscription", id)
}

// GetAllEventSubscriptions returns a copy of the event subscription list.
func (s *Service) GetAllEventSubscriptions() []meeting.EventSubscription {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return slices.Clone(s.eventSubscriptions)
}

// RemoveEventSubscription deletes the remote subscription, then the local
// record. The id must be known locally.
func (s *Service) RemoveEventSubscription(ctx context.Context, id string) error {
	if _, err := s.GetEventSubscriptionByID(id); err != nil {
		return err
	}
	if err := s.events.RemoveEventSubscription(ctx, id); err != nil {
		s.log.WithContext(ctx).Error("Remote event unsubscribe failed", logger.ErrorFields("remove_events", err), logger.Fields(logger.FieldSubscriptionID, id))
		return err
	}

	s.eventsMu.Lock()
	s.eventSubscriptions = slices.DeleteFunc(s.eventSubscriptions, func(sub meeting.EventSubscription) bool {
		return sub.ID == id
	})
	s.eventsMu.Unlock()

	s.log.WithContext(ctx).Info("Event subscription removed", logger.Fields(logger.FieldSubscriptionID, id))
	return nil
}

// --- lifecycle ---

// Shutdown closes every handler concurrently and empties the registry.
// Remote subscriptions are left to expire on their own.
func (s *Service) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	s.handlers.Range(func(k, v any) bool {
		s.handlers.Delete(k)
		h := v.(StreamHandler)
		g.Go(h.Close)
		return true
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apperrors.Timeout("subscription shutdown")
	}
}

// Name implements component.Component.
func (s *Service) Name() string { return "subscriptions" }

// Start implements component.Component.
func (s *Service) Start(ctx context.Context) error { return nil }

// Stop implements component.Component.
func (s *Service) Stop(ctx context.Context) error {
	return s.Shutdown(ctx)
}

// Health reports how many subscriptions are live.
func (s *Service) Health(ctx context.Context) component.Health {
	active := 0
	for _, info := range s.GetAllSubscriptions() {
		if info.Status == meeting.StatusActive {
			active++
		}
	}
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: strconv.Itoa(active) + " active",
	}
}
