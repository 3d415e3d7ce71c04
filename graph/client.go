package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/transcriptfeed/component"
	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/httpclient"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/observability"
	"github.com/kbukum/transcriptfeed/resilience"
	"github.com/kbukum/transcriptfeed/security"
	"github.com/kbukum/transcriptfeed/token"
)

const (
	activityCollection     = "copilot/communications/realtimeActivityFeed/multiActivitySubscriptions"
	subscriptionCollection = "subscriptions"
	expirationLayout       = "2006-01-02T15:04:05.0000000Z"
)

// CertificateSource supplies the certificate whose public half encrypts
// webhook payloads.
type CertificateSource interface {
	Certificate() (*security.Certificate, error)
}

// Client is the remote meeting API client.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	tokens token.Provider
	certs  CertificateSource
	log    *logger.Logger
}

var _ component.Component = (*Client)(nil)

// New creates a Client.
func New(cfg Config, tokens token.Provider, certs CertificateSource, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("graph")

	retry := httpclient.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		custom := cfg.Retry
		custom.RetryIf = httpclient.IsRetryable
		retry = &custom
	}
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("Retrying remote call", logger.Fields("attempt", attempt, logger.FieldError, err.Error(), logger.FieldDuration, backoff.Milliseconds()))
	}

	breaker := httpclient.DefaultCircuitBreakerConfig("graph")
	if cfg.CircuitBreaker.MaxFailures > 0 {
		breaker.MaxFailures = cfg.CircuitBreaker.MaxFailures
	}
	if cfg.CircuitBreaker.Timeout > 0 {
		breaker.Timeout = cfg.CircuitBreaker.Timeout
	}
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("Circuit breaker state changed", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.Endpoint,
		Timeout:        cfg.Timeout,
		TLS:            cfg.TLS,
		Headers:        map[string]string{"Accept": "application/json"},
		Retry:          retry,
		CircuitBreaker: breaker,
	})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: hc, tokens: tokens, certs: certs, log: log}, nil
}

// --- activity feed ---

type organizerMeetingInfo struct {
	ODataType string `json:"@odata.type"`
	Organizer struct {
		User struct {
			ID       string `json:"id"`
			TenantID string `json:"tenantId"`
		} `json:"user"`
	} `json:"organizer"`
}

type chatInfo struct {
	ThreadID  string `json:"threadId"`
	MessageID string `json:"messageId"`
}

type activitySubscriptionRequest struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	MeetingInfo organizerMeetingInfo `json:"meetingInfo"`
	ChatInfo    chatInfo             `json:"chatInfo"`
	Activities  struct {
		Transcript struct{} `json:"transcript"`
	} `json:"activities"`
}

type activitySubscriptionResponse struct {
	ID         string `json:"id"`
	Activities struct {
		Transcript struct {
			Transport struct {
				URL string `json:"url"`
			} `json:"transport"`
		} `json:"transcript"`
	} `json:"activities"`
}

// SubscribeToActivity creates a transcript activity subscription for the
// meeting behind meetingURL.
func (c *Client) SubscribeToActivity(ctx context.Context, meetingURL string) (meeting.ActivitySubscription, error) {
	join, err := ParseJoinURL(meetingURL)
	if err != nil {
		return meeting.ActivitySubscription{}, err
	}

	var body activitySubscriptionRequest
	body.UserID = join.OrganizerID
	body.MeetingInfo.ODataType = "#microsoft.graph.organizerMeetingInfo"
	body.MeetingInfo.Organizer.User.ID = join.OrganizerID
	body.MeetingInfo.Organizer.User.TenantID = join.TenantID
	body.ChatInfo = chatInfo{ThreadID: join.ThreadID, MessageID: join.MessageID}

	resp, err := c.call(ctx, "subscribe_activity", false, httpclient.Request{
		Method:  http.MethodPost,
		Path:    activityCollection,
		Body:    body,
		NoRetry: true,
	})
	if err != nil {
		return meeting.ActivitySubscription{}, err
	}

	var out activitySubscriptionResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return meeting.ActivitySubscription{}, apperrors.Internal(err)
	}
	if out.ID == "" || out.Activities.Transcript.Transport.URL == "" {
		return meeting.ActivitySubscription{}, apperrors.Internal(errors.New("activity subscription response has no id or transport url"))
	}
	c.log.WithContext(ctx).Info("Subscribed to transcript activity", logger.SubscriptionFields(out.ID, meetingURL))
	return meeting.ActivitySubscription{ID: out.ID, StreamURL: out.Activities.Transcript.Transport.URL}, nil
}

// UnsubscribeFromActivity deletes a transcript activity subscription.
func (c *Client) UnsubscribeFromActivity(ctx context.Context, id string) error {
	_, err := c.call(ctx, "unsubscribe_activity", false, httpclient.Request{
		Method: http.MethodDelete,
		Path:   activityCollection + "/" + url.PathEscape(id),
	})
	return err
}

// --- call event webhooks ---

type eventSubscriptionRequest struct {
	ChangeType              string `json:"changeType"`
	NotificationURL         string `json:"notificationUrl"`
	Resource                string `json:"resource"`
	IncludeResourceData     bool   `json:"includeResourceData"`
	EncryptionCertificate   string `json:"encryptionCertificate"`
	EncryptionCertificateID string `json:"encryptionCertificateId"`
	ExpirationDateTime      string `json:"expirationDateTime"`
	ClientState             string `json:"clientState"`
}

// SubscribeToEvents creates a webhook subscription for the organizer's call
// events and returns its id.
func (c *Client) SubscribeToEvents(ctx context.Context, organizerID string, expiration time.Time) (string, error) {
	cert, err := c.certs.Certificate()
	if err != nil {
		return "", err
	}

	body := eventSubscriptionRequest{
		ChangeType:              "updated",
		NotificationURL:         c.cfg.WebhookURL(),
		Resource:                fmt.Sprintf("communications/onlineMeetings/getCallEvents(organizers=['%s'])", organizerID),
		IncludeResourceData:     true,
		EncryptionCertificate:   cert.PublicBase64(),
		EncryptionCertificateID: c.cfg.EncryptionCertificateID,
		ExpirationDateTime:      expiration.UTC().Format(expirationLayout),
		ClientState:             "",
	}

	resp, err := c.call(ctx, "subscribe_events", true, httpclient.Request{
		Method:  http.MethodPost,
		Path:    subscriptionCollection,
		Body:    body,
		NoRetry: true,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		return "", apperrors.Internal(err)
	}
	if out.ID == "" {
		c.log.WithContext(ctx).Error("Event subscription response has no id", logger.Fields("response", string(resp.Body)))
		return "", apperrors.Internal(errors.New("subscription was created but no id was returned"))
	}
	c.log.WithContext(ctx).Info("Subscribed to call events", logger.Fields(logger.FieldOrganizerID, organizerID, logger.FieldSubscriptionID, out.ID))
	return out.ID, nil
}

// RemoveEventSubscription deletes a webhook subscription.
func (c *Client) RemoveEventSubscription(ctx context.Context, id string) error {
	_, err := c.call(ctx, "remove_event_subscription", true, httpclient.Request{
		Method: http.MethodDelete,
		Path:   subscriptionCollection + "/" + url.PathEscape(id),
	})
	return err
}

// call authenticates and sends req, translating failures.
func (c *Client) call(ctx context.Context, op string, appOnly bool, req httpclient.Request) (resp *httpclient.Response, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRemoteCall)
	span.SetAttributes(attribute.String(observability.AttrOperation, op))
	defer func() { observability.EndSpan(span, err) }()

	tok, err := c.tokens.GetBearerToken(ctx, appOnly)
	if err != nil {
		return nil, err
	}
	req.Auth = httpclient.BearerAuth(tok)

	resp, err = c.http.Do(ctx, req)
	if resp != nil {
		span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	}
	if err != nil {
		status := httpclient.StatusCode(err)
		c.log.WithContext(ctx).Error("Remote call failed", logger.ErrorFields(op, err), logger.Fields(logger.FieldStatus, status))
		return nil, apperrors.RemoteCall(op, status, httpclient.Reason(err)).WithCause(err)
	}
	return resp, nil
}

// Name implements component.Component.
func (c *Client) Name() string { return "graph" }

// Start implements component.Component.
func (c *Client) Start(context.Context) error { return nil }

// Stop implements component.Component.
func (c *Client) Stop(context.Context) error { return nil }

// Health reports degraded while the circuit breaker is not closed.
func (c *Client) Health(context.Context) component.Health {
	state := c.http.CircuitState()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if state != resilience.StateClosed {
		h.Status = component.StatusDegraded
		h.Message = "circuit " + state.String()
	}
	return h
}
