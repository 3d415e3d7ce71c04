package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/transcriptfeed/errors"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/resilience"
	"github.com/kbukum/transcriptfeed/security"
	"github.com/kbukum/transcriptfeed/security/tlstest"
)

const joinURL = "https://teams.microsoft.com/l/meetup-join/19%3ameeting_abc%40thread.v2/0?context=%7b%22Tid%22%3a%22tenant-1%22%2c%22Oid%22%3a%22organizer-1%22%7d"

func TestParseJoinURL(t *testing.T) {
	info, err := ParseJoinURL(joinURL)
	if err != nil {
		t.Fatalf("ParseJoinURL: %v", err)
	}
	want := JoinInfo{ThreadID: "19:meeting_abc@thread.v2", MessageID: "0", TenantID: "tenant-1", OrganizerID: "organizer-1"}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestParseJoinURL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"not a url",
		"https://teams.microsoft.com/meeting/123",
		"https://teams.microsoft.com/l/meetup-join/19%3ameeting/",
		"https://teams.microsoft.com/l/meetup-join/t/0?context=nope",
		`https://teams.microsoft.com/l/meetup-join/t/0?context={"Tid":"x"}`,
	} {
		if _, err := ParseJoinURL(raw); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("ParseJoinURL(%q) err = %v, want INVALID_INPUT", raw, err)
		}
	}
}

type tokens struct {
	appOnly []bool
	err     error
}

func (p *tokens) GetBearerToken(_ context.Context, appOnly bool) (string, error) {
	p.appOnly = append(p.appOnly, appOnly)
	if p.err != nil {
		return "", p.err
	}
	if appOnly {
		return "app-token", nil
	}
	return "user-token", nil
}

type certs struct{ cert *security.Certificate }

func (c certs) Certificate() (*security.Certificate, error) { return c.cert, nil }

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *tokens, *security.Certificate) {
	t.Helper()
	return newTestClientTimeout(t, 0, h)
}

func newTestClientTimeout(t *testing.T, timeout time.Duration, h http.HandlerFunc) (*Client, *tokens, *security.Certificate) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	generated := tlstest.Generate(t)
	cert := &security.Certificate{Leaf: generated.Leaf, PrivateKey: generated.Key}
	tp := &tokens{}
	c, err := New(Config{
		Endpoint:        srv.URL + "/beta",
		NotificationURL: "https://hooks.example/",
		Timeout:         timeout,
		Retry:           resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond},
	}, tp, certs{cert: cert}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c, tp, cert
}

func TestSubscribeToActivity(t *testing.T) {
	c, tp, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/beta/"+activityCollection {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["userId"] != "organizer-1" {
			t.Errorf("userId = %v", body["userId"])
		}
		chat := body["chatInfo"].(map[string]any)
		if chat["threadId"] != "19:meeting_abc@thread.v2" || chat["messageId"] != "0" {
			t.Errorf("chatInfo = %v", chat)
		}
		mi := body["meetingInfo"].(map[string]any)
		user := mi["organizer"].(map[string]any)["user"].(map[string]any)
		if mi["@odata.type"] != "#microsoft.graph.organizerMeetingInfo" || user["id"] != "organizer-1" || user["tenantId"] != "tenant-1" {
			t.Errorf("meetingInfo = %v", mi)
		}
		if _, ok := body["activities"].(map[string]any)["transcript"]; !ok {
			t.Error("transcript activity missing")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"sub-1","activities":{"transcript":{"transport":{"url":"wss://stream/sub-1"}}}}`)
	})

	sub, err := c.SubscribeToActivity(context.Background(), joinURL)
	if err != nil {
		t.Fatalf("SubscribeToActivity: %v", err)
	}
	if sub.ID != "sub-1" || sub.StreamURL != "wss://stream/sub-1" {
		t.Errorf("sub = %+v", sub)
	}
	if len(tp.appOnly) != 1 || tp.appOnly[0] {
		t.Errorf("token requests = %v, want one delegated", tp.appOnly)
	}
}

func TestSubscribeToActivity_BadJoinURLMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	if _, err := c.SubscribeToActivity(context.Background(), "https://example.com/x"); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Error("remote called for an invalid join URL")
	}
}

func TestSubscribeToActivity_RemoteFailure(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":"Forbidden","message":"Missing role"}}`)
	})

	_, err := c.SubscribeToActivity(context.Background(), joinURL)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeRemoteCall {
		t.Fatalf("err = %v, want REMOTE_CALL_FAILED", err)
	}
	if appErr.HTTPStatus != http.StatusForbidden {
		t.Errorf("HTTPStatus = %d", appErr.HTTPStatus)
	}
	if appErr.Message != "subscribe_activity failed: Missing role" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestUnsubscribeFromActivity(t *testing.T) {
	var path, method string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.UnsubscribeFromActivity(context.Background(), "sub-1"); err != nil {
		t.Fatalf("UnsubscribeFromActivity: %v", err)
	}
	if method != http.MethodDelete || path != "/beta/"+activityCollection+"/sub-1" {
		t.Errorf("request = %s %s", method, path)
	}
}

func TestSubscribeToEvents(t *testing.T) {
	expiration := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("x", 3600))
	var got eventSubscriptionRequest
	c, tp, cert := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/beta/subscriptions" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer app-token" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"evt-9"}`)
	})

	id, err := c.SubscribeToEvents(context.Background(), "organizer-1", expiration)
	if err != nil {
		t.Fatalf("SubscribeToEvents: %v", err)
	}
	if id != "evt-9" {
		t.Errorf("id = %q", id)
	}
	want := eventSubscriptionRequest{
		ChangeType:              "updated",
		NotificationURL:         "https://hooks.example/api/notification/meetingEvents",
		Resource:                "communications/onlineMeetings/getCallEvents(organizers=['organizer-1'])",
		IncludeResourceData:     true,
		EncryptionCertificate:   cert.PublicBase64(),
		EncryptionCertificateID: DefaultEncryptionCertificateID,
		ExpirationDateTime:      "2026-03-04T04:06:07.0000000Z",
	}
	if got != want {
		t.Errorf("payload = %+v\nwant %+v", got, want)
	}
	if len(tp.appOnly) != 1 || !tp.appOnly[0] {
		t.Errorf("token requests = %v, want one app-only", tp.appOnly)
	}
}

func TestSubscribeToEvents_MissingID(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.SubscribeToEvents(context.Background(), "o", time.Now()); !apperrors.HasCode(err, apperrors.ErrCodeInternal) {
		t.Fatalf("err = %v, want INTERNAL_ERROR", err)
	}
}

func TestRemoveEventSubscription_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/beta/subscriptions/evt-1" || r.Method != http.MethodDelete {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.RemoveEventSubscription(context.Background(), "evt-1"); err != nil {
		t.Fatalf("RemoveEventSubscription: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSubscribeCalls_SentOnce(t *testing.T) {
	tests := []struct {
		name      string
		slow      bool
		subscribe func(c *Client) error
	}{
		{"activity timeout", true, func(c *Client) error {
			_, err := c.SubscribeToActivity(context.Background(), joinURL)
			return err
		}},
		{"activity server error", false, func(c *Client) error {
			_, err := c.SubscribeToActivity(context.Background(), joinURL)
			return err
		}},
		{"events timeout", true, func(c *Client) error {
			_, err := c.SubscribeToEvents(context.Background(), "organizer-1", time.Now().Add(time.Hour))
			return err
		}},
		{"events server error", false, func(c *Client) error {
			_, err := c.SubscribeToEvents(context.Background(), "organizer-1", time.Now().Add(time.Hour))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, _, _ := newTestClientTimeout(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if tt.slow {
					select {
					case <-r.Context().Done():
					case <-time.After(2 * time.Second):
					}
					return
				}
				w.WriteHeader(http.StatusServiceUnavailable)
			})

			if err := tt.subscribe(c); !apperrors.HasCode(err, apperrors.ErrCodeRemoteCall) {
				t.Fatalf("err = %v, want REMOTE_CALL_FAILED", err)
			}
			if calls.Load() != 1 {
				t.Errorf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestCall_TokenFailure(t *testing.T) {
	var calls atomic.Int32
	c, tp, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	tp.err = apperrors.TokenAcquisition(nil)

	if err := c.RemoveEventSubscription(context.Background(), "evt-1"); !apperrors.HasCode(err, apperrors.ErrCodeTokenAcquisition) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Error("remote called without a token")
	}
}

func TestHealth(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if h := c.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("Status = %q", h.Status)
	}
}
