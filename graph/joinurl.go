package graph

import (
	"encoding/json"
	"net/url"
	"strings"

	apperrors "github.com/kbukum/transcriptfeed/errors"
)

// JoinInfo is what a meeting join URL identifies.
type JoinInfo struct {
	ThreadID    string
	MessageID   string
	TenantID    string
	OrganizerID string
}

const joinPathPrefix = "/l/meetup-join/"

// ParseJoinURL extracts the chat thread, message, tenant and organizer from
// a /l/meetup-join/<thread>/<message>?context={"Tid":..,"Oid":..} URL.
func ParseJoinURL(raw string) (JoinInfo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "not an absolute URL")
	}

	path := u.EscapedPath()
	if !strings.HasPrefix(path, joinPathPrefix) {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "not a meeting join URL")
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, joinPathPrefix), "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "missing thread or message id")
	}
	thread, err1 := url.PathUnescape(parts[0])
	message, err2 := url.PathUnescape(parts[1])
	if err1 != nil || err2 != nil {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "bad path escaping")
	}

	var ctx struct {
		Tid string `json:"Tid"`
		Oid string `json:"Oid"`
	}
	if err := json.Unmarshal([]byte(u.Query().Get("context")), &ctx); err != nil {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "context parameter is not JSON")
	}
	if ctx.Tid == "" || ctx.Oid == "" {
		return JoinInfo{}, apperrors.InvalidInput("meetingUrl", "context is missing Tid or Oid")
	}

	return JoinInfo{ThreadID: thread, MessageID: message, TenantID: ctx.Tid, OrganizerID: ctx.Oid}, nil
}
