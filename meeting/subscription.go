package meeting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a transcript subscription.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
	StatusExpired
	StatusError
)

var statusNames = [...]string{"Inactive", "Active", "Expired", "Error"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusError
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a status name (case-insensitive) or its ordinal.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("meeting: invalid status %s", data)
		}
		*s = Status(n)
		return nil
	}
	for i, v := range statusNames {
		if strings.EqualFold(v, name) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("meeting: unknown status %q", name)
}

// SubscriptionInfo describes one transcript subscription.
type SubscriptionInfo struct {
	ID         string `json:"id"`
	MeetingURL string `json:"meetingUrl"`
	Status     Status `json:"status"`
	StreamURL  string `json:"streamUrl"`
}

// SubscriptionDetails is a point-in-time copy of a subscription and its
// buffered transcripts.
type SubscriptionDetails struct {
	Info        SubscriptionInfo `json:"subscriptionInfo"`
	Transcripts []TranscriptData `json:"transcripts"`
}

// ActivitySubscription is what the remote feed returns for a new
// transcript subscription.
type ActivitySubscription struct {
	ID        string `json:"id"`
	StreamURL string `json:"streamUrl"`
}

// EventSubscription is a webhook subscription for an organizer's call events.
type EventSubscription struct {
	ID                 string    `json:"id"`
	OrganizerID        string    `json:"organizerId"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
	CreatedAt          time.Time `json:"createdAt"`
}
