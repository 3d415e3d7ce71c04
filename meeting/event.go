package meeting

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CallEventType enumerates the meeting lifecycle events delivered by webhook.
type CallEventType string

const (
	CallStarted          CallEventType = "callStarted"
	CallEnded            CallEventType = "callEnded"
	TranscriptionStarted CallEventType = "transcriptionStarted"
	TranscriptionStopped CallEventType = "transcriptionStopped"
	RecordingStarted     CallEventType = "recordingStarted"
	RecordingStopped     CallEventType = "recordingStopped"
)

var callEventTypes = []CallEventType{
	CallStarted, CallEnded, TranscriptionStarted, TranscriptionStopped, RecordingStarted, RecordingStopped,
}

// Valid reports whether t is a known event type.
func (t CallEventType) Valid() bool {
	return slices.Contains(callEventTypes, t)
}

// ParseCallEventType matches s against the known event types ignoring case.
func ParseCallEventType(s string) (CallEventType, bool) {
	for _, v := range callEventTypes {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts event type names in any case and stores the
// camelCase form. Unknown names are rejected.
func (t *CallEventType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := ParseCallEventType(s)
	if !ok {
		return fmt.Errorf("meeting: unknown call event type %q", s)
	}
	*t = v
	return nil
}

// MeetingCallEvent is the decrypted content of one call-event notification.
type MeetingCallEvent struct {
	ODataType     string        `json:"@odata.type,omitempty"`
	ODataID       string        `json:"@odata.id,omitempty"`
	ID            string        `json:"id"`
	EventType     CallEventType `json:"eventType"`
	EventDateTime time.Time     `json:"eventDateTime"`
	JoinWebURL    string        `json:"joinWebUrl"`
}

// EncryptedContent is the hybrid-encrypted envelope inside a notification.
// Data, DataSignature and DataKey are base64.
type EncryptedContent struct {
	Data                            string `json:"data"`
	DataSignature                   string `json:"dataSignature"`
	DataKey                         string `json:"dataKey"`
	EncryptionCertificateID         string `json:"encryptionCertificateId"`
	EncryptionCertificateThumbprint string `json:"encryptionCertificateThumbprint"`
}

// Notification is a single change notification.
type Notification struct {
	SubscriptionID                 string            `json:"subscriptionId"`
	ClientState                    string            `json:"clientState"`
	ChangeType                     string            `json:"changeType"`
	TenantID                       string            `json:"tenantId"`
	Resource                       string            `json:"resource"`
	SubscriptionExpirationDateTime time.Time         `json:"subscriptionExpirationDateTime"`
	OrganizationID                 string            `json:"organizationId"`
	EncryptedContent               *EncryptedContent `json:"encryptedContent"`
}

// NotificationBatch is the webhook body.
type NotificationBatch struct {
	Value            []Notification `json:"value"`
	ValidationTokens []string       `json:"validationTokens"`
}
