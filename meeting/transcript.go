package meeting

import "time"

// TranscriptData is one captioned speech fragment.
type TranscriptData struct {
	AudioCaptureTime time.Time `json:"audioCaptureTime"`
	Speaker          Speaker   `json:"speaker"`
	Text             string    `json:"text"`
	SpokenLanguage   string    `json:"spokenLanguage"`
}

// Speaker attributes a fragment to a user or to a meeting room. Exactly one
// side is normally set.
type Speaker struct {
	User *SpeakerIdentity `json:"user,omitempty"`
	Room *SpeakerIdentity `json:"room,omitempty"`
}

// SpeakerIdentity identifies a participant.
type SpeakerIdentity struct {
	RawID       string `json:"rawId"`
	DisplayName string `json:"displayName"`
}

// DisplayName returns the name of whichever identity is present.
func (s Speaker) DisplayName() string {
	switch {
	case s.User != nil:
		return s.User.DisplayName
	case s.Room != nil:
		return s.Room.DisplayName
	}
	return ""
}

// TranscriptMessage is the frame envelope carried on the stream.
type TranscriptMessage struct {
	Kind              string             `json:"kind"`
	LiveCaptionDataV2 *LiveCaptionDataV2 `json:"liveCaptionDataV2"`
}

// LiveCaptionDataV2 wraps one transcript fragment.
type LiveCaptionDataV2 struct {
	ActivityType   string          `json:"activityType"`
	TranscriptData *TranscriptData `json:"transcriptData"`
}
