package domain

import (
	"strings"
	"time"
	"unicode"
)

// EventType enumerates the flyer event categories users can pick from.
type EventType string

const (
	EventWedding    EventType = "WEDDING"
	EventBirthday   EventType = "BIRTHDAY"
	EventCorporate  EventType = "CORPORATE_EVENT"
	EventConcert    EventType = "CONCERT"
	EventParty      EventType = "PARTY"
	EventConference EventType = "CONFERENCE"
	EventFestival   EventType = "FESTIVAL"
	EventOther      EventType = "OTHER"
)

// DisplayName renders the event type as human-readable text, e.g.
// CORPORATE_EVENT becomes "Corporate event".
func (e EventType) DisplayName() string {
	name := strings.ToLower(strings.ReplaceAll(string(e), "_", " "))
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// NormalizeEventType sanitizes free-form input into a known event type.
func NormalizeEventType(raw string) EventType {
	candidate := EventType(strings.ToUpper(strings.TrimSpace(raw)))
	switch candidate {
	case EventWedding, EventBirthday, EventCorporate, EventConcert,
		EventParty, EventConference, EventFestival:
		return candidate
	default:
		return EventOther
	}
}

// FlyerAsset is the persisted record of one generated image.
type FlyerAsset struct {
	ID         string
	UserID     string
	StorageKey string
	MIME       string
	Width      int
	Height     int
	Aspect     string
	Provider   string
	Seed       *int64
	CostUSD    float64
	Duration   time.Duration
	CreatedAt  time.Time
}
