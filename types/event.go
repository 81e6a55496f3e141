package types

import "time"

// EventType enumerates the recorded domain events.
type EventType string

const (
	EventProfileCreated  EventType = "profile_created"
	EventListingCreated  EventType = "listing_created"
	EventSearchPerformed EventType = "search_performed"
	EventAdClicked       EventType = "ad_clicked"
)

// AnalyticsEvent is an append-only record of a domain event. Events are
// never mutated or deleted.
type AnalyticsEvent struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	AnonymousUserID string         `json:"anonymousUserId,omitempty"`
	Properties      map[string]any `json:"properties"`
	CreatedAt       time.Time      `json:"createdAt"`
}
