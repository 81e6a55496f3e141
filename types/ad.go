package types

import "time"

// AdPosition is a placement slot for promotional content.
type AdPosition string

const (
	AdLandingTop     AdPosition = "LANDING_TOP"
	AdListingSidebar AdPosition = "LISTING_SIDEBAR"
	AdChatBottom     AdPosition = "CHAT_BOTTOM"
	AdProfileSidebar AdPosition = "PROFILE_SIDEBAR"
)

// Valid reports whether the position is one of the known slots.
func (p AdPosition) Valid() bool {
	switch p {
	case AdLandingTop, AdListingSidebar, AdChatBottom, AdProfileSidebar:
		return true
	}
	return false
}

// AdMediaType distinguishes the referenced creative.
type AdMediaType string

const (
	AdImage AdMediaType = "IMAGE"
	AdVideo AdMediaType = "VIDEO"
)

// Ad is a promotional placement. An empty geography list means the ad is
// eligible everywhere.
type Ad struct {
	ID       string      `json:"id"`
	MediaURL string      `json:"mediaUrl"`
	Type     AdMediaType `json:"type"`
	LinkURL  string      `json:"linkUrl"`
	Position AdPosition  `json:"position"`

	Countries []string `json:"countries,omitempty"`
	Cities    []string `json:"cities,omitempty"`

	Active  bool       `json:"active"`
	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
