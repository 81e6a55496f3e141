package types

import "time"

// Feedback is a single rating left by a user against another user or a
// listing. Records are append-only and immutable once created; only the
// derived aggregates they feed change afterwards.
type Feedback struct {
	ID         string `json:"id"`
	FromUserID string `json:"fromUserId"`

	// At least one of ToUserID and RoomID is set.
	ToUserID string `json:"toUserId,omitempty"`
	RoomID   string `json:"roomId,omitempty"`

	// Rating is an integer in [1,5].
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`

	StayStart *time.Time `json:"stayStart,omitempty"`
	StayEnd   *time.Time `json:"stayEnd,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
