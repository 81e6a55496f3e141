package types

import "time"

// Conversation is a two-party message thread, optionally tied to a listing.
// The first participant id is the initiator. The system does not deduplicate
// conversations by participant pair: sending without a resolvable
// conversation id always starts a new thread.
type Conversation struct {
	ID             string     `json:"id"`
	ParticipantIDs []string   `json:"participantIds"`
	RoomID         string     `json:"roomId,omitempty"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a single immutable entry in a conversation. Ordering within a
// conversation is by creation time, with insertion order as the tiebreak.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	RecipientID    string     `json:"recipientId"`
	Text           string     `json:"text"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
