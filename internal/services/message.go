package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// ConversationRepository defines persistence operations for conversations
// and their messages.
type ConversationRepository interface {
	Get(ctx context.Context, id string) (types.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]types.Conversation, error)
	Create(ctx context.Context, convo types.Conversation) (types.Conversation, error)
	Touch(ctx context.Context, id string, at time.Time) error
	CreateMessage(ctx context.Context, msg types.Message) (types.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]types.Message, error)
}

// MessageService threads two-party text exchanges with lazy conversation
// creation and participant-scoped reads.
type MessageService struct {
	repo ConversationRepository
}

func NewMessageService(repo ConversationRepository) *MessageService {
	return &MessageService{repo: repo}
}

// Send appends a message, lazily creating a conversation when no usable id
// is supplied. Resolution of an explicit conversation id is
// participant-scoped: an id that exists but does not include the sender is
// treated the same as an unknown id, so a fresh conversation is created and
// existence is never leaked. Conversations are never deduplicated by
// participant pair.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID, conversationID, roomID, text string) (types.Message, error) {
	if strings.TrimSpace(recipientID) == "" {
		return types.Message{}, NewValidationError("recipientId is required")
	}
	if strings.TrimSpace(text) == "" {
		return types.Message{}, NewValidationError("text is required")
	}

	var convo types.Conversation
	resolved := false
	if conversationID != "" {
		existing, err := s.repo.Get(ctx, conversationID)
		if err == nil && existing.HasParticipant(senderID) {
			convo = existing
			resolved = true
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return types.Message{}, err
		}
	}

	now := time.Now()
	if !resolved {
		created, err := s.repo.Create(ctx, types.Conversation{
			ParticipantIDs: []string{senderID, recipientID},
			RoomID:         roomID,
		})
		if err != nil {
			return types.Message{}, err
		}
		convo = created
	}

	msg, err := s.repo.CreateMessage(ctx, types.Message{
		ConversationID: convo.ID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Text:           text,
		CreatedAt:      now,
	})
	if err != nil {
		return types.Message{}, err
	}

	// The conversation's last-activity timestamp is the message timestamp.
	if err := s.repo.Touch(ctx, convo.ID, now); err != nil {
		return types.Message{}, err
	}
	return msg, nil
}

// ListConversations returns every conversation the user participates in,
// most recent activity first.
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]types.Conversation, error) {
	return s.repo.ListByParticipant(ctx, userID)
}

// ListMessages returns the thread oldest first. A conversation that does
// not exist and one the requester does not belong to are indistinguishable:
// both return ErrNotFound.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, requesterID string) ([]types.Message, error) {
	convo, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !convo.HasParticipant(requesterID) {
		return nil, store.ErrNotFound
	}
	return s.repo.ListMessages(ctx, conversationID)
}
