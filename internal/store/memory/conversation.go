package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// ConversationStore keeps conversations keyed by id and messages in
// insertion order, which doubles as the ordering tiebreak.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]types.Conversation
	messages      []types.Message
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string]types.Conversation)}
}

func (s *ConversationStore) Get(_ context.Context, id string) (types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convo, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, store.ErrNotFound
	}
	return convo, nil
}

// ListByParticipant returns every conversation the user belongs to, most
// recent activity first; conversations with no activity sort last.
func (s *ConversationStore) ListByParticipant(_ context.Context, userID string) ([]types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convos := make([]types.Conversation, 0)
	for _, convo := range s.conversations {
		if convo.HasParticipant(userID) {
			convos = append(convos, convo)
		}
	}
	sort.Slice(convos, func(i, j int) bool {
		a, b := convos[i].LastMessageAt, convos[j].LastMessageAt
		switch {
		case a == nil && b == nil:
			return convos[i].CreatedAt.After(convos[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return convos, nil
}

func (s *ConversationStore) Create(_ context.Context, convo types.Conversation) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	convo.ID = uuid.NewString()
	convo.CreatedAt = now
	convo.UpdatedAt = now
	s.conversations[convo.ID] = convo
	return convo, nil
}

// Touch updates the conversation's last-activity timestamp.
func (s *ConversationStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convo, ok := s.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	convo.LastMessageAt = &at
	convo.UpdatedAt = at
	s.conversations[id] = convo
	return nil
}

func (s *ConversationStore) CreateMessage(_ context.Context, msg types.Message) (types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.UpdatedAt = msg.CreatedAt
	s.messages = append(s.messages, msg)
	return msg, nil
}

// ListMessages returns the full thread oldest first. Equal timestamps keep
// insertion order (stable sort over the append-ordered slice).
func (s *ConversationStore) ListMessages(_ context.Context, conversationID string) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]types.Message, 0)
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}
