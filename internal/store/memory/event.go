package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// EventStore is the append-only analytics event log.
type EventStore struct {
	mu     sync.RWMutex
	events []types.AnalyticsEvent
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Create(_ context.Context, event types.AnalyticsEvent) (types.AnalyticsEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	s.events = append(s.events, event)
	return event, nil
}

// Count returns the number of recorded events.
func (s *EventStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}
