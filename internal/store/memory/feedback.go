package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// FeedbackStore keeps feedback records in insertion order.
type FeedbackStore struct {
	mu      sync.RWMutex
	records []types.Feedback
}

func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

func (s *FeedbackStore) Create(_ context.Context, fb types.Feedback) (types.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	fb.ID = uuid.NewString()
	fb.CreatedAt = now
	fb.UpdatedAt = now
	s.records = append(s.records, fb)
	return fb, nil
}

func (s *FeedbackStore) ListByRoom(_ context.Context, roomID string) ([]types.Feedback, error) {
	return s.filter(func(fb types.Feedback) bool { return fb.RoomID == roomID }), nil
}

func (s *FeedbackStore) ListByUser(_ context.Context, userID string) ([]types.Feedback, error) {
	return s.filter(func(fb types.Feedback) bool { return fb.ToUserID == userID }), nil
}

func (s *FeedbackStore) ListAll(_ context.Context) ([]types.Feedback, error) {
	return s.filter(func(types.Feedback) bool { return true }), nil
}

// AggregateByRoom recomputes count and mean over every record referencing
// the room.
func (s *FeedbackStore) AggregateByRoom(_ context.Context, roomID string) (int, float64, error) {
	count, avg := s.aggregate(func(fb types.Feedback) bool { return fb.RoomID == roomID })
	return count, avg, nil
}

// AggregateByUser recomputes count and mean over every record referencing
// the user.
func (s *FeedbackStore) AggregateByUser(_ context.Context, userID string) (int, float64, error) {
	count, avg := s.aggregate(func(fb types.Feedback) bool { return fb.ToUserID == userID })
	return count, avg, nil
}

func (s *FeedbackStore) aggregate(keep func(types.Feedback) bool) (int, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	sum := 0
	for _, fb := range s.records {
		if keep(fb) {
			count++
			sum += fb.Rating
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, float64(sum) / float64(count)
}

func (s *FeedbackStore) filter(keep func(types.Feedback) bool) []types.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Feedback, 0)
	for _, fb := range s.records {
		if keep(fb) {
			out = append(out, fb)
		}
	}
	return out
}
