package services

import (
	"context"
	"errors"

	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// FeedbackRepository defines persistence operations for feedback records.
type FeedbackRepository interface {
	Create(ctx context.Context, fb types.Feedback) (types.Feedback, error)
	ListByRoom(ctx context.Context, roomID string) ([]types.Feedback, error)
	ListByUser(ctx context.Context, userID string) ([]types.Feedback, error)
	ListAll(ctx context.Context) ([]types.Feedback, error)
	AggregateByRoom(ctx context.Context, roomID string) (int, float64, error)
	AggregateByUser(ctx context.Context, userID string) (int, float64, error)
}

// FeedbackService records ratings and keeps the derived aggregates in sync.
// Aggregates are recomputed from scratch on each submission rather than
// incrementally; O(n) per submission is accepted at this scale.
type FeedbackService struct {
	repo  FeedbackRepository
	users *UserService
	rooms RoomRepository
}

func NewFeedbackService(repo FeedbackRepository, users *UserService, rooms RoomRepository) *FeedbackService {
	return &FeedbackService{repo: repo, users: users, rooms: rooms}
}

// Submit appends a feedback record and recomputes the aggregates of every
// target it references. A submission may update both a user and a room.
// The aggregate writes are separate steps with no transaction; a crash in
// between leaves a stale aggregate, an accepted inconsistency window.
func (s *FeedbackService) Submit(ctx context.Context, authorID string, fb types.Feedback) (types.Feedback, error) {
	if fb.ToUserID == "" && fb.RoomID == "" {
		return types.Feedback{}, NewValidationError("toUserId or roomId is required")
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return types.Feedback{}, NewValidationError("rating must be between 1 and 5")
	}

	fb.FromUserID = authorID
	created, err := s.repo.Create(ctx, fb)
	if err != nil {
		return types.Feedback{}, err
	}

	if created.RoomID != "" {
		count, avg, err := s.repo.AggregateByRoom(ctx, created.RoomID)
		if err != nil {
			return types.Feedback{}, err
		}
		room, err := s.rooms.Get(ctx, created.RoomID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// the record stands even when its room has since vanished
		case err != nil:
			return types.Feedback{}, err
		default:
			room.RatingCount = count
			room.RatingAvg = avg
			if _, err := s.rooms.Update(ctx, room); err != nil {
				return types.Feedback{}, err
			}
		}
	}

	if created.ToUserID != "" {
		count, avg, err := s.repo.AggregateByUser(ctx, created.ToUserID)
		if err != nil {
			return types.Feedback{}, err
		}
		if err := s.users.ApplyRating(ctx, created.ToUserID, count, avg); err != nil && !errors.Is(err, store.ErrNotFound) {
			return types.Feedback{}, err
		}
	}

	return created, nil
}

func (s *FeedbackService) ListByRoom(ctx context.Context, roomID string) ([]types.Feedback, error) {
	return s.repo.ListByRoom(ctx, roomID)
}

func (s *FeedbackService) ListByUser(ctx context.Context, userID string) ([]types.Feedback, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *FeedbackService) ListAll(ctx context.Context) ([]types.Feedback, error) {
	return s.repo.ListAll(ctx)
}
