package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// FeedbackRepository handles persistence for feedback records.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const feedbackColumns = `
	id, from_user_id, to_user_id, room_id, rating, comment, stay_start, stay_end, created_at, updated_at`

func scanFeedback(row rowScanner) (types.Feedback, error) {
	var fb types.Feedback
	var toUserID, roomID sql.NullString
	err := row.Scan(
		&fb.ID,
		&fb.FromUserID,
		&toUserID,
		&roomID,
		&fb.Rating,
		&fb.Comment,
		&fb.StayStart,
		&fb.StayEnd,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Feedback{}, ErrNotFound
		}
		return types.Feedback{}, err
	}
	fb.ToUserID = toUserID.String
	fb.RoomID = roomID.String
	return fb, nil
}

func (r *FeedbackRepository) Create(ctx context.Context, fb types.Feedback) (types.Feedback, error) {
	now := time.Now()
	fb.ID = uuid.NewString()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	const query = `
		INSERT INTO feedback (id, from_user_id, to_user_id, room_id, rating, comment, stay_start, stay_end, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		fb.ID,
		fb.FromUserID,
		fb.ToUserID,
		fb.RoomID,
		fb.Rating,
		fb.Comment,
		fb.StayStart,
		fb.StayEnd,
		fb.CreatedAt,
		fb.UpdatedAt,
	)
	if err != nil {
		return types.Feedback{}, err
	}
	return fb, nil
}

func (r *FeedbackRepository) ListByRoom(ctx context.Context, roomID string) ([]types.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback WHERE room_id = $1 ORDER BY created_at, id`
	return r.queryFeedback(ctx, query, roomID)
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string) ([]types.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback WHERE to_user_id = $1 ORDER BY created_at, id`
	return r.queryFeedback(ctx, query, userID)
}

func (r *FeedbackRepository) ListAll(ctx context.Context) ([]types.Feedback, error) {
	const query = `SELECT ` + feedbackColumns + ` FROM feedback ORDER BY created_at, id`
	return r.queryFeedback(ctx, query)
}

// AggregateByRoom recomputes the rating count and mean over every feedback
// record referencing the room.
func (r *FeedbackRepository) AggregateByRoom(ctx context.Context, roomID string) (int, float64, error) {
	const query = `SELECT COUNT(1), COALESCE(AVG(rating), 0) FROM feedback WHERE room_id = $1`
	return r.aggregate(ctx, query, roomID)
}

// AggregateByUser recomputes the rating count and mean over every feedback
// record referencing the user.
func (r *FeedbackRepository) AggregateByUser(ctx context.Context, userID string) (int, float64, error) {
	const query = `SELECT COUNT(1), COALESCE(AVG(rating), 0) FROM feedback WHERE to_user_id = $1`
	return r.aggregate(ctx, query, userID)
}

func (r *FeedbackRepository) aggregate(ctx context.Context, query, id string) (int, float64, error) {
	var count int
	var avg float64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count, &avg); err != nil {
		return 0, 0, err
	}
	return count, avg, nil
}

func (r *FeedbackRepository) queryFeedback(ctx context.Context, query string, args ...any) ([]types.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, fb)
	}
	return records, rows.Err()
}
