package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// EventRepository is the append-only analytics event log. Events are never
// updated or deleted.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event types.AnalyticsEvent) (types.AnalyticsEvent, error) {
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()

	properties, _ := json.Marshal(event.Properties)

	const query = `
		INSERT INTO analytics_events (id, event_type, anonymous_user_id, properties, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.Type,
		event.AnonymousUserID,
		properties,
		event.CreatedAt,
	)
	if err != nil {
		return types.AnalyticsEvent{}, err
	}
	return event, nil
}

// Count returns the number of recorded events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(1) FROM analytics_events`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
