package services

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/roomatch/apiserver/internal/metrics"
	"github.com/roomatch/apiserver/internal/mq"
	"github.com/roomatch/apiserver/types"
)

// EventsChannel is the broker channel analytics events are published to.
const EventsChannel = "analytics.events"

// EventRepository is the append-only analytics event log.
type EventRepository interface {
	Create(ctx context.Context, event types.AnalyticsEvent) (types.AnalyticsEvent, error)
	Count(ctx context.Context) (int, error)
}

// AnalyticsService records domain events. Every event is appended to the
// store; when a broker is configured the event is also published
// best-effort, so a broker outage never fails the originating request.
type AnalyticsService struct {
	repo   EventRepository
	bus    *mq.MQ
	logger zerolog.Logger
}

func NewAnalyticsService(repo EventRepository, bus *mq.MQ, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, bus: bus, logger: logger}
}

// Record appends a domain event and publishes it to the event bus.
func (s *AnalyticsService) Record(ctx context.Context, eventType types.EventType, anonymousUserID string, properties map[string]any) {
	if properties == nil {
		properties = map[string]any{}
	}

	event, err := s.repo.Create(ctx, types.AnalyticsEvent{
		Type:            eventType,
		AnonymousUserID: anonymousUserID,
		Properties:      properties,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(eventType)).Msg("failed to record analytics event")
		return
	}

	metrics.EventsRecorded.WithLabelValues(string(eventType)).Inc()

	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(eventType)).Msg("failed to encode analytics event")
		return
	}
	if _, err := s.bus.Publish(ctx, EventsChannel, payload, map[string]string{"type": string(eventType)}); err != nil {
		s.logger.Warn().Err(err).Str("type", string(eventType)).Msg("failed to publish analytics event")
	}
}
