package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beautycare/backend/internal/domain"
)

// EventPublisher stamps analytics events and hands them to the sink
type EventPublisher struct {
	sink domain.AnalyticsSink
	now  func() time.Time
}

// NewEventPublisher wraps sink; a nil sink drops every event and a nil
// clock defaults to time.Now.
func NewEventPublisher(sink domain.AnalyticsSink, now func() time.Time) *EventPublisher {
	if now == nil {
		now = time.Now
	}
	return &EventPublisher{sink: sink, now: now}
}

// Publish emits one event. It never fails.
func (p *EventPublisher) Publish(ctx context.Context, name, userID string, props map[string]any) {
	if p == nil || p.sink == nil {
		return
	}
	p.sink.Emit(ctx, domain.Event{
		ID:         uuid.NewString(),
		Name:       name,
		UserID:     userID,
		Properties: props,
		OccurredAt: p.now().UTC(),
	})
}
