// Package analytics provides the fire-and-forget event sinks: structured
// log lines, a Kafka topic and an in-memory aggregator for summaries.
package analytics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
)

// Noop drops every event
type Noop struct{}

// Emit does nothing
func (Noop) Emit(context.Context, domain.Event) {}

// Multi fans an event out to several sinks in order
type Multi []domain.AnalyticsSink

// Emit forwards the event to every sink
func (m Multi) Emit(ctx context.Context, event domain.Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}

// LogSink writes each event as one structured log line
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink on the global logger
func NewLogSink() *LogSink {
	return &LogSink{logger: log.Logger.With().Str("component", "analytics").Logger()}
}

// NewLogSinkWithLogger creates a sink writing to logger
func NewLogSinkWithLogger(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the event at info level
func (s *LogSink) Emit(_ context.Context, event domain.Event) {
	s.logger.Info().
		Str("event_id", event.ID).
		Str("event", event.Name).
		Str("user_id", event.UserID).
		Fields(event.Properties).
		Time("occurred_at", event.OccurredAt).
		Msg("Analytics event")
}
