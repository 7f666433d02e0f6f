package memory

import (
	"context"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/events"
)

// EventPublisher is a log-only ports.EventPublisher for local development
type EventPublisher struct {
	logger *zap.Logger
}

// NewEventPublisher creates a log-only event publisher
func NewEventPublisher(logger *zap.Logger) *EventPublisher {
	return &EventPublisher{logger: logger}
}

// Publish logs the event
func (p *EventPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Debug("domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
	)
	return nil
}

// PublishBatch logs each event
func (p *EventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, event := range evts {
		_ = p.Publish(ctx, event)
	}
	return nil
}

var _ ports.EventPublisher = (*EventPublisher)(nil)
