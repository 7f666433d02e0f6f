package ports

import (
	"context"

	"notegraph-backend/domain/events"
)

// EventPublisher publishes domain events to the event bus. Publishing is
// best-effort: callers log failures and continue rather than failing the
// originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
