package event

import (
	"context"

	"github.com/finops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogPublisher publishes domain events to the structured log. Events are a
// secondary effect: publication happens after commit and a lost event never
// fails or rolls back the originating operation.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish implements shared.EventPublisher
func (p *LogPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) {
	for _, e := range events {
		p.logger.Info("domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.String("tenant_id", e.TenantID().String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	}
}
