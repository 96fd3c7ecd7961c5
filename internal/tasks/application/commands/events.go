package commands

import (
	"context"

	"github.com/felixgeelhaar/tasktrack/internal/shared/application"
	"github.com/felixgeelhaar/tasktrack/internal/shared/domain"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/outbox"
)

// saveEvents stamps the aggregate's pending events with metadata, writes
// them to the outbox and clears them.
func saveEvents(ctx context.Context, repo outbox.Repository, aggregate domain.AggregateRoot, correlationID string) error {
	events := aggregate.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	application.ApplyEventMetadata(events, application.NewEventMetadata(correlationID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	aggregate.ClearDomainEvents()
	return nil
}
