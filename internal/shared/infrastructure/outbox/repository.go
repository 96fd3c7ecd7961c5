package outbox

import (
	"context"
	"time"
)

// Repository stores outbox rows. Writers append rows inside the unit of
// work that changed the aggregate; the Processor reads and settles them.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// SaveBatch assigns IDs to msgs in order.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns up to limit rows that are neither published
	// nor dead and whose retry time has passed, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	CountPending(ctx context.Context) (int64, error)

	MarkPublished(ctx context.Context, id int64) error
	// MarkFailed bumps the retry count and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld purges published rows older than the given number of days
	// and reports how many went.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
