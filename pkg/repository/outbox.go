package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
)

// OutboxRepository exposes only what the outbox processor needs.
type OutboxRepository interface {
	// GetPendingEventsWithLock claims up to limit due events and marks them
	// processing so concurrent workers skip them.
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}
