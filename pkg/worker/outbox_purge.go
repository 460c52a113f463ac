package worker

import (
	"context"
	"time"

	"github.com/ayurcare/clinic-api/pkg/logger"
	"github.com/ayurcare/clinic-api/pkg/metrics"
)

// ProcessedEventPurger deletes delivered outbox rows.
type ProcessedEventPurger interface {
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxPurgeWorker removes processed outbox events older than the
// retention window.
type OutboxPurgeWorker struct {
	repo          ProcessedEventPurger
	retentionDays int
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewOutboxPurgeWorker(repo ProcessedEventPurger, retentionDays int, logger *logger.Logger, metrics *metrics.Metrics) *OutboxPurgeWorker {
	return &OutboxPurgeWorker{
		repo:          repo,
		retentionDays: retentionDays,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// Run performs one purge pass. It is safe to call from a scheduler.
func (w *OutboxPurgeWorker) Run(ctx context.Context) {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)
	deleted, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		w.metrics.DatabaseOperations.WithLabelValues("purge_outbox", "error").Inc()
		w.logger.Error(err, "Failed to purge outbox events")
		return
	}
	w.metrics.DatabaseOperations.WithLabelValues("purge_outbox", "success").Inc()
	w.metrics.OutboxEventsPurged.Add(float64(deleted))
	if deleted > 0 {
		w.logger.Info("Purged processed outbox events", "deleted", deleted, "cutoff", cutoff)
	}
}
