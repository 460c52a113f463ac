package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
)

// OutboxWriter is the slice of the outbox store the publisher needs.
type OutboxWriter interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
}

// Publisher records domain events in the outbox. Delivery to the broker
// happens in the worker.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type EventService struct {
	outboxRepo OutboxWriter
	now        func() time.Time
}

func NewEventService(outboxRepo OutboxWriter) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (s *EventService) Publish(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := s.now()
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payloadJSON,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
