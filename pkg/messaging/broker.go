package messaging

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher appends a message to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broker defines the interface for message brokers. Messages are retained
// until acknowledged, so a message published before any consumer subscribes
// is still delivered, and a message that is never acknowledged is delivered
// again.
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan Delivery, error)
	Ack(ctx context.Context, channel, id string) error
	Close() error
}

// Delivery is one message handed to a consumer.
type Delivery struct {
	ID   string
	Body []byte
	// Attempt starts at 1 and grows each time the message is redelivered.
	Attempt int64
}

// Message is the envelope every event travels in.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// MessageHandler processes one decoded message.
type MessageHandler func(ctx context.Context, msg Message) error
