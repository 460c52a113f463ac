package messaging

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// BrokerAdapter turns a raw subscription into decoded Messages.
type BrokerAdapter struct {
	broker Broker
	logger zerolog.Logger
}

func NewBrokerAdapter(broker Broker, logger zerolog.Logger) *BrokerAdapter {
	return &BrokerAdapter{broker: broker, logger: logger}
}

func (a *BrokerAdapter) Close() error {
	return a.broker.Close()
}

// Consume blocks until ctx is cancelled or the subscription closes.
// A message is acknowledged once the handler succeeds. Undecodable payloads
// are acknowledged and dropped. Handler failures leave the message pending
// so the broker delivers it again.
func (a *BrokerAdapter) Consume(ctx context.Context, channel string, handler MessageHandler) error {
	deliveries, err := a.broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				a.logger.Warn().Err(err).Str("channel", channel).Str("delivery_id", d.ID).Msg("dropping undecodable message")
				a.ack(ctx, channel, d.ID)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				a.logger.Error().Err(err).
					Str("channel", channel).
					Str("message_id", msg.ID).
					Str("message_type", msg.Type).
					Int64("attempt", d.Attempt).
					Msg("message handler failed, leaving for redelivery")
				continue
			}
			a.ack(ctx, channel, d.ID)
		}
	}
}

func (a *BrokerAdapter) ack(ctx context.Context, channel, id string) {
	if err := a.broker.Ack(ctx, channel, id); err != nil {
		a.logger.Warn().Err(err).Str("channel", channel).Str("delivery_id", id).Msg("failed to acknowledge message")
	}
}
