package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanBroker struct {
	ch chan Delivery

	mu    sync.Mutex
	acked []string
}

func (b *chanBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (b *chanBroker) Subscribe(ctx context.Context, channel string) (<-chan Delivery, error) {
	return b.ch, nil
}

func (b *chanBroker) Ack(ctx context.Context, channel, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, id)
	return nil
}

func (b *chanBroker) Close() error { return nil }

func TestBrokerAdapter_ConsumeDecodesAndSkipsBadMessages(t *testing.T) {
	broker := &chanBroker{ch: make(chan Delivery, 3)}
	broker.ch <- Delivery{ID: "d-0", Body: []byte(`not json`), Attempt: 1}
	broker.ch <- Delivery{ID: "d-1", Body: []byte(`{"id":"1","type":"APPOINTMENT_CREATED","payload":{"appointment_id":"a"}}`), Attempt: 1}
	broker.ch <- Delivery{ID: "d-2", Body: []byte(`{"id":"2","type":"CONTACT_MESSAGE_RECEIVED","payload":{}}`), Attempt: 1}
	close(broker.ch)

	var seen []string
	adapter := NewBrokerAdapter(broker, zerolog.Nop())
	err := adapter.Consume(context.Background(), "clinic.events", func(ctx context.Context, msg Message) error {
		seen = append(seen, msg.Type)
		if msg.ID == "1" {
			return errors.New("handler failed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"APPOINTMENT_CREATED", "CONTACT_MESSAGE_RECEIVED"}, seen)
	// the failed message stays unacknowledged so it is redelivered
	assert.Equal(t, []string{"d-0", "d-2"}, broker.acked)
}

func TestBrokerAdapter_ConsumeStopsOnCancel(t *testing.T) {
	broker := &chanBroker{ch: make(chan Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- NewBrokerAdapter(broker, zerolog.Nop()).Consume(ctx, "clinic.events", func(context.Context, Message) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consume did not return after cancel")
	}
}
