package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurcare/clinic-api/pkg/messaging"
)

func testStreams() StreamConfig {
	return StreamConfig{
		Group:         "test-workers",
		Consumer:      "test-1",
		Block:         20 * time.Millisecond,
		ClaimIdle:     50 * time.Millisecond,
		MaxDeliveries: 3,
	}
}

func newTestBroker(t *testing.T) (*RedisBroker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewRedisBrokerWithClient(client, testStreams(), nil), mr
}

func receive(t *testing.T, ch <-chan messaging.Delivery, within time.Duration) messaging.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return d
	case <-time.After(within):
		t.Fatal("message not received")
		return messaging.Delivery{}
	}
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "clinic.events")
	require.NoError(t, err)

	err = broker.Publish(ctx, "clinic.events", messaging.Message{
		ID:      "evt-1",
		Type:    "APPOINTMENT_CREATED",
		Payload: json.RawMessage(`{"appointment_id":"abc"}`),
	})
	require.NoError(t, err)

	d := receive(t, msgs, 2*time.Second)
	var got messaging.Message
	require.NoError(t, json.Unmarshal(d.Body, &got))
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, "APPOINTMENT_CREATED", got.Type)
	assert.JSONEq(t, `{"appointment_id":"abc"}`, string(got.Payload))
	assert.Equal(t, int64(1), d.Attempt)
}

func TestRedisBroker_PublishRawBytes(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := broker.Subscribe(ctx, "raw")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "raw", []byte(`{"k":"v"}`)))

	d := receive(t, msgs, 2*time.Second)
	assert.JSONEq(t, `{"k":"v"}`, string(d.Body))
}

func TestRedisBroker_PublishWithoutConsumerIsRetained(t *testing.T) {
	broker, mr := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// nobody is subscribed yet
	require.NoError(t, broker.Publish(ctx, "clinic.events", messaging.Message{ID: "early", Type: "CONTACT_MESSAGE_RECEIVED"}))
	require.NoError(t, broker.Publish(ctx, "clinic.events", messaging.Message{ID: "later", Type: "CONTACT_MESSAGE_RECEIVED"}))

	entries, err := mr.Stream("clinic.events")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	msgs, err := broker.Subscribe(ctx, "clinic.events")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 2; i++ {
		var got messaging.Message
		require.NoError(t, json.Unmarshal(receive(t, msgs, 2*time.Second).Body, &got))
		ids = append(ids, got.ID)
	}
	assert.Equal(t, []string{"early", "later"}, ids)
}

func TestRedisBroker_UnackedEntryIsRedelivered(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "clinic.events")
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, "clinic.events", []byte(`{"id":"evt-1"}`)))

	first := receive(t, msgs, 2*time.Second)
	assert.Equal(t, int64(1), first.Attempt)

	// not acknowledged, so it comes back after the claim idle time
	second := receive(t, msgs, 2*time.Second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2), second.Attempt)

	require.NoError(t, broker.Ack(ctx, "clinic.events", second.ID))
	select {
	case d := <-msgs:
		t.Fatalf("acknowledged entry delivered again: %+v", d)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedisBroker_DeadLettersAfterMaxDeliveries(t *testing.T) {
	broker, mr := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "clinic.events")
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, "clinic.events", []byte(`{"id":"poison"}`)))

	for attempt := int64(1); attempt <= 3; attempt++ {
		d := receive(t, msgs, 2*time.Second)
		assert.Equal(t, attempt, d.Attempt)
	}

	require.Eventually(t, func() bool {
		dead, err := mr.Stream("clinic.events.dead")
		return err == nil && len(dead) == 1
	}, 2*time.Second, 20*time.Millisecond)

	pending, err := broker.client.XPending(ctx, "clinic.events", "test-workers").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestRedisBroker_PublishTrimsStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	streams := testStreams()
	streams.MaxLen = 2
	broker := NewRedisBrokerWithClient(client, streams, nil)
	defer broker.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, broker.Publish(context.Background(), "clinic.events", map[string]int{"n": i}))
	}
	n, err := client.XLen(context.Background(), "clinic.events").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisBroker_SubscribeTwiceReusesGroup(t *testing.T) {
	broker, _ := newTestBroker(t)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := broker.Subscribe(ctx, "clinic.events")
	require.NoError(t, err)
	_, err = broker.Subscribe(ctx, "clinic.events")
	assert.NoError(t, err)
}

func TestRedisBroker_PublishFailsWhenServerDown(t *testing.T) {
	broker, mr := newTestBroker(t)
	defer broker.Close()

	mr.Close()
	err := broker.Publish(context.Background(), "clinic.events", map[string]string{"k": "v"})
	assert.Error(t, err)
}
