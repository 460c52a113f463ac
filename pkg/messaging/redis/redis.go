package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ayurcare/clinic-api/pkg/circuitbreaker"
	"github.com/ayurcare/clinic-api/pkg/messaging"
)

const payloadField = "payload"

// RedisBroker carries messages over Redis streams read through a consumer
// group. Entries stay in the stream after publish whether or not a consumer
// is running, and stay pending in the group until acknowledged.
type RedisBroker struct {
	client  *redis.Client
	cb      *circuitbreaker.CircuitBreaker
	streams StreamConfig
	logger  *zerolog.Logger
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
	Streams      StreamConfig
}

// StreamConfig controls consumer group reads.
type StreamConfig struct {
	Group    string
	Consumer string
	// MaxLen caps each stream, trimmed approximately on publish. Zero keeps
	// every entry.
	MaxLen int64
	// Block is how long one read waits for new entries.
	Block time.Duration
	// ClaimIdle is how long an entry may sit unacknowledged before it is
	// delivered again.
	ClaimIdle time.Duration
	// MaxDeliveries moves an entry to "<stream>.dead" once it has been
	// delivered this many times without an acknowledgement.
	MaxDeliveries int64
	BatchSize     int64
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.Group == "" {
		c.Group = "clinic-workers"
	}
	if c.Consumer == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "worker"
		}
		c.Consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.ClaimIdle <= 0 {
		c.ClaimIdle = time.Minute
	}
	if c.MaxDeliveries <= 0 {
		c.MaxDeliveries = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	return c
}

// NewClient parses the URL and verifies the connection.
func NewClient(ctx context.Context, config Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisBroker(config Config, logger *zerolog.Logger) (*RedisBroker, error) {
	client, err := NewClient(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return NewRedisBrokerWithClient(client, config.Streams, logger), nil
}

func NewRedisBrokerWithClient(client *redis.Client, streams StreamConfig, logger *zerolog.Logger) *RedisBroker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisBroker{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-broker",
			MaxFailures: 5,
			Timeout:     5 * time.Second,
		}),
		streams: streams.withDefaults(),
		logger:  logger,
	}
}

var _ messaging.Broker = (*RedisBroker)(nil)

// Publish appends the message to the stream named by channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	var payload []byte
	switch m := message.(type) {
	case []byte:
		payload = m
	case json.RawMessage:
		payload = m
	default:
		var err error
		if payload, err = json.Marshal(message); err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
	}

	args := &redis.XAddArgs{
		Stream: channel,
		Values: map[string]interface{}{payloadField: payload},
	}
	if b.streams.MaxLen > 0 {
		args.MaxLen = b.streams.MaxLen
		args.Approx = true
	}
	return b.cb.Execute(func() error {
		return b.client.XAdd(ctx, args).Err()
	})
}

// Subscribe joins the consumer group, creating the stream and group when
// missing. A new group starts from the beginning of the stream so entries
// published before the first subscriber are not skipped.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan messaging.Delivery, error) {
	err := b.client.XGroupCreateMkStream(ctx, channel, b.streams.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group on %s: %w", channel, err)
	}

	out := make(chan messaging.Delivery)
	go b.consume(ctx, channel, out)
	return out, nil
}

func (b *RedisBroker) Ack(ctx context.Context, channel, id string) error {
	return b.client.XAck(ctx, channel, b.streams.Group, id).Err()
}

func (b *RedisBroker) consume(ctx context.Context, stream string, out chan<- messaging.Delivery) {
	defer close(out)

	var lastReclaim time.Time
	for ctx.Err() == nil {
		if time.Since(lastReclaim) >= b.streams.ClaimIdle {
			if !b.reclaim(ctx, stream, out) {
				return
			}
			lastReclaim = time.Now()
		}

		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.streams.Group,
			Consumer: b.streams.Consumer,
			Streams:  []string{stream, ">"},
			Count:    b.streams.BatchSize,
			Block:    b.streams.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn().Err(err).Str("stream", stream).Msg("stream read failed")
			if !sleepCtx(ctx, b.streams.Block) {
				return
			}
			continue
		}

		for _, s := range res {
			for _, m := range s.Messages {
				if !deliver(ctx, out, m, 1) {
					return
				}
			}
		}
	}
}

// reclaim takes over entries left unacknowledged for at least ClaimIdle and
// dead-letters the ones that have used up their deliveries. It returns false
// once ctx is done.
func (b *RedisBroker) reclaim(ctx context.Context, stream string, out chan<- messaging.Delivery) bool {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  b.streams.Group,
		Start:  "-",
		End:    "+",
		Count:  b.streams.BatchSize * 10,
	}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		b.logger.Warn().Err(err).Str("stream", stream).Msg("failed to list pending entries")
		return true
	}

	var ids []string
	attempts := make(map[string]int64)
	for _, p := range pending {
		if p.Idle < b.streams.ClaimIdle {
			continue
		}
		if p.RetryCount >= b.streams.MaxDeliveries {
			b.deadLetter(ctx, stream, p.ID, p.RetryCount)
			continue
		}
		ids = append(ids, p.ID)
		attempts[p.ID] = p.RetryCount + 1
	}
	if len(ids) == 0 {
		return true
	}

	msgs, err := b.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    b.streams.Group,
		Consumer: b.streams.Consumer,
		MinIdle:  b.streams.ClaimIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		b.logger.Warn().Err(err).Str("stream", stream).Msg("failed to claim pending entries")
		return true
	}

	for _, m := range msgs {
		if len(m.Values) == 0 {
			// trimmed from the stream while pending
			_ = b.Ack(ctx, stream, m.ID)
			continue
		}
		if !deliver(ctx, out, m, attempts[m.ID]) {
			return false
		}
	}
	return true
}

func (b *RedisBroker) deadLetter(ctx context.Context, stream, id string, deliveries int64) {
	entries, err := b.client.XRange(ctx, stream, id, id).Result()
	if err != nil {
		b.logger.Warn().Err(err).Str("stream", stream).Str("entry_id", id).Msg("failed to read entry for dead-lettering")
		return
	}
	if len(entries) > 0 {
		err := b.client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream + ".dead",
			Values: map[string]interface{}{
				payloadField: entries[0].Values[payloadField],
				"source_id":  id,
				"deliveries": deliveries,
			},
		}).Err()
		if err != nil {
			b.logger.Warn().Err(err).Str("stream", stream).Str("entry_id", id).Msg("failed to dead-letter entry")
			return
		}
	}
	if err := b.Ack(ctx, stream, id); err != nil {
		b.logger.Warn().Err(err).Str("stream", stream).Str("entry_id", id).Msg("failed to acknowledge dead-lettered entry")
		return
	}
	b.logger.Error().Str("stream", stream).Str("entry_id", id).Int64("deliveries", deliveries).Msg("entry moved to dead-letter stream")
}

func deliver(ctx context.Context, out chan<- messaging.Delivery, m redis.XMessage, attempt int64) bool {
	var body []byte
	switch v := m.Values[payloadField].(type) {
	case string:
		body = []byte(v)
	case []byte:
		body = v
	}
	select {
	case out <- messaging.Delivery{ID: m.ID, Body: body, Attempt: attempt}:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
