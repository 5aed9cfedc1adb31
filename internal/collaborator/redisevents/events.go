// Package redisevents delivers pushed obligation updates over Redis pub/sub.
package redisevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"hayat/internal/obligation"
)

// DefaultChannel carries JSON-encoded obligation.Record messages.
const DefaultChannel = "hayat:obligations"

// Bus publishes and subscribes to obligation updates on one channel.
type Bus struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// Option configures the Bus.
type Option func(*Bus)

func WithChannel(channel string) Option {
	return func(b *Bus) {
		if channel != "" {
			b.channel = channel
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bus over client. The client is owned by the caller.
func New(client redis.UniversalClient, opts ...Option) *Bus {
	b := &Bus{client: client, channel: DefaultChannel, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends rec to every subscriber.
func (b *Bus) Publish(ctx context.Context, rec obligation.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal obligation: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish obligation: %w", err)
	}
	return nil
}

// Subscribe delivers decoded records to callback from a background goroutine
// until the returned function is called. Undecodable messages are logged and
// skipped. The returned function blocks until delivery has stopped.
func (b *Bus) Subscribe(callback func(obligation.Record)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, b.channel)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var rec obligation.Record
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					b.logger.WarnContext(ctx, "dropping malformed obligation update", "channel", msg.Channel, "error", err)
					continue
				}
				callback(rec.Normalize())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				b.logger.Warn("failed to close obligation subscription", "error", err)
			}
			wg.Wait()
		})
	}
}
