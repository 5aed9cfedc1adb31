// Package redisstream publishes committed trace entries to a Redis stream so
// dashboards can tail decisions without querying the ledger.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hayat/internal/trace"
)

const (
	DefaultStream = "hayat:traces"
	defaultMaxLen = 10000
)

// Sink appends entries to a capped stream.
type Sink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// Option configures the Sink.
type Option func(*Sink)

// WithStream overrides the stream key.
func WithStream(stream string) Option {
	return func(s *Sink) {
		if stream != "" {
			s.stream = stream
		}
	}
}

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// New creates a stream sink over an existing client. The client is owned by
// the caller and is not closed by Close.
func New(client redis.UniversalClient, opts ...Option) *Sink {
	s := &Sink{client: client, stream: DefaultStream, maxLen: defaultMaxLen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Name() string {
	return "redis_stream"
}

// Publish adds the entry as a stream message keyed by agent and action.
func (s *Sink) Publish(ctx context.Context, entry trace.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal trace entry: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"entry_id": entry.ID,
			"agent_id": entry.AgentID,
			"action":   entry.Action,
			"user_id":  entry.UserID,
			"payload":  payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close is a no-op; the client is shared.
func (s *Sink) Close() error {
	return nil
}
