// Package feedcache keeps the last successful feed snapshot per member in
// Redis and serves it when the feed is down.
package feedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"hayat/internal/agent/ports"
	"hayat/internal/obligation"
)

const (
	defaultPrefix = "hayat:feed:"
	defaultTTL    = 72 * time.Hour
)

// Feed decorates a FeedPort with a last-known cache.
type Feed struct {
	next   ports.FeedPort
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Feed.
type Option func(*Feed)

// WithTTL sets how long a snapshot may be served after the last success.
func WithTTL(ttl time.Duration) Option {
	return func(f *Feed) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(f *Feed) {
		if prefix != "" {
			f.prefix = prefix
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New wraps next. The client is owned by the caller.
func New(next ports.FeedPort, client redis.UniversalClient, opts ...Option) *Feed {
	f := &Feed{
		next:   next,
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns fresh records and refreshes the cache. When the feed fails,
// the cached snapshot is served if every requested member has one; otherwise
// the feed error is returned.
func (f *Feed) Fetch(ctx context.Context, memberIDs []string) ([]obligation.Record, error) {
	records, err := f.next.Fetch(ctx, memberIDs)
	if err == nil {
		if storeErr := f.store(ctx, memberIDs, records); storeErr != nil {
			f.logger.WarnContext(ctx, "failed to cache feed snapshot", "error", storeErr)
		}
		return records, nil
	}

	cached, ok, loadErr := f.load(ctx, memberIDs)
	if loadErr != nil {
		f.logger.WarnContext(ctx, "failed to read cached feed snapshot", "error", loadErr)
		return nil, err
	}
	if !ok {
		return nil, err
	}
	f.logger.WarnContext(ctx, "serving cached obligations", "members", len(memberIDs), "error", err)
	return cached, nil
}

func (f *Feed) key(memberID string) string {
	return f.prefix + memberID
}

func (f *Feed) store(ctx context.Context, memberIDs []string, records []obligation.Record) error {
	byMember := make(map[string][]obligation.Record, len(memberIDs))
	for _, id := range memberIDs {
		byMember[id] = []obligation.Record{}
	}
	for _, rec := range records {
		if _, ok := byMember[rec.MemberID]; ok {
			byMember[rec.MemberID] = append(byMember[rec.MemberID], rec)
		}
	}

	pipe := f.client.TxPipeline()
	for id, recs := range byMember {
		payload, err := json.Marshal(recs)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", id, err)
		}
		pipe.Set(ctx, f.key(id), payload, f.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (f *Feed) load(ctx context.Context, memberIDs []string) ([]obligation.Record, bool, error) {
	if len(memberIDs) == 0 {
		return nil, false, nil
	}
	keys := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		keys[i] = f.key(id)
	}
	values, err := f.client.MGet(ctx, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var out []obligation.Record
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, false, nil
		}
		var recs []obligation.Record
		if err := json.Unmarshal([]byte(raw), &recs); err != nil {
			return nil, false, fmt.Errorf("decode snapshot for %s: %w", memberIDs[i], err)
		}
		out = append(out, recs...)
	}
	return out, true, nil
}
