// Package kafkaevents consumes pushed obligation updates from a Kafka topic.
package kafkaevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"hayat/internal/obligation"
)

const (
	DefaultTopic = "hayat.obligations"
	DefaultGroup = "hayat-agents"
)

// Consumer delivers records from one topic to every subscriber. All
// subscribers share a single consumer group member and poll loop, so each
// record reaches each subscriber regardless of how partitions are assigned.
// Offsets are committed after each polled batch has been handed over.
type Consumer struct {
	brokers []string
	topic   string
	group   string
	logger  *slog.Logger
	extra   []kgo.Opt

	// start launches the poll loop and returns its stop function, or nil when
	// the client could not be created.
	start func() func()

	mu          sync.Mutex
	subscribers map[int]func(obligation.Record)
	nextID      int
	stop        func()
}

// Option configures the Consumer.
type Option func(*Consumer)

func WithTopic(topic string) Option {
	return func(c *Consumer) {
		if topic != "" {
			c.topic = topic
		}
	}
}

func WithGroup(group string) Option {
	return func(c *Consumer) {
		if group != "" {
			c.group = group
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientOptions appends raw franz-go options.
func WithClientOptions(opts ...kgo.Opt) Option {
	return func(c *Consumer) {
		c.extra = append(c.extra, opts...)
	}
}

// New validates the configuration without connecting.
func New(brokers []string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka consumer requires at least one broker")
	}
	c := &Consumer{
		brokers:     brokers,
		topic:       DefaultTopic,
		group:       DefaultGroup,
		logger:      slog.Default(),
		subscribers: make(map[int]func(obligation.Record)),
	}
	c.start = c.startPolling
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe registers callback. The first subscriber starts the shared poll
// loop and the last unsubscribe stops it. Connection failures are logged; the
// client keeps retrying in the background.
func (c *Consumer) Subscribe(callback func(obligation.Record)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = callback
	if c.stop == nil {
		c.stop = c.start()
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Consumer) unsubscribe(id int) {
	c.mu.Lock()
	delete(c.subscribers, id)
	var stop func()
	if len(c.subscribers) == 0 {
		stop = c.stop
		c.stop = nil
	}
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (c *Consumer) startPolling() func() {
	opts := append([]kgo.Opt{
		kgo.SeedBrokers(c.brokers...),
		kgo.ConsumeTopics(c.topic),
		kgo.ConsumerGroup(c.group),
		kgo.DisableAutoCommit(),
	}, c.extra...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		c.logger.Error("failed to create obligation consumer", "topic", c.topic, "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.run(ctx, client)
	}()
	return func() {
		cancel()
		wg.Wait()
		client.Close()
	}
}

// deliver hands rec to every current subscriber.
func (c *Consumer) deliver(rec obligation.Record) {
	c.mu.Lock()
	callbacks := make([]func(obligation.Record), 0, len(c.subscribers))
	for _, cb := range c.subscribers {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()
	for _, cb := range callbacks {
		cb(rec)
	}
}

func (c *Consumer) run(ctx context.Context, client *kgo.Client) {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "obligation fetch failed", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			rec, err := decode(r.Value)
			if err != nil {
				c.logger.WarnContext(ctx, "dropping malformed obligation update",
					"topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "error", err)
				return
			}
			c.deliver(rec)
		})
		if err := client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "obligation offset commit failed", "error", err)
		}
	}
}

func decode(value []byte) (obligation.Record, error) {
	var rec obligation.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return obligation.Record{}, fmt.Errorf("decode obligation: %w", err)
	}
	if rec.Kind == "" || rec.MemberID == "" || rec.Ref == "" {
		return obligation.Record{}, errors.New("obligation is missing its identity")
	}
	return rec.Normalize(), nil
}
