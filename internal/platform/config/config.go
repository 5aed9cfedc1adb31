// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "hayat/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Auth configures bearer token validation.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// Monitor configures the background monitoring loop.
type Monitor struct {
	Interval time.Duration
	Timeout  time.Duration
}

// RedisConfig is optional; an empty URL disables every Redis-backed component.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	FeedCacheTTL time.Duration
	TraceStream  string
	EventChannel string
}

// Postgres is optional; an empty DSN keeps the trace ledger in memory only.
type Postgres struct {
	DSN string
}

// Kafka is optional; no brokers disables the trace topic sink and the
// obligation update consumer.
type Kafka struct {
	Brokers         []string
	Topic           string
	ObligationTopic string
	ConsumerGroup   string
}

// Collaborators locates the obligation feed and command gateway. Without a
// feed URL the seed file is served in-process.
type Collaborators struct {
	FeedURL       string
	FeedAPIKey    string
	CommandURL    string
	CommandAPIKey string
	SeedFile      string
}

// Log configures the structured logger.
type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server        Server
	Auth          Auth
	Monitor       Monitor
	Redis         RedisConfig
	Postgres      Postgres
	Kafka         Kafka
	Collaborators Collaborators
	Log           Log
}

// FromEnv builds the configuration from HAYAT_* environment variables so main
// stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:            p.str("HAYAT_ADDR", ":8080"),
			ShutdownTimeout: p.duration("HAYAT_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			// Use a default for development; override in production.
			JWTSigningKey: p.str("HAYAT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        p.str("HAYAT_JWT_ISSUER", "hayat"),
			Audience:      p.str("HAYAT_JWT_AUDIENCE", "hayat-api"),
		},
		Monitor: Monitor{
			Interval: p.duration("HAYAT_MONITOR_INTERVAL", 5*time.Minute),
			Timeout:  p.duration("HAYAT_MONITOR_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:          p.str("HAYAT_REDIS_URL", ""),
			PoolSize:     p.integer("HAYAT_REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("HAYAT_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("HAYAT_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("HAYAT_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("HAYAT_REDIS_WRITE_TIMEOUT", 3*time.Second),
			FeedCacheTTL: p.duration("HAYAT_FEED_CACHE_TTL", 72*time.Hour),
			TraceStream:  p.str("HAYAT_REDIS_TRACE_STREAM", "hayat:traces"),
			EventChannel: p.str("HAYAT_REDIS_EVENT_CHANNEL", "hayat:obligations"),
		},
		Postgres: Postgres{
			DSN: p.str("HAYAT_POSTGRES_DSN", ""),
		},
		Kafka: Kafka{
			Brokers:         p.list("HAYAT_KAFKA_BROKERS"),
			Topic:           p.str("HAYAT_KAFKA_TOPIC", "hayat.traces"),
			ObligationTopic: p.str("HAYAT_KAFKA_OBLIGATION_TOPIC", ""),
			ConsumerGroup:   p.str("HAYAT_KAFKA_CONSUMER_GROUP", "hayat-agents"),
		},
		Collaborators: Collaborators{
			FeedURL:       p.str("HAYAT_FEED_URL", ""),
			FeedAPIKey:    p.str("HAYAT_FEED_API_KEY", ""),
			CommandURL:    p.str("HAYAT_COMMAND_URL", ""),
			CommandAPIKey: p.str("HAYAT_COMMAND_API_KEY", ""),
			SeedFile:      p.str("HAYAT_SEED_FILE", ""),
		},
		Log: Log{
			Level:  p.str("HAYAT_LOG_LEVEL", "info"),
			Format: p.str("HAYAT_LOG_FORMAT", "json"),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.Monitor.Interval <= 0 {
		return Config{}, fmt.Errorf("HAYAT_MONITOR_INTERVAL must be positive")
	}
	return cfg, nil
}

// parser records the first malformed variable.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) list(key string) []string {
	raw := p.str(key, "")
	if raw == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(raw, ","))
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
