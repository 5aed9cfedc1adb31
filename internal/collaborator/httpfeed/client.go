// Package httpfeed fetches obligation facts from a remote HTTP feed.
package httpfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"hayat/internal/collaborator"
	"hayat/internal/obligation"
	"hayat/pkg/platform/circuit"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

type response struct {
	Records []obligation.Record `json:"records"`
}

// Client is a FeedPort backed by GET {baseURL}/obligations. Consecutive
// failures open a circuit breaker; while open, calls fail fast until the
// cooldown allows a probe.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithName sets the collaborator name used in errors and logs.
func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBreaker overrides the circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a feed client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		name:    "obligation_feed",
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New(c.name)
	}
	return c
}

// Fetch returns the records of memberIDs. Errors are *collaborator.Error.
func (c *Client) Fetch(ctx context.Context, memberIDs []string) ([]obligation.Record, error) {
	if !c.breaker.Allow() {
		return nil, collaborator.NewError(collaborator.CategoryOutage, c.name, "feed rejected by breaker", collaborator.ErrCircuitOpen)
	}
	records, err := c.fetch(ctx, memberIDs)
	if err != nil {
		if !collaborator.IsRetryable(err) {
			return nil, err
		}
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "feed circuit opened", "collaborator", c.name, "error", err)
		}
		return nil, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "feed circuit closed", "collaborator", c.name)
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, memberIDs []string) ([]obligation.Record, error) {
	q := url.Values{}
	for _, id := range memberIDs {
		q.Add("member_id", id)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/obligations?"+q.Encode(), nil)
	if err != nil {
		return nil, collaborator.NewError(collaborator.CategoryInternal, c.name, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, collaborator.FromTransport(ctx, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, collaborator.FromTransport(ctx, c.name, err)
	}
	return parseResponse(c.name, resp.StatusCode, body)
}

func parseResponse(name string, status int, body []byte) ([]obligation.Record, error) {
	if status != http.StatusOK {
		return nil, collaborator.FromStatus(name, status)
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, collaborator.NewError(collaborator.CategoryBadData, name, "decode response", err)
	}
	for i, rec := range r.Records {
		if rec.Kind == "" || rec.MemberID == "" || rec.Ref == "" {
			return nil, collaborator.NewError(collaborator.CategoryBadData, name,
				fmt.Sprintf("record %d is missing its identity", i), nil)
		}
		r.Records[i] = rec.Normalize()
	}
	return r.Records, nil
}
