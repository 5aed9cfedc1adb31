// Package payment sends payment, renewal and notification commands to an
// HTTP gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"hayat/internal/agent/ports"
	"hayat/internal/collaborator"
)

const defaultTimeout = 15 * time.Second

type commandResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

// Gateway is a CommandPort backed by POST {baseURL}/commands/{kind}. A 402 or
// a body with success=false is a declined command, not an error.
type Gateway struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

func WithAPIKey(key string) Option {
	return func(g *Gateway) { g.apiKey = key }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(g *Gateway) {
		if hc != nil {
			g.http = hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gateway client for baseURL.
func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		name:    "command_gateway",
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Perform submits the command. Transport and server failures are returned as
// *collaborator.Error.
func (g *Gateway) Perform(ctx context.Context, kind string, params map[string]string) (ports.CommandResult, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return ports.CommandResult{}, collaborator.NewError(collaborator.CategoryInternal, g.name, "encode params", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/commands/"+url.PathEscape(kind), bytes.NewReader(payload))
	if err != nil {
		return ports.CommandResult{}, collaborator.NewError(collaborator.CategoryInternal, g.name, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return ports.CommandResult{}, collaborator.FromTransport(ctx, g.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.CommandResult{}, collaborator.FromTransport(ctx, g.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		var r commandResponse
		_ = json.Unmarshal(body, &r)
		g.logger.WarnContext(ctx, "command declined", "kind", kind, "reason", r.Reason)
		return ports.CommandResult{Success: false, Reference: r.Reference}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return ports.CommandResult{}, collaborator.FromStatus(g.name, resp.StatusCode)
	}

	var r commandResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return ports.CommandResult{}, collaborator.NewError(collaborator.CategoryBadData, g.name, "decode response", err)
	}
	if !r.Success {
		g.logger.WarnContext(ctx, "command declined", "kind", kind, "reason", r.Reason)
	}
	return ports.CommandResult{Success: r.Success, Reference: r.Reference}, nil
}
