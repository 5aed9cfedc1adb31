package seed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"hayat/internal/agent/ports"
)

// Command is one request accepted by Commands.
type Command struct {
	Kind      string
	Params    map[string]string
	Reference string
}

// Commands accepts every command and remembers it. It stands in for the
// payment and renewal gateways when none are configured.
type Commands struct {
	logger *slog.Logger

	mu      sync.Mutex
	history []Command
}

// NewCommands creates an accepting command port.
func NewCommands(logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{logger: logger}
}

// Perform records the command and reports success with a fresh reference.
func (c *Commands) Perform(ctx context.Context, kind string, params map[string]string) (ports.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.CommandResult{}, err
	}
	ref := uuid.NewString()
	c.mu.Lock()
	c.history = append(c.history, Command{Kind: kind, Params: params, Reference: ref})
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "command accepted", "kind", kind, "reference", ref)
	return ports.CommandResult{Success: true, Reference: ref}, nil
}

// History returns the accepted commands in order.
func (c *Commands) History() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Command, len(c.history))
	copy(out, c.history)
	return out
}
