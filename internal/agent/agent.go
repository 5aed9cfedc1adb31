// Package agent defines the domain agent contract and the runtime that gives
// every concrete agent the same lifecycle, action state machine and tracing.
package agent

import (
	"context"

	"hayat/internal/trace"
)

// Agent is the contract the orchestrator drives.
type Agent interface {
	ID() string
	Name() string
	Description() string

	// Initialize loads caches and opens subscriptions. Idempotent.
	Initialize(ctx context.Context) error
	// Monitor refreshes facts and classifies status. On collaborator failure it
	// returns the last-known status with an error wrapping ErrCollaboratorUnavailable.
	Monitor(ctx context.Context) (Status, error)
	// Evaluate replaces the working set with freshly ranked actions.
	Evaluate(ctx context.Context) ([]Action, error)
	// Act executes a working-set action once. The error is ErrActionNotFound or nil.
	Act(ctx context.Context, actionID string) (bool, error)
	Explain(ctx context.Context, actionID string) (string, error)
	Trace(actionID string) (trace.Entry, bool)
	WidgetState(ctx context.Context) (WidgetState, error)
	// Degraded reports whether the agent is serving last-known data.
	Degraded() bool
	// Cleanup releases subscriptions after in-flight acts finish. Idempotent.
	Cleanup(ctx context.Context) error
}

// Ledger is the subset of the trace ledger the runtime writes to.
type Ledger interface {
	Append(ctx context.Context, rec trace.Record) (trace.Entry, error)
	Lookup(agentID, actionID string) (trace.Entry, bool)
}
