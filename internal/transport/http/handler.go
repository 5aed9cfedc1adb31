// Package httptransport exposes the orchestrator and the household over HTTP.
// Handlers stay thin: they decode, delegate and encode.
package httptransport

import (
	"context"
	"log/slog"

	"hayat/internal/agent"
	"hayat/internal/family"
	"hayat/internal/orchestrator"
	"hayat/internal/trace"
)

// Orchestrator is the slice of the orchestrator the API serves.
type Orchestrator interface {
	WidgetStates(ctx context.Context) map[string]agent.WidgetState
	Decisions(ctx context.Context) []orchestrator.Decision
	ExecuteAction(ctx context.Context, actionID, agentID string) (bool, error)
	Explain(ctx context.Context, actionID, agentID string) (string, error)
	Traces(userID string) []trace.Entry
}

// Household manages the family structure.
type Household interface {
	FamilyStructure() (*family.Structure, bool)
	SetStructure(ctx context.Context, s *family.Structure) error
	AddMember(ctx context.Context, m family.Member) error
	UpdateMember(ctx context.Context, id string, u family.MemberUpdate) (family.Member, error)
}

// Handler serves the agent and household endpoints.
type Handler struct {
	orchestrator Orchestrator
	household    Household
	logger       *slog.Logger
}

func NewHandler(orch Orchestrator, household Household, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orchestrator: orch, household: household, logger: logger}
}
