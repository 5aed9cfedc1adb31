package agent

import (
	"fmt"

	dErrors "hayat/pkg/domain-errors"
)

// Error taxonomy shared by agents and the orchestrator. Match with errors.Is.
var (
	ErrActionNotFound          = dErrors.New(dErrors.CodeNotFound, "action not found")
	ErrAgentNotFound           = dErrors.New(dErrors.CodeNotFound, "agent not found")
	ErrCollaboratorUnavailable = dErrors.New(dErrors.CodeUnavailable, "collaborator unavailable")
)

func actionNotFound(agentID, actionID string) error {
	return fmt.Errorf("%w: %s/%s", ErrActionNotFound, agentID, actionID)
}

// AgentNotFound wraps ErrAgentNotFound with the requested id.
func AgentNotFound(agentID string) error {
	return fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
}

// CollaboratorUnavailable wraps a collaborator failure.
func CollaboratorUnavailable(agentID string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaboratorUnavailable, agentID, cause)
}

// ErrAgentClosed is returned by operations on an agent after Cleanup.
var ErrAgentClosed = dErrors.New(dErrors.CodeInvariantViolation, "agent is closed")
