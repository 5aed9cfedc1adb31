package agent

import (
	"time"

	"hayat/internal/obligation"
	"hayat/internal/scoring"
)

// Status is an agent's monitoring classification.
type Status string

const (
	StatusClear            Status = "clear"
	StatusAttentionNeeded  Status = "attention_needed"
	StatusActionInProgress Status = "action_in_progress"
)

// Lifecycle tracks initialization.
type Lifecycle string

const (
	LifecycleUninitialized Lifecycle = "uninitialized"
	LifecycleReady         Lifecycle = "ready"
	LifecycleClosed        Lifecycle = "closed"
)

// ActionType is the kind of work an action performs.
type ActionType string

const (
	ActionNotification        ActionType = "notification"
	ActionWorkflowPreparation ActionType = "workflow_preparation"
	ActionPaymentInitiation   ActionType = "payment_initiation"
	ActionRenewalStart        ActionType = "renewal_start"
)

// ActionStatus moves monotonically pending -> in_progress -> completed|failed.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s ActionStatus) Terminal() bool {
	return s == ActionCompleted || s == ActionFailed
}

// TagStructureIncomplete marks guardian findings about missing household data.
const TagStructureIncomplete = "structure_incomplete"

// Subject is the typed back-reference from an action to the fact it was
// generated from. Kind is empty for findings that are not obligations.
type Subject struct {
	Kind     obligation.Kind `json:"kind,omitempty"`
	MemberID string          `json:"member_id,omitempty"`
	Ref      string          `json:"ref,omitempty"`
	DueAt    time.Time       `json:"due_at,omitempty"`
}

// Key returns the obligation key the subject points at.
func (s Subject) Key() obligation.Key {
	return obligation.Key{Kind: s.Kind, MemberID: s.MemberID, Ref: s.Ref}
}

// SubjectOf builds the subject for an obligation record.
func SubjectOf(r obligation.Record) Subject {
	return Subject{Kind: r.Kind, MemberID: r.MemberID, Ref: r.Ref, DueAt: r.DueAt}
}

// Action is a proposed or executed step. Actions are created fresh on every
// Evaluate, except that an action still being acted on keeps its id across
// cycles. The id is meaningful within the working set and in any trace
// recorded against it.
type Action struct {
	ID          string             `json:"id"`
	AgentID     string             `json:"agent_id"`
	Type        ActionType         `json:"type"`
	Description string             `json:"description"`
	Reason      string             `json:"reason"`
	Priority    int                `json:"priority"`
	Status      ActionStatus       `json:"status"`
	Escalation  scoring.Escalation `json:"escalation,omitempty"`
	Tag         string             `json:"tag,omitempty"`
	Subject     Subject            `json:"subject"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Outcome is the result of performing an action's side effect.
type Outcome struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
}

// WidgetState is the derived summary shown per agent.
type WidgetState struct {
	AgentID     string          `json:"agent_id"`
	AgentName   string          `json:"agent_name"`
	Status      Status          `json:"status"`
	Message     string          `json:"message,omitempty"`
	Countdown   *int64          `json:"countdown,omitempty"`
	Urgency     scoring.Urgency `json:"urgency"`
	Degraded    bool            `json:"degraded"`
	LastUpdated time.Time       `json:"last_updated"`
	Actions     []Action        `json:"actions"`
}

// Descriptor identifies an agent.
type Descriptor struct {
	ID          string
	Name        string
	Description string
}

// Well-known agent ids.
const (
	IDFamilyGuardian = "family_guardian"
	IDResidency      = "residency_identity"
	IDCompliance     = "compliance_sentinel"
	IDWellBeing      = "wellbeing"
)
