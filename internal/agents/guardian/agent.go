// Package guardian implements the agent that owns the household structure
// and reports missing details the other agents depend on.
package guardian

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hayat/internal/agent"
	"hayat/internal/family"
	"hayat/internal/trace"
	dErrors "hayat/pkg/domain-errors"
	"hayat/pkg/requestcontext"
)

const (
	setupPriority      = 100
	sponsorIDPriority  = 90
	memberVisaPriority = 85
)

// Agent validates structural completeness and serves the household to the
// other agents. It has no external collaborator.
type Agent struct {
	*agent.Runtime
	domain *domain
}

type options struct {
	structure *family.Structure
	runtime   []agent.RuntimeOption
}

// Option configures the agent.
type Option func(*options)

// WithStructure starts the agent with a known household.
func WithStructure(s *family.Structure) Option {
	return func(o *options) {
		o.structure = s
	}
}

// WithRuntime passes options to the shared agent runtime.
func WithRuntime(opts ...agent.RuntimeOption) Option {
	return func(o *options) {
		o.runtime = append(o.runtime, opts...)
	}
}

// New creates the guardian.
func New(ledger agent.Ledger, opts ...Option) *Agent {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &domain{}
	if o.structure != nil {
		d.structure = o.structure.Clone()
	}
	rt := agent.NewRuntime(d, ledger, o.runtime...)
	return &Agent{Runtime: rt, domain: d}
}

// FamilyStructure returns a copy of the household, if one is set up.
func (a *Agent) FamilyStructure() (*family.Structure, bool) {
	a.domain.mu.RLock()
	defer a.domain.mu.RUnlock()
	if a.domain.structure == nil {
		return nil, false
	}
	return a.domain.structure.Clone(), true
}

// MemberIDs returns member ids in household order.
func (a *Agent) MemberIDs() []string {
	a.domain.mu.RLock()
	defer a.domain.mu.RUnlock()
	if a.domain.structure == nil {
		return nil
	}
	return a.domain.structure.MemberIDs()
}

// SetStructure replaces the household after validating it.
func (a *Agent) SetStructure(ctx context.Context, s *family.Structure) error {
	if s == nil {
		return dErrors.New(dErrors.CodeValidation, "family structure is required")
	}
	return a.domain.mutate(
		func(*family.Structure) (*family.Structure, error) {
			next := s.Clone()
			if err := next.Validate(); err != nil {
				return nil, err
			}
			return next, nil
		},
		func(next *family.Structure) error {
			_, err := a.RecordTrace(ctx, trace.ActionStructureUpdated, "Family structure was updated", next)
			return err
		},
	)
}

// AddMember adds a member to the household.
func (a *Agent) AddMember(ctx context.Context, m family.Member) error {
	var added family.Member
	return a.domain.mutate(
		func(current *family.Structure) (*family.Structure, error) {
			if current == nil {
				return nil, errNotSetUp
			}
			if err := current.AddMember(m, requestcontext.Now(ctx)); err != nil {
				return nil, err
			}
			added, _ = current.Member(m.ID)
			return current, nil
		},
		func(*family.Structure) error {
			_, err := a.RecordTrace(ctx, trace.ActionMemberAdded,
				fmt.Sprintf("Added %s to family structure", added.DisplayName()), added)
			return err
		},
	)
}

// UpdateMember applies u to the member with the given id.
func (a *Agent) UpdateMember(ctx context.Context, id string, u family.MemberUpdate) (family.Member, error) {
	var updated family.Member
	err := a.domain.mutate(
		func(current *family.Structure) (*family.Structure, error) {
			if current == nil {
				return nil, errNotSetUp
			}
			m, err := current.UpdateMember(id, u, requestcontext.Now(ctx))
			if err != nil {
				return nil, err
			}
			updated = m
			return current, nil
		},
		func(*family.Structure) error {
			_, err := a.RecordTrace(ctx, trace.ActionMemberUpdated,
				fmt.Sprintf("Updated %s's details", updated.DisplayName()), updated)
			return err
		},
	)
	if err != nil {
		return family.Member{}, err
	}
	return updated, nil
}

var errNotSetUp = dErrors.New(dErrors.CodeInvariantViolation, "family structure is not set up")

type domain struct {
	mu        sync.RWMutex
	writeMu   sync.Mutex
	structure *family.Structure
}

// mutate serializes household changes. change edits a copy of the current
// structure (nil when none is set up); the result replaces the household only
// after record succeeds.
func (d *domain) mutate(change func(current *family.Structure) (*family.Structure, error), record func(next *family.Structure) error) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.RLock()
	var current *family.Structure
	if d.structure != nil {
		current = d.structure.Clone()
	}
	d.mu.RUnlock()

	next, err := change(current)
	if err != nil {
		return err
	}
	if err := record(next); err != nil {
		return err
	}
	d.mu.Lock()
	d.structure = next
	d.mu.Unlock()
	return nil
}

func (d *domain) Descriptor() agent.Descriptor {
	return agent.Descriptor{
		ID:          agent.IDFamilyGuardian,
		Name:        "Family Guardian",
		Description: "Maintains family structure and coordinates all agents",
	}
}

func (d *domain) Load(context.Context) error {
	return nil
}

func (d *domain) Refresh(_ context.Context, _ time.Time) (agent.RefreshResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.structure == nil {
		return agent.RefreshResult{Status: agent.StatusAttentionNeeded}, nil
	}
	for _, m := range d.structure.Members {
		if missingDetail(m) {
			return agent.RefreshResult{Status: agent.StatusAttentionNeeded}, nil
		}
	}
	return agent.RefreshResult{Status: agent.StatusClear}, nil
}

func missingDetail(m family.Member) bool {
	if m.Role == family.RoleSponsor {
		return m.EmiratesID == ""
	}
	return m.VisaNumber == ""
}

func (d *domain) Candidates(context.Context, time.Time) ([]agent.Action, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.structure == nil {
		return []agent.Action{{
			Type:        agent.ActionNotification,
			Description: "Set up your family structure",
			Reason:      "Family structure is required for HAYAT to monitor your obligations",
			Priority:    setupPriority,
			Tag:         agent.TagStructureIncomplete,
		}}, nil
	}

	var actions []agent.Action
	for _, m := range d.structure.Members {
		if !missingDetail(m) {
			continue
		}
		a := agent.Action{
			Type:    agent.ActionNotification,
			Tag:     agent.TagStructureIncomplete,
			Subject: agent.Subject{MemberID: m.ID},
		}
		if m.Role == family.RoleSponsor {
			a.Description = fmt.Sprintf("Complete %s's Emirates ID information", m.DisplayName())
			a.Reason = "Sponsor Emirates ID is required for all government services"
			a.Priority = sponsorIDPriority
		} else {
			a.Description = fmt.Sprintf("Add visa information for %s", m.DisplayName())
			a.Reason = "Visa information is required to track residency status"
			a.Priority = memberVisaPriority
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Perform acknowledges a reminder. The fix itself arrives through
// AddMember or UpdateMember.
func (d *domain) Perform(context.Context, agent.Action) (agent.Outcome, error) {
	return agent.Outcome{Success: true}, nil
}

func (d *domain) Close(context.Context) error {
	return nil
}
