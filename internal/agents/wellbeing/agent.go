// Package wellbeing implements the agent that watches vaccinations, medical
// fitness tests and health insurance.
package wellbeing

import (
	"context"
	"fmt"
	"time"

	"hayat/internal/agent"
	"hayat/internal/agent/ports"
	"hayat/internal/family"
	"hayat/internal/obligation"
	"hayat/internal/scoring"
	dErrors "hayat/pkg/domain-errors"
)

const (
	attentionDays = 30
	horizonDays   = 90
	urgentDays    = 7

	invalidInsurancePriority = 95
)

// Agent tracks health obligations. Ranking across kinds is left to the
// shared scorer.
type Agent struct {
	*agent.Runtime
	domain *domain
}

type options struct {
	commands     ports.CommandPort
	subscription ports.SubscriptionPort
	runtime      []agent.RuntimeOption
}

// Option configures the agent.
type Option func(*options)

// WithCommands routes reminders and renewals through an external command port.
func WithCommands(c ports.CommandPort) Option {
	return func(o *options) {
		o.commands = c
	}
}

// WithSubscription ingests pushed health records between monitor cycles.
func WithSubscription(s ports.SubscriptionPort) Option {
	return func(o *options) {
		o.subscription = s
	}
}

// WithRuntime passes options to the shared agent runtime.
func WithRuntime(opts ...agent.RuntimeOption) Option {
	return func(o *options) {
		o.runtime = append(o.runtime, opts...)
	}
}

// New creates the well-being agent.
func New(feed ports.FeedPort, household ports.FamilyStructureProvider, ledger agent.Ledger, opts ...Option) *Agent {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &domain{
		tracker: agent.NewTracker(feed, household,
			obligation.KindVaccination, obligation.KindMedicalFitness, obligation.KindInsurance),
		commands:     o.commands,
		subscription: o.subscription,
	}
	rt := agent.NewRuntime(d, ledger, o.runtime...)
	d.runtime = rt
	return &Agent{Runtime: rt, domain: d}
}

type domain struct {
	tracker      *agent.Tracker
	commands     ports.CommandPort
	subscription ports.SubscriptionPort
	runtime      *agent.Runtime
}

func (d *domain) Descriptor() agent.Descriptor {
	return agent.Descriptor{
		ID:          agent.IDWellBeing,
		Name:        "Family Well-Being",
		Description: "Monitors vaccinations, medical fitness, and insurance",
	}
}

func (d *domain) Load(ctx context.Context) error {
	d.tracker.Subscribe(d.subscription, func(sup obligation.Supersession) {
		d.runtime.RecordSupersessions(context.Background(), []obligation.Supersession{sup})
	})
	sups, err := d.tracker.Sync(ctx)
	if err != nil {
		return err
	}
	d.runtime.RecordSupersessions(ctx, sups)
	return nil
}

func (d *domain) Refresh(ctx context.Context, now time.Time) (agent.RefreshResult, error) {
	sups, err := d.tracker.Sync(ctx)
	if err != nil {
		return agent.RefreshResult{}, err
	}
	status := agent.StatusClear
	for _, rec := range d.tracker.Records() {
		if !rec.Outstanding() {
			continue
		}
		if rec.Invalid || rec.DaysUntilDue(now) <= attentionDays {
			status = agent.StatusAttentionNeeded
			break
		}
	}
	return agent.RefreshResult{Status: status, Superseded: sups}, nil
}

func (d *domain) Candidates(_ context.Context, now time.Time) ([]agent.Action, error) {
	var actions []agent.Action
	for _, rec := range d.tracker.Records() {
		if !rec.Outstanding() {
			continue
		}
		member, ok := d.tracker.Member(rec.MemberID)
		if !ok {
			continue
		}
		if rec.Kind == obligation.KindInsurance && rec.Invalid {
			actions = append(actions, agent.Action{
				Type:        agent.ActionNotification,
				Description: fmt.Sprintf("%s - Insurance is invalid", member.DisplayName()),
				Reason:      "Invalid insurance can affect visa renewal and access to healthcare. Immediate action required.",
				Priority:    invalidInsurancePriority,
				Subject:     agent.SubjectOf(rec),
			})
			continue
		}

		days := rec.DaysUntilDue(now)
		if days > horizonDays {
			continue
		}
		a, ok := healthAction(rec, member, days)
		if !ok {
			continue
		}
		a.Priority = scoring.Score(rec.Kind, days, member.Role, mandatory(rec)).Priority
		a.Subject = agent.SubjectOf(rec)
		actions = append(actions, a)
	}
	return actions, nil
}

// mandatory reports whether the law requires the obligation. Medical fitness
// tests and insurance are always required for residency; vaccinations carry
// their own flag.
func mandatory(rec obligation.Record) bool {
	if rec.Kind == obligation.KindVaccination {
		return rec.Mandatory
	}
	return true
}

func healthAction(rec obligation.Record, member family.Member, days int) (agent.Action, bool) {
	name := member.DisplayName()
	switch rec.Kind {
	case obligation.KindVaccination:
		return agent.Action{
			Type:        agent.ActionNotification,
			Description: fmt.Sprintf("%s - %s %s", name, rec.DisplayLabel(), duePhrase("due", days)),
			Reason:      vaccinationConsequence(member.Role, days),
		}, true
	case obligation.KindMedicalFitness:
		return agent.Action{
			Type:        agent.ActionRenewalStart,
			Description: fmt.Sprintf("%s - %s %s", name, rec.DisplayLabel(), duePhrase("expires", days)),
			Reason:      "Medical fitness test expiry can affect residency status. " + timing(days),
		}, true
	case obligation.KindInsurance:
		return agent.Action{
			Type:        agent.ActionRenewalStart,
			Description: fmt.Sprintf("%s - Insurance %s", name, duePhrase("expires", days)),
			Reason:      "Insurance renewal is required for visa maintenance. " + timing(days),
		}, true
	}
	return agent.Action{}, false
}

func duePhrase(verb string, days int) string {
	switch {
	case days < 0:
		return "overdue by " + agent.Days(-days)
	case days == 0:
		return verb + " today"
	default:
		return verb + " in " + agent.Days(days)
	}
}

func timing(days int) string {
	switch {
	case days < 0:
		return "It is overdue. Immediate action required."
	case days <= urgentDays:
		return "It is due within a week. Act now."
	case days <= attentionDays:
		return "Start now to avoid last-minute complications."
	default:
		return "Early preparation keeps the renewal smooth."
	}
}

func vaccinationConsequence(role family.Role, days int) string {
	subject := "your family"
	if role == family.RoleChild {
		subject = "children"
	}
	switch {
	case days < 0:
		return fmt.Sprintf("Overdue vaccination can affect school enrollment and residency status for %s. Immediate action required.", subject)
	case days <= urgentDays:
		return "Vaccination is due soon. Missing mandatory vaccinations can result in school enrollment issues and affect residency status."
	case days <= attentionDays:
		return "Vaccination is due this month. Book the appointment now to avoid last-minute complications."
	default:
		return "Upcoming vaccination requirement. Early scheduling ensures compliance and avoids last-minute issues."
	}
}

func (d *domain) Perform(ctx context.Context, a agent.Action) (agent.Outcome, error) {
	key := a.Subject.Key()
	if _, ok := d.tracker.Get(key); !ok {
		return agent.Outcome{}, dErrors.New(dErrors.CodeNotFound, "health record is no longer tracked")
	}
	command := ports.CommandNotification
	if a.Type == agent.ActionRenewalStart {
		command = ports.CommandRenewal
	}

	outcome := agent.Outcome{Success: true}
	if d.commands != nil {
		res, err := d.commands.Perform(ctx, command, map[string]string{
			"kind":      string(key.Kind),
			"member_id": key.MemberID,
			"ref":       key.Ref,
		})
		if err != nil {
			return agent.Outcome{}, agent.CollaboratorUnavailable(agent.IDWellBeing, err)
		}
		outcome = agent.Outcome{Success: res.Success, Reference: res.Reference}
	}
	if outcome.Success && a.Type == agent.ActionRenewalStart {
		d.tracker.Settle(key, func(r *obligation.Record) { r.RenewalInProgress = true })
	}
	return outcome, nil
}

func (d *domain) Close(context.Context) error {
	d.tracker.Unsubscribe()
	return nil
}
