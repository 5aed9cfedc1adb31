// Package residency implements the agent that watches visa and Emirates ID
// expiry for every household member.
package residency

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
	// attentionDays is how close an expiry has to be before the agent asks
	// for attention.
	attentionDays = 30
	horizonDays   = 90
	urgentDays    = 7
)

// Agent tracks residency documents.
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

// WithCommands routes renewals and reminders through an external command port.
// Without one, renewals are recorded locally.
func WithCommands(c ports.CommandPort) Option {
	return func(o *options) {
		o.commands = c
	}
}

// WithSubscription ingests pushed document updates between monitor cycles.
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

// New creates the residency agent.
func New(feed ports.FeedPort, household ports.FamilyStructureProvider, ledger agent.Ledger, opts ...Option) *Agent {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &domain{
		tracker:      agent.NewTracker(feed, household, obligation.KindVisa, obligation.KindEmiratesID),
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
		ID:          agent.IDResidency,
		Name:        "Residency & Identity",
		Description: "Monitors visa and Emirates ID expiry, tracks grace periods",
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
		if rec.Outstanding() && rec.DaysUntilDue(now) <= attentionDays {
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
		days := rec.DaysUntilDue(now)
		if days > horizonDays {
			continue
		}
		member, _ := d.tracker.Member(rec.MemberID)
		assessment := scoring.Score(rec.Kind, days, member.Role, true)

		var a agent.Action
		switch rec.Kind {
		case obligation.KindVisa:
			a = visaAction(member, days)
		case obligation.KindEmiratesID:
			a = emiratesIDAction(member, days)
		default:
			continue
		}
		a.Priority = assessment.Priority
		a.Subject = agent.SubjectOf(rec)
		actions = append(actions, a)
	}
	return actions, nil
}

func visaAction(member family.Member, days int) agent.Action {
	name := member.DisplayName()
	a := agent.Action{
		Type:   agent.ActionWorkflowPreparation,
		Reason: visaConsequence(member.Residency.OrDefault(), days),
	}
	switch {
	case days < 0:
		a.Description = fmt.Sprintf("%s's visa expired %s ago", name, agent.Days(-days))
	case days <= attentionDays:
		a.Description = fmt.Sprintf("%s's visa expires in %s", name, agent.Days(days))
	default:
		a.Description = fmt.Sprintf("Prepare renewal for %s's visa (expires in %s)", name, agent.Days(days))
	}
	if days <= urgentDays {
		a.Type = agent.ActionRenewalStart
	}
	return a
}

func visaConsequence(residency family.ResidencyType, days int) string {
	switch {
	case days < 0:
		switch residency {
		case family.ResidencyTourist:
			return "Overstaying as a tourist can result in fines and future entry bans. Immediate action required."
		case family.ResidencyDomesticWorker:
			return "Overstaying can result in fines and affect your employment status. Contact your sponsor immediately."
		default:
			return "Overstaying your visa can result in fines, legal issues, and affect future residency applications. You may have a grace period, but immediate action is required."
		}
	case days <= urgentDays:
		if residency == family.ResidencySkilledExpat {
			return fmt.Sprintf("Your visa expires in %s. You may have a grace period after expiry, but renewal should be initiated now.", agent.Days(days))
		}
		return fmt.Sprintf("Your visa expires in %s. Renewal must be completed before expiry.", agent.Days(days))
	case days <= attentionDays:
		return fmt.Sprintf("Your visa expires in %s. Start renewal now to avoid last-minute complications.", agent.Days(days))
	default:
		return fmt.Sprintf("Your visa expires in %s. Early preparation allows for a smooth renewal.", agent.Days(days))
	}
}

func emiratesIDAction(member family.Member, days int) agent.Action {
	name := member.DisplayName()
	switch {
	case days < 0:
		return agent.Action{
			Type:        agent.ActionRenewalStart,
			Description: fmt.Sprintf("%s's Emirates ID expired %s ago", name, agent.Days(-days)),
			Reason:      "Expired Emirates ID restricts access to government services and banking. Immediate action is required.",
		}
	case days <= attentionDays:
		return agent.Action{
			Type:        agent.ActionRenewalStart,
			Description: fmt.Sprintf("%s's Emirates ID expires in %s", name, agent.Days(days)),
			Reason:      "Renewal should be completed before expiry to avoid service disruptions. Start now to avoid last-minute complications.",
		}
	default:
		return agent.Action{
			Type:        agent.ActionWorkflowPreparation,
			Description: fmt.Sprintf("Prepare renewal for %s's Emirates ID (expires in %s)", name, agent.Days(days)),
			Reason:      "Early preparation ensures a smooth renewal process.",
		}
	}
}

func (d *domain) Perform(ctx context.Context, a agent.Action) (agent.Outcome, error) {
	key := a.Subject.Key()
	if _, ok := d.tracker.Get(key); !ok {
		return agent.Outcome{}, dErrors.New(dErrors.CodeNotFound, "document is no longer tracked")
	}
	params := map[string]string{
		"kind":      string(key.Kind),
		"member_id": key.MemberID,
		"ref":       key.Ref,
	}

	if a.Type != agent.ActionRenewalStart {
		if d.commands == nil {
			return agent.Outcome{Success: true}, nil
		}
		return perform(ctx, d.commands, ports.CommandNotification, params)
	}

	outcome := agent.Outcome{Success: true}
	if d.commands != nil {
		var err error
		outcome, err = perform(ctx, d.commands, ports.CommandRenewal, params)
		if err != nil || !outcome.Success {
			return outcome, err
		}
	}
	d.tracker.Settle(key, func(r *obligation.Record) { r.RenewalInProgress = true })
	return outcome, nil
}

func perform(ctx context.Context, commands ports.CommandPort, kind string, params map[string]string) (agent.Outcome, error) {
	res, err := commands.Perform(ctx, kind, params)
	if err != nil {
		return agent.Outcome{}, agent.CollaboratorUnavailable(agent.IDResidency, err)
	}
	return agent.Outcome{Success: res.Success, Reference: res.Reference}, nil
}

func (d *domain) Close(context.Context) error {
	d.tracker.Unsubscribe()
	return nil
}
