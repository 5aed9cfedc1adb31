// Package compliance implements the agent that watches parking fines and
// their discount windows.
package compliance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hayat/internal/agent"
	"hayat/internal/agent/ports"
	"hayat/internal/obligation"
	"hayat/internal/scoring"
	dErrors "hayat/pkg/domain-errors"
)

// attentionHours is how close the end of a discount window has to be before
// the agent asks for attention. Expired windows always do.
const attentionHours = 12

// Agent tracks fines and pays them through the payment gateway.
type Agent struct {
	*agent.Runtime
	domain *domain
}

type options struct {
	subscription ports.SubscriptionPort
	runtime      []agent.RuntimeOption
}

// Option configures the agent.
type Option func(*options)

// WithSubscription ingests newly issued fines between monitor cycles.
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

// New creates the compliance agent. payments performs fine payments.
func New(feed ports.FeedPort, household ports.FamilyStructureProvider, payments ports.CommandPort, ledger agent.Ledger, opts ...Option) *Agent {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &domain{
		tracker:      agent.NewTracker(feed, household, obligation.KindParkingFine),
		payments:     payments,
		subscription: o.subscription,
	}
	rt := agent.NewRuntime(d, ledger, o.runtime...)
	d.runtime = rt
	return &Agent{Runtime: rt, domain: d}
}

type domain struct {
	tracker      *agent.Tracker
	payments     ports.CommandPort
	subscription ports.SubscriptionPort
	runtime      *agent.Runtime
}

func (d *domain) Descriptor() agent.Descriptor {
	return agent.Descriptor{
		ID:          agent.IDCompliance,
		Name:        "Compliance Sentinel",
		Description: "Monitors parking fines and ensures timely payment",
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
		if rec.Outstanding() && (rec.Overdue(now) || rec.HoursUntilDue(now) <= attentionHours) {
			status = agent.StatusAttentionNeeded
			break
		}
	}
	return agent.RefreshResult{Status: status, Superseded: sups}, nil
}

// Candidates recomputes the escalation of every unpaid fine from the time
// left in its discount window.
func (d *domain) Candidates(_ context.Context, now time.Time) ([]agent.Action, error) {
	var actions []agent.Action
	for _, rec := range d.tracker.Records() {
		if !rec.Outstanding() {
			continue
		}
		hours := rec.HoursUntilDue(now)
		expired := rec.Overdue(now)
		assessment := scoring.ScoreFine(hours, expired)
		emirate, amount := fineDetails(rec)

		window := "(discount expired)"
		if !expired {
			window = fmt.Sprintf("(%dh discount window)", hours)
		}
		actions = append(actions, agent.Action{
			Type:        agent.ActionPaymentInitiation,
			Description: fmt.Sprintf("%s parking fine: %s %s", emirate, agent.AED(amount), window),
			Reason:      escalationMessage(assessment.Escalation, emirate, amount),
			Priority:    assessment.Priority,
			Escalation:  assessment.Escalation,
			Subject:     agent.SubjectOf(rec),
		})
	}
	return actions, nil
}

func fineDetails(rec obligation.Record) (string, float64) {
	if rec.Fine == nil {
		return rec.Agency, 0
	}
	return rec.Fine.Emirate, rec.Fine.Amount
}

func escalationMessage(level scoring.Escalation, emirate string, amount float64) string {
	switch level {
	case scoring.EscalationFormal:
		return fmt.Sprintf("The discount window for your parking fine has expired. The full amount of %s is now due. Please pay immediately to avoid additional penalties.", agent.AED(amount))
	case scoring.EscalationUrgent:
		return fmt.Sprintf("Your parking fine discount window is closing soon. Pay now to avoid the full fine amount. The fine is %s in %s.", agent.AED(amount), emirate)
	default:
		return fmt.Sprintf("You have a parking fine in %s. Pay within the discount window to save money. The fine amount is %s, but you can pay a discounted amount if you act soon.", emirate, agent.AED(amount))
	}
}

func (d *domain) Perform(ctx context.Context, a agent.Action) (agent.Outcome, error) {
	key := a.Subject.Key()
	rec, ok := d.tracker.Get(key)
	if !ok {
		return agent.Outcome{}, dErrors.New(dErrors.CodeNotFound, "fine is no longer tracked")
	}
	if d.payments == nil {
		return agent.Outcome{}, dErrors.New(dErrors.CodeUnavailable, "no payment gateway configured")
	}
	emirate, amount := fineDetails(rec)
	res, err := d.payments.Perform(ctx, ports.CommandPayment, map[string]string{
		"fine_id":     rec.Ref,
		"member_id":   rec.MemberID,
		"amount":      strconv.FormatFloat(amount, 'f', -1, 64),
		"description": "Parking fine - " + emirate,
	})
	if err != nil {
		return agent.Outcome{}, agent.CollaboratorUnavailable(agent.IDCompliance, err)
	}
	if !res.Success {
		return agent.Outcome{Reference: res.Reference}, nil
	}
	d.tracker.Settle(key, func(r *obligation.Record) { r.Completed = true })
	return agent.Outcome{Success: true, Reference: res.Reference}, nil
}

func (d *domain) Close(context.Context) error {
	d.tracker.Unsubscribe()
	return nil
}
