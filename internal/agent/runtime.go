package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hayat/internal/agent/metrics"
	"hayat/internal/obligation"
	"hayat/internal/scoring"
	"hayat/internal/trace"
	"hayat/pkg/requestcontext"
)

const (
	widgetActionLimit     = 3
	noExplanation         = "no explanation available"
	attentionNeededNotice = "Attention needed"
)

var tracer = otel.Tracer("hayat/internal/agent")

// RefreshResult is what a domain reports after reloading its facts.
type RefreshResult struct {
	Status     Status
	Superseded []obligation.Supersession
}

// Domain is the domain-specific half of an agent. The Runtime owns the
// lifecycle, the working set and the trace discipline; the Domain owns the
// facts and knows how to turn them into actions and side effects.
type Domain interface {
	Descriptor() Descriptor
	// Load performs the initial fetch and opens subscriptions.
	Load(ctx context.Context) error
	Refresh(ctx context.Context, now time.Time) (RefreshResult, error)
	// Candidates builds unranked actions from cached facts. The runtime
	// assigns ids, status and timestamps.
	Candidates(ctx context.Context, now time.Time) ([]Action, error)
	Perform(ctx context.Context, action Action) (Outcome, error)
	// Close releases subscriptions.
	Close(ctx context.Context) error
}

type actionState struct {
	action  Action
	claimed bool
}

// Runtime implements Agent on top of a Domain.
type Runtime struct {
	domain Domain
	desc   Descriptor
	ledger Ledger

	logger  *slog.Logger
	metrics *metrics.Metrics

	refreshMu sync.Mutex

	mu         sync.RWMutex
	lifecycle  Lifecycle
	loaded     bool
	degraded   bool
	lastStatus Status
	working    map[string]*actionState
	inflight   sync.WaitGroup
	acting     int
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) RuntimeOption {
	return func(r *Runtime) {
		r.metrics = m
	}
}

// NewRuntime wires a domain to the shared ledger.
func NewRuntime(domain Domain, ledger Ledger, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		domain:     domain,
		desc:       domain.Descriptor(),
		ledger:     ledger,
		logger:     slog.Default(),
		lifecycle:  LifecycleUninitialized,
		lastStatus: StatusClear,
		working:    make(map[string]*actionState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) ID() string          { return r.desc.ID }
func (r *Runtime) Name() string        { return r.desc.Name }
func (r *Runtime) Description() string { return r.desc.Description }

// Lifecycle returns the current lifecycle state.
func (r *Runtime) Lifecycle() Lifecycle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lifecycle
}

// Degraded reports whether the last refresh failed.
func (r *Runtime) Degraded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded
}

// Initialize loads the domain once. A failed load leaves the agent ready but
// degraded and clear; a later call retries.
func (r *Runtime) Initialize(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	r.mu.Lock()
	switch {
	case r.lifecycle == LifecycleClosed:
		r.mu.Unlock()
		return ErrAgentClosed
	case r.loaded:
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	err := r.domain.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lifecycle == LifecycleClosed {
		return ErrAgentClosed
	}
	r.lifecycle = LifecycleReady
	if err != nil {
		r.degraded = true
		r.logger.ErrorContext(ctx, "agent initialization failed",
			"agent_id", r.desc.ID,
			"error", err,
		)
		return CollaboratorUnavailable(r.desc.ID, err)
	}
	r.loaded = true
	r.degraded = false
	r.logger.InfoContext(ctx, "agent initialized", "agent_id", r.desc.ID)
	return nil
}

func (r *Runtime) ensureInitialized(ctx context.Context) error {
	switch r.Lifecycle() {
	case LifecycleClosed:
		return ErrAgentClosed
	case LifecycleUninitialized:
		if err := r.Initialize(ctx); errors.Is(err, ErrAgentClosed) {
			return err
		}
	}
	return nil
}

// Monitor refreshes the domain facts and classifies the agent.
func (r *Runtime) Monitor(ctx context.Context) (Status, error) {
	ctx, span := tracer.Start(ctx, "agent.monitor")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", r.desc.ID))

	if err := r.ensureInitialized(ctx); err != nil {
		return r.lastKnownStatus(), err
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	start := time.Now()
	res, err := r.domain.Refresh(ctx, requestcontext.Now(ctx))
	r.metrics.ObserveMonitor(r.desc.ID, time.Since(start))
	if err != nil {
		r.metrics.IncMonitorFailure(r.desc.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		r.mu.Lock()
		r.degraded = true
		status := r.lastStatus
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "agent serving last-known status",
			"agent_id", r.desc.ID,
			"status", status,
			"error", err,
		)
		return status, CollaboratorUnavailable(r.desc.ID, err)
	}

	r.RecordSupersessions(ctx, res.Superseded)

	r.mu.Lock()
	defer r.mu.Unlock()
	status := res.Status
	if r.acting > 0 || r.hasInProgressLocked() {
		status = StatusActionInProgress
	}
	r.lastStatus = status
	r.degraded = false
	span.SetAttributes(attribute.String("agent.status", string(status)))
	return status, nil
}

func (r *Runtime) lastKnownStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastStatus
}

func (r *Runtime) hasInProgressLocked() bool {
	for _, st := range r.working {
		if st.action.Status == ActionInProgress {
			return true
		}
	}
	return false
}

type subjectKey struct {
	typ ActionType
	key obligation.Key
}

// subjectKeyOf identifies the fact an action works on. Actions without a
// subject get the zero key and are never matched.
func subjectKeyOf(a Action) subjectKey {
	key := a.Subject.Key()
	if key.MemberID == "" && key.Ref == "" {
		return subjectKey{}
	}
	return subjectKey{typ: a.Type, key: key}
}

// inflightBySubjectLocked indexes claimed actions whose side effect has not
// settled yet.
func (r *Runtime) inflightBySubjectLocked() map[subjectKey]*actionState {
	out := make(map[subjectKey]*actionState)
	for _, st := range r.working {
		if !st.claimed || st.action.Status.Terminal() {
			continue
		}
		if k := subjectKeyOf(st.action); k != (subjectKey{}) {
			out[k] = st
		}
	}
	return out
}

// Evaluate builds a fresh working set ranked by descending priority. A
// candidate for a fact whose action is still being acted on is replaced by
// that action, so the side effect cannot be started twice under a new id.
func (r *Runtime) Evaluate(ctx context.Context) ([]Action, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	candidates, err := r.domain.Candidates(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", r.desc.ID, err)
	}

	for i := range candidates {
		a := &candidates[i]
		a.ID = uuid.NewString()
		a.AgentID = r.desc.ID
		a.Status = ActionPending
		a.CreatedAt = now
		if a.Reason == "" {
			a.Reason = a.Description
		}
	}

	r.mu.Lock()
	inflight := r.inflightBySubjectLocked()
	working := make(map[string]*actionState, len(candidates))
	for i := range candidates {
		if st, ok := inflight[subjectKeyOf(candidates[i])]; ok {
			candidates[i] = st.action
			working[st.action.ID] = st
			continue
		}
		working[candidates[i].ID] = &actionState{action: candidates[i]}
	}
	r.working = working
	r.mu.Unlock()

	scoring.Prioritize(candidates, func(a Action) int { return a.Priority })

	out := make([]Action, len(candidates))
	copy(out, candidates)
	return out, nil
}

// Act executes a working-set action at most once. The trace is committed
// before the side effect starts; if it cannot be committed the action stays
// pending and nothing is performed.
func (r *Runtime) Act(ctx context.Context, actionID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "agent.act")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.id", r.desc.ID),
		attribute.String("action.id", actionID),
	)

	r.mu.Lock()
	st, ok := r.working[actionID]
	if !ok {
		r.mu.Unlock()
		return false, actionNotFound(r.desc.ID, actionID)
	}
	if r.lifecycle == LifecycleClosed {
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "act rejected on closed agent",
			"agent_id", r.desc.ID,
			"action_id", actionID,
		)
		return false, nil
	}
	if st.claimed {
		status := st.action.Status
		r.mu.Unlock()
		r.metrics.IncAct(r.desc.ID, "duplicate")
		return status == ActionCompleted, nil
	}
	st.claimed = true
	snapshot := st.action
	r.inflight.Add(1)
	r.acting++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.acting--
		r.mu.Unlock()
		r.inflight.Done()
	}()

	_, err := r.ledger.Append(ctx, trace.Record{
		AgentID:   r.desc.ID,
		ActionID:  snapshot.ID,
		Action:    string(snapshot.Type),
		Reasoning: snapshot.Reason,
		Context:   snapshot,
	})
	if err != nil {
		r.mu.Lock()
		st.claimed = false
		r.mu.Unlock()
		r.metrics.IncAct(r.desc.ID, "trace_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "trace append failed")
		r.logger.ErrorContext(ctx, "action not started: trace append failed",
			"agent_id", r.desc.ID,
			"action_id", actionID,
			"error", err,
		)
		return false, nil
	}

	r.transition(st, ActionInProgress)
	snapshot.Status = ActionInProgress

	// The side effect is not interrupted by caller cancellation.
	outcome, err := r.domain.Perform(context.WithoutCancel(ctx), snapshot)
	if err != nil || !outcome.Success {
		r.transition(st, ActionFailed)
		r.metrics.IncAct(r.desc.ID, "failed")
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "action failed")
		r.logger.WarnContext(ctx, "action failed",
			"agent_id", r.desc.ID,
			"action_id", actionID,
			"action_type", snapshot.Type,
			"error", err,
		)
		return false, nil
	}

	r.transition(st, ActionCompleted)
	r.metrics.IncAct(r.desc.ID, "completed")
	r.logger.InfoContext(ctx, "action completed",
		"agent_id", r.desc.ID,
		"action_id", actionID,
		"action_type", snapshot.Type,
		"reference", outcome.Reference,
	)
	return true, nil
}

func (r *Runtime) transition(st *actionState, to ActionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.action.Status.Terminal() {
		return
	}
	st.action.Status = to
}

// Explain prefers the committed trace, then the stored reason.
func (r *Runtime) Explain(_ context.Context, actionID string) (string, error) {
	if entry, ok := r.ledger.Lookup(r.desc.ID, actionID); ok {
		return trace.Explain(entry), nil
	}
	r.mu.RLock()
	st, ok := r.working[actionID]
	r.mu.RUnlock()
	if !ok {
		return "", actionNotFound(r.desc.ID, actionID)
	}
	if st.action.Reason != "" {
		return st.action.Reason, nil
	}
	return noExplanation, nil
}

// Trace returns the ledger entry committed for an action.
func (r *Runtime) Trace(actionID string) (trace.Entry, bool) {
	return r.ledger.Lookup(r.desc.ID, actionID)
}

// Action returns the current state of a working-set action.
func (r *Runtime) Action(actionID string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.working[actionID]
	if !ok {
		return Action{}, false
	}
	return st.action, true
}

// WidgetState composes Monitor and Evaluate. A collaborator outage is shown
// as degraded, not returned.
func (r *Runtime) WidgetState(ctx context.Context) (WidgetState, error) {
	status, err := r.Monitor(ctx)
	if err != nil && !errors.Is(err, ErrCollaboratorUnavailable) {
		return WidgetState{}, err
	}
	actions, err := r.Evaluate(ctx)
	if err != nil {
		return WidgetState{}, err
	}

	now := requestcontext.Now(ctx)
	top := actions
	if len(top) > widgetActionLimit {
		top = top[:widgetActionLimit]
	}
	ws := WidgetState{
		AgentID:     r.desc.ID,
		AgentName:   r.desc.Name,
		Status:      status,
		Urgency:     scoring.UrgencyLow,
		Degraded:    r.Degraded(),
		LastUpdated: now,
		Actions:     top,
	}
	if status == StatusClear {
		return ws, nil
	}
	if len(actions) == 0 {
		ws.Message = attentionNeededNotice
		return ws, nil
	}
	lead := actions[0]
	ws.Message = lead.Description
	ws.Urgency = scoring.TierForPriority(lead.Priority)
	if due := lead.Subject.DueAt; !due.IsZero() && due.After(now) {
		seconds := int64(due.Sub(now) / time.Second)
		ws.Countdown = &seconds
	}
	return ws, nil
}

// Cleanup waits for in-flight acts, then releases the domain's
// subscriptions. Later calls are no-ops.
func (r *Runtime) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	if r.lifecycle == LifecycleClosed {
		r.mu.Unlock()
		return nil
	}
	r.lifecycle = LifecycleClosed
	r.mu.Unlock()

	r.inflight.Wait()
	if err := r.domain.Close(ctx); err != nil {
		return fmt.Errorf("cleanup %s: %w", r.desc.ID, err)
	}
	r.logger.InfoContext(ctx, "agent cleaned up", "agent_id", r.desc.ID)
	return nil
}

// RecordTrace appends a decision that is not tied to a working-set action,
// such as a household change.
func (r *Runtime) RecordTrace(ctx context.Context, action, reasoning string, data any) (trace.Entry, error) {
	return r.ledger.Append(ctx, trace.Record{
		AgentID:   r.desc.ID,
		Action:    action,
		Reasoning: reasoning,
		Context:   data,
	})
}

// RecordSupersessions carries replaced records forward into the ledger.
func (r *Runtime) RecordSupersessions(ctx context.Context, sups []obligation.Supersession) {
	r.metrics.AddSupersessions(r.desc.ID, len(sups))
	for _, sup := range sups {
		reasoning := fmt.Sprintf("%s record %q for member %s was replaced by a newer version",
			sup.Current.Kind, sup.Current.DisplayLabel(), sup.Current.MemberID)
		if _, err := r.RecordTrace(ctx, trace.ActionRecordSuperseded, reasoning, sup); err != nil {
			r.logger.ErrorContext(ctx, "failed to trace superseded record",
				"agent_id", r.desc.ID,
				"kind", sup.Current.Kind,
				"member_id", sup.Current.MemberID,
				"error", err,
			)
		}
	}
}

// Logger returns the runtime logger for domain use.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}
