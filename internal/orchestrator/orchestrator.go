// Package orchestrator runs the registered agents: it initializes them,
// drives their periodic monitor cycle and merges their output for callers.
package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"hayat/internal/agent"
	"hayat/internal/orchestrator/metrics"
	"hayat/internal/scoring"
	"hayat/internal/trace"
	"hayat/pkg/requestcontext"
)

const (
	confidenceFresh    = 1.0
	confidenceDegraded = 0.5

	defaultMonitorTimeout = 30 * time.Second
)

var tracer = otel.Tracer("hayat/internal/orchestrator")

// TraceReader lists ledger entries for a user.
type TraceReader interface {
	ByUser(userID string) []trace.Entry
}

// Decision is one ranked action with its explanation.
type Decision struct {
	Action     agent.Action `json:"action"`
	Reasoning  string       `json:"reasoning"`
	Confidence float64      `json:"confidence"`
	Trace      *trace.Entry `json:"trace,omitempty"`
}

type registration struct {
	agent agent.Agent
	busy  atomic.Bool
}

// Orchestrator owns the agent registry. It never reaches into agent state;
// everything goes through the agent.Agent contract.
type Orchestrator struct {
	traces TraceReader

	mu     sync.RWMutex
	agents map[string]*registration
	order  []string

	loopMu   sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}
	monitors sync.WaitGroup

	monitorTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithMonitorTimeout bounds a single agent's monitor call.
func WithMonitorTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.monitorTimeout = d
		}
	}
}

// New creates an orchestrator reading traces from traces.
func New(traces TraceReader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		traces:         traces,
		agents:         make(map[string]*registration),
		monitorTimeout: defaultMonitorTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a to the registry. A duplicate id replaces the previous
// agent, which is returned so the caller can clean it up.
func (o *Orchestrator) Register(a agent.Agent) (agent.Agent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := a.ID()
	prev, exists := o.agents[id]
	o.agents[id] = &registration{agent: a}
	if !exists {
		o.order = append(o.order, id)
		o.metrics.SetRegistered(len(o.order))
		return nil, false
	}
	o.logger.Warn("agent registration replaced an existing agent", "agent_id", id)
	return prev.agent, true
}

// Agent returns the registered agent with the given id.
func (o *Orchestrator) Agent(id string) (agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	reg, ok := o.agents[id]
	if !ok {
		return nil, false
	}
	return reg.agent, true
}

// Agents returns the registered agents in registration order.
func (o *Orchestrator) Agents() []agent.Agent {
	regs := o.registrations()
	out := make([]agent.Agent, len(regs))
	for i, reg := range regs {
		out[i] = reg.agent
	}
	return out
}

func (o *Orchestrator) registrations() []*registration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*registration, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.agents[id])
	}
	return out
}

// InitializeAll initializes every agent concurrently. Failures are logged and
// returned joined; they never stop other agents from initializing.
func (o *Orchestrator) InitializeAll(ctx context.Context) error {
	regs := o.registrations()
	errs := make([]error, len(regs))

	var g errgroup.Group
	for i, reg := range regs {
		g.Go(func() error {
			a := reg.agent
			if err := guard(func() error { return a.Initialize(ctx) }); err != nil {
				o.metrics.IncFailure(a.ID(), "initialize")
				o.logger.ErrorContext(ctx, "agent initialization failed",
					"agent_id", a.ID(),
					"error", err,
				)
				errs[i] = fmt.Errorf("%s: %w", a.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// StartMonitoring runs a monitor cycle now and then every interval until
// StopMonitoring. Calling it while already running is a no-op.
func (o *Orchestrator) StartMonitoring(interval time.Duration) {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()
	if o.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.loopDone = make(chan struct{})

	go o.monitorLoop(ctx, interval, o.loopDone)
	o.logger.Info("agent monitoring started", "interval", interval.String())
}

func (o *Orchestrator) monitorLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.monitorCycle(ctx)
	for {
		select {
		case <-ticker.C:
			o.monitorCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// monitorCycle dispatches Monitor to every idle agent without waiting.
// Agents still busy from an earlier tick are skipped.
func (o *Orchestrator) monitorCycle(ctx context.Context) {
	start := time.Now()
	for _, reg := range o.registrations() {
		if !reg.busy.CompareAndSwap(false, true) {
			o.metrics.IncSkipped(reg.agent.ID())
			continue
		}
		o.monitors.Add(1)
		go func() {
			defer o.monitors.Done()
			defer reg.busy.Store(false)
			o.monitorAgent(ctx, reg.agent)
		}()
	}
	o.metrics.ObserveCycle(time.Since(start))
}

func (o *Orchestrator) monitorAgent(ctx context.Context, a agent.Agent) {
	ctx, cancel := context.WithTimeout(ctx, o.monitorTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "orchestrator.monitor")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", a.ID()))

	err := guard(func() error {
		_, err := a.Monitor(ctx)
		return err
	})
	if err != nil {
		o.metrics.IncFailure(a.ID(), "monitor")
		o.logger.WarnContext(ctx, "agent monitor failed",
			"agent_id", a.ID(),
			"error", err,
		)
	}
}

// StopMonitoring ends the monitor loop and waits for in-flight monitor calls.
// It is safe to call when monitoring is not running.
func (o *Orchestrator) StopMonitoring() {
	o.loopMu.Lock()
	cancel, done := o.cancel, o.loopDone
	o.cancel, o.loopDone = nil, nil
	o.loopMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	o.monitors.Wait()
	o.logger.Info("agent monitoring stopped")
}

// Monitoring reports whether the monitor loop is running.
func (o *Orchestrator) Monitoring() bool {
	o.loopMu.Lock()
	defer o.loopMu.Unlock()
	return o.cancel != nil
}

// WidgetStates returns one entry per registered agent. An agent that fails
// or panics is reported as degraded and clear.
func (o *Orchestrator) WidgetStates(ctx context.Context) map[string]agent.WidgetState {
	regs := o.registrations()
	states := make([]agent.WidgetState, len(regs))

	var g errgroup.Group
	for i, reg := range regs {
		g.Go(func() error {
			a := reg.agent
			var ws agent.WidgetState
			err := guard(func() error {
				var err error
				ws, err = a.WidgetState(ctx)
				return err
			})
			if err != nil {
				o.metrics.IncFailure(a.ID(), "widget_state")
				o.logger.WarnContext(ctx, "agent widget state failed",
					"agent_id", a.ID(),
					"error", err,
				)
				ws = degradedState(ctx, a)
			}
			states[i] = ws
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]agent.WidgetState, len(states))
	for i, reg := range regs {
		out[reg.agent.ID()] = states[i]
	}
	return out
}

func degradedState(ctx context.Context, a agent.Agent) agent.WidgetState {
	ws := agent.WidgetState{
		AgentID:     a.ID(),
		Status:      agent.StatusClear,
		Urgency:     scoring.UrgencyLow,
		Degraded:    true,
		LastUpdated: requestcontext.Now(ctx),
		Actions:     []agent.Action{},
	}
	_ = guard(func() error {
		ws.AgentName = a.Name()
		return nil
	})
	return ws
}

// Decisions evaluates every agent and returns their actions ranked by
// priority, then confidence. Agents that fail to evaluate contribute nothing.
func (o *Orchestrator) Decisions(ctx context.Context) []Decision {
	ctx, span := tracer.Start(ctx, "orchestrator.decisions")
	defer span.End()

	regs := o.registrations()
	perAgent := make([][]Decision, len(regs))

	var g errgroup.Group
	for i, reg := range regs {
		g.Go(func() error {
			a := reg.agent
			err := guard(func() error {
				decisions, err := o.collect(ctx, a)
				perAgent[i] = decisions
				return err
			})
			if err != nil {
				o.metrics.IncFailure(a.ID(), "evaluate")
				o.logger.WarnContext(ctx, "agent evaluate failed",
					"agent_id", a.ID(),
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []Decision
	for _, ds := range perAgent {
		out = append(out, ds...)
	}
	slices.SortStableFunc(out, func(a, b Decision) int {
		if c := cmp.Compare(b.Action.Priority, a.Action.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	span.SetAttributes(attribute.Int("decisions.count", len(out)))
	return out
}

func (o *Orchestrator) collect(ctx context.Context, a agent.Agent) ([]Decision, error) {
	actions, err := a.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	confidence := confidenceFresh
	if a.Degraded() {
		confidence = confidenceDegraded
	}
	out := make([]Decision, 0, len(actions))
	for _, action := range actions {
		reasoning, err := a.Explain(ctx, action.ID)
		if err != nil {
			reasoning = action.Reason
		}
		d := Decision{Action: action, Reasoning: reasoning, Confidence: confidence}
		if entry, ok := a.Trace(action.ID); ok {
			d.Trace = &entry
		}
		out = append(out, d)
	}
	return out, nil
}

// ExecuteAction routes to the named agent's Act.
func (o *Orchestrator) ExecuteAction(ctx context.Context, actionID, agentID string) (bool, error) {
	a, ok := o.Agent(agentID)
	if !ok {
		o.metrics.IncExecution(agentID, "not_found")
		return false, agent.AgentNotFound(agentID)
	}

	var succeeded bool
	err := guard(func() error {
		var err error
		succeeded, err = a.Act(ctx, actionID)
		return err
	})
	switch {
	case errors.Is(err, agent.ErrActionNotFound):
		o.metrics.IncExecution(agentID, "not_found")
		return false, err
	case err != nil:
		o.metrics.IncFailure(agentID, "act")
		o.logger.ErrorContext(ctx, "agent act failed",
			"agent_id", agentID,
			"action_id", actionID,
			"error", err,
		)
		o.metrics.IncExecution(agentID, "failure")
		return false, nil
	case succeeded:
		o.metrics.IncExecution(agentID, "success")
	default:
		o.metrics.IncExecution(agentID, "failure")
	}
	return succeeded, nil
}

// Explain routes to the named agent's Explain.
func (o *Orchestrator) Explain(ctx context.Context, actionID, agentID string) (string, error) {
	a, ok := o.Agent(agentID)
	if !ok {
		return "", agent.AgentNotFound(agentID)
	}
	var text string
	err := guard(func() error {
		var err error
		text, err = a.Explain(ctx, actionID)
		return err
	})
	return text, err
}

// Traces returns a user's ledger entries, most recent first.
func (o *Orchestrator) Traces(userID string) []trace.Entry {
	if o.traces == nil {
		return nil
	}
	return o.traces.ByUser(userID)
}

// Cleanup stops monitoring and cleans up every agent concurrently. Agents
// finish in-flight acts before they release their subscriptions.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	o.StopMonitoring()

	regs := o.registrations()
	errs := make([]error, len(regs))
	var g errgroup.Group
	for i, reg := range regs {
		g.Go(func() error {
			a := reg.agent
			if err := guard(func() error { return a.Cleanup(ctx) }); err != nil {
				o.metrics.IncFailure(a.ID(), "cleanup")
				o.logger.ErrorContext(ctx, "agent cleanup failed",
					"agent_id", a.ID(),
					"error", err,
				)
				errs[i] = fmt.Errorf("%s: %w", a.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// guard converts a panic inside an agent call into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()
	return fn()
}
