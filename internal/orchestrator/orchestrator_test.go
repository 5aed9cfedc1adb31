package orchestrator_test

//go:generate mockgen -source=../agent/agent.go -destination=../agent/mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"hayat/internal/agent"
	"hayat/internal/agent/mocks"
	"hayat/internal/orchestrator"
	"hayat/internal/orchestrator/metrics"
	"hayat/internal/scoring"
	"hayat/internal/trace"
	"hayat/pkg/requestcontext"
)

type OrchestratorSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	ledger *trace.Ledger
	orch   *orchestrator.Orchestrator
	ctx    context.Context
	now    time.Time
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = trace.New()
	s.orch = orchestrator.New(s.ledger,
		orchestrator.WithMetrics(metrics.New(prometheus.NewRegistry())),
		orchestrator.WithMonitorTimeout(time.Second),
	)
	s.now = time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *OrchestratorSuite) newAgent(id string) *mocks.MockAgent {
	a := mocks.NewMockAgent(s.ctrl)
	a.EXPECT().ID().Return(id).AnyTimes()
	a.EXPECT().Name().Return("Agent " + id).AnyTimes()
	return a
}

func (s *OrchestratorSuite) TestRegister() {
	first := s.newAgent("residency_identity")
	second := s.newAgent("residency_identity")

	replaced, ok := s.orch.Register(first)
	s.False(ok)
	s.Nil(replaced)

	replaced, ok = s.orch.Register(second)
	s.True(ok)
	s.Same(first, replaced)

	agents := s.orch.Agents()
	s.Require().Len(agents, 1)
	s.Same(second, agents[0])
}

func (s *OrchestratorSuite) TestInitializeAllIsolatesFailures() {
	broken := s.newAgent("broken")
	healthy := s.newAgent("healthy")
	panicky := s.newAgent("panicky")
	broken.EXPECT().Initialize(gomock.Any()).Return(errors.New("feed offline"))
	healthy.EXPECT().Initialize(gomock.Any()).Return(nil)
	panicky.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(context.Context) error { panic("boom") })
	s.orch.Register(broken)
	s.orch.Register(healthy)
	s.orch.Register(panicky)

	err := s.orch.InitializeAll(s.ctx)
	s.Require().Error(err)
	s.Contains(err.Error(), "broken")
	s.Contains(err.Error(), "panicky")
	s.NotContains(err.Error(), "healthy")
}

func (s *OrchestratorSuite) TestWidgetStatesAlwaysCoverEveryAgent() {
	ok := s.newAgent("ok")
	failing := s.newAgent("failing")
	panicky := s.newAgent("panicky")

	ok.EXPECT().WidgetState(gomock.Any()).Return(agent.WidgetState{
		AgentID: "ok", Status: agent.StatusAttentionNeeded, Urgency: scoring.UrgencyHigh,
	}, nil)
	failing.EXPECT().WidgetState(gomock.Any()).Return(agent.WidgetState{}, agent.ErrAgentClosed)
	panicky.EXPECT().WidgetState(gomock.Any()).DoAndReturn(func(context.Context) (agent.WidgetState, error) {
		panic("nil map")
	})
	s.orch.Register(ok)
	s.orch.Register(failing)
	s.orch.Register(panicky)

	states := s.orch.WidgetStates(s.ctx)
	s.Require().Len(states, 3)
	s.Equal(agent.StatusAttentionNeeded, states["ok"].Status)
	for _, id := range []string{"failing", "panicky"} {
		s.Equal(agent.StatusClear, states[id].Status)
		s.True(states[id].Degraded)
		s.Equal(scoring.UrgencyLow, states[id].Urgency)
		s.Equal("Agent "+id, states[id].AgentName)
		s.Equal(s.now, states[id].LastUpdated)
	}
}

func (s *OrchestratorSuite) TestDecisions() {
	fresh := s.newAgent("fresh")
	stale := s.newAgent("stale")
	failing := s.newAgent("failing")

	fresh.EXPECT().Evaluate(gomock.Any()).Return([]agent.Action{
		{ID: "f1", AgentID: "fresh", Priority: 80, Reason: "r-f1"},
		{ID: "f2", AgentID: "fresh", Priority: 50, Reason: "r-f2"},
	}, nil)
	fresh.EXPECT().Degraded().Return(false)
	fresh.EXPECT().Explain(gomock.Any(), "f1").Return("explained f1", nil)
	fresh.EXPECT().Explain(gomock.Any(), "f2").Return("", agent.ErrActionNotFound)
	fresh.EXPECT().Trace("f1").Return(trace.Entry{ID: "t1"}, true)
	fresh.EXPECT().Trace("f2").Return(trace.Entry{}, false)

	stale.EXPECT().Evaluate(gomock.Any()).Return([]agent.Action{
		{ID: "s1", AgentID: "stale", Priority: 80, Reason: "r-s1"},
	}, nil)
	stale.EXPECT().Degraded().Return(true)
	stale.EXPECT().Explain(gomock.Any(), "s1").Return("explained s1", nil)
	stale.EXPECT().Trace("s1").Return(trace.Entry{}, false)

	failing.EXPECT().Evaluate(gomock.Any()).Return(nil, errors.New("cache corrupt"))

	s.orch.Register(stale)
	s.orch.Register(failing)
	s.orch.Register(fresh)

	decisions := s.orch.Decisions(s.ctx)
	s.Require().Len(decisions, 3)

	s.Equal("f1", decisions[0].Action.ID)
	s.Equal(1.0, decisions[0].Confidence)
	s.Equal("explained f1", decisions[0].Reasoning)
	s.Require().NotNil(decisions[0].Trace)
	s.Equal("t1", decisions[0].Trace.ID)

	s.Equal("s1", decisions[1].Action.ID)
	s.Equal(0.5, decisions[1].Confidence)

	s.Equal("f2", decisions[2].Action.ID)
	s.Equal("r-f2", decisions[2].Reasoning)
	s.Nil(decisions[2].Trace)
}

func (s *OrchestratorSuite) TestExecuteAction() {
	a := s.newAgent("compliance_sentinel")
	s.orch.Register(a)

	s.Run("unknown agent", func() {
		ok, err := s.orch.ExecuteAction(s.ctx, "a1", "nobody")
		s.False(ok)
		s.ErrorIs(err, agent.ErrAgentNotFound)
	})

	s.Run("routes to the agent", func() {
		a.EXPECT().Act(gomock.Any(), "a1").Return(true, nil)
		ok, err := s.orch.ExecuteAction(s.ctx, "a1", "compliance_sentinel")
		s.NoError(err)
		s.True(ok)
	})

	s.Run("unknown action is surfaced", func() {
		a.EXPECT().Act(gomock.Any(), "stale").Return(false, agent.ErrActionNotFound)
		ok, err := s.orch.ExecuteAction(s.ctx, "stale", "compliance_sentinel")
		s.False(ok)
		s.ErrorIs(err, agent.ErrActionNotFound)
	})

	s.Run("a panic becomes a failed execution", func() {
		a.EXPECT().Act(gomock.Any(), "p").DoAndReturn(func(context.Context, string) (bool, error) { panic("boom") })
		ok, err := s.orch.ExecuteAction(s.ctx, "p", "compliance_sentinel")
		s.False(ok)
		s.NoError(err)
	})
}

func (s *OrchestratorSuite) TestExplainAndTraces() {
	a := s.newAgent("wellbeing")
	s.orch.Register(a)
	a.EXPECT().Explain(gomock.Any(), "a1").Return("because", nil)

	text, err := s.orch.Explain(s.ctx, "a1", "wellbeing")
	s.Require().NoError(err)
	s.Equal("because", text)

	_, err = s.orch.Explain(s.ctx, "a1", "nobody")
	s.ErrorIs(err, agent.ErrAgentNotFound)

	_, err = s.ledger.Append(s.ctx, trace.Record{AgentID: "wellbeing", Action: "notification", UserID: "u1"})
	s.Require().NoError(err)
	s.Len(s.orch.Traces("u1"), 1)
	s.Empty(s.orch.Traces("u2"))
}

func (s *OrchestratorSuite) TestMonitoringSkipsBusyAgents() {
	slow := s.newAgent("slow")
	var calls atomic.Int32
	release := make(chan struct{})
	slow.EXPECT().Monitor(gomock.Any()).DoAndReturn(func(ctx context.Context) (agent.Status, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return agent.StatusClear, nil
	}).AnyTimes()
	s.orch.Register(slow)

	s.orch.StartMonitoring(5 * time.Millisecond)
	s.orch.StartMonitoring(5 * time.Millisecond)
	s.True(s.orch.Monitoring())

	s.Eventually(func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s.Equal(int32(1), calls.Load())

	close(release)
	s.Eventually(func() bool { return calls.Load() > 1 }, time.Second, time.Millisecond)

	s.orch.StopMonitoring()
	s.False(s.orch.Monitoring())
	settled := calls.Load()
	time.Sleep(20 * time.Millisecond)
	s.Equal(settled, calls.Load())

	s.orch.StopMonitoring()
}

func (s *OrchestratorSuite) TestMonitorFailuresDoNotStopTheLoop() {
	flaky := s.newAgent("flaky")
	var calls atomic.Int32
	flaky.EXPECT().Monitor(gomock.Any()).DoAndReturn(func(context.Context) (agent.Status, error) {
		if calls.Add(1) == 1 {
			panic("first cycle")
		}
		return agent.StatusClear, agent.ErrCollaboratorUnavailable
	}).AnyTimes()
	s.orch.Register(flaky)

	s.orch.StartMonitoring(2 * time.Millisecond)
	s.Eventually(func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	s.orch.StopMonitoring()
}

func (s *OrchestratorSuite) TestCleanup() {
	a := s.newAgent("a")
	b := s.newAgent("b")
	a.EXPECT().Monitor(gomock.Any()).Return(agent.StatusClear, nil).AnyTimes()
	b.EXPECT().Monitor(gomock.Any()).Return(agent.StatusClear, nil).AnyTimes()
	a.EXPECT().Cleanup(gomock.Any()).Return(nil)
	b.EXPECT().Cleanup(gomock.Any()).Return(errors.New("unsubscribe failed"))
	s.orch.Register(a)
	s.orch.Register(b)

	s.orch.StartMonitoring(time.Hour)
	err := s.orch.Cleanup(s.ctx)
	s.Require().Error(err)
	s.Contains(err.Error(), "b: unsubscribe failed")
	s.False(s.orch.Monitoring())
}
