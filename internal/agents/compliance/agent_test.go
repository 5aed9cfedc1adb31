package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"hayat/internal/agent"
	"hayat/internal/agent/ports"
	"hayat/internal/agent/ports/mocks"
	"hayat/internal/agents/compliance"
	"hayat/internal/obligation"
	"hayat/internal/scoring"
	"hayat/internal/trace"
	"hayat/pkg/requestcontext"
)

type ComplianceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	feed      *mocks.MockFeedPort
	household *mocks.MockFamilyStructureProvider
	payments  *mocks.MockCommandPort
	ledger    *trace.Ledger
	now       time.Time
}

func TestComplianceSuite(t *testing.T) {
	suite.Run(t, new(ComplianceSuite))
}

func (s *ComplianceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.feed = mocks.NewMockFeedPort(s.ctrl)
	s.household = mocks.NewMockFamilyStructureProvider(s.ctrl)
	s.payments = mocks.NewMockCommandPort(s.ctrl)
	s.ledger = trace.New()
	s.now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s.household.EXPECT().MemberIDs().Return([]string{"m1"}).AnyTimes()
}

func (s *ComplianceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(requestcontext.WithUserID(context.Background(), "user-1"), t)
}

func (s *ComplianceSuite) fine(ref string, window time.Duration) obligation.Record {
	return obligation.Record{
		Kind:     obligation.KindParkingFine,
		MemberID: "m1",
		Ref:      ref,
		DueAt:    s.now.Add(window),
		Fine: &obligation.Fine{
			Emirate:        "Dubai",
			Amount:         200,
			ViolationAt:    s.now.Add(-2 * time.Hour),
			DiscountEndsAt: s.now.Add(window),
		},
	}
}

func (s *ComplianceSuite) agentWith(records ...obligation.Record) *compliance.Agent {
	s.feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(records, nil).AnyTimes()
	a := compliance.New(s.feed, s.household, s.payments, s.ledger)
	s.Require().NoError(a.Initialize(s.at(s.now)))
	return a
}

func (s *ComplianceSuite) TestEscalationFollowsTheDiscountWindow() {
	a := s.agentWith(s.fine("F-1", 22*time.Hour))

	actions, err := a.Evaluate(s.at(s.now))
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(agent.ActionPaymentInitiation, actions[0].Type)
	s.Equal(scoring.EscalationFriendly, actions[0].Escalation)
	s.Equal(75, actions[0].Priority)
	s.Equal("Dubai parking fine: 200 AED (22h discount window)", actions[0].Description)
	s.Contains(actions[0].Reason, "discounted amount")

	later := s.now.Add(17 * time.Hour)
	actions, err = a.Evaluate(s.at(later))
	s.Require().NoError(err)
	s.Equal(scoring.EscalationUrgent, actions[0].Escalation)
	s.Equal(90, actions[0].Priority)

	expired := s.now.Add(23 * time.Hour)
	actions, err = a.Evaluate(s.at(expired))
	s.Require().NoError(err)
	s.Equal(scoring.EscalationFormal, actions[0].Escalation)
	s.Equal(95, actions[0].Priority)
	s.Equal("Dubai parking fine: 200 AED (discount expired)", actions[0].Description)
	s.Contains(actions[0].Reason, "full amount of 200 AED")
}

func (s *ComplianceSuite) TestWideWindowIsLowestBand() {
	a := s.agentWith(s.fine("F-1", 30*time.Hour))
	actions, err := a.Evaluate(s.at(s.now))
	s.Require().NoError(err)
	s.Equal(70, actions[0].Priority)
	s.Equal(scoring.EscalationFriendly, actions[0].Escalation)
}

func (s *ComplianceSuite) TestMonitorThreshold() {
	a := s.agentWith(s.fine("F-1", 22*time.Hour))

	status, err := a.Monitor(s.at(s.now))
	s.Require().NoError(err)
	s.Equal(agent.StatusClear, status)

	status, err = a.Monitor(s.at(s.now.Add(10 * time.Hour)))
	s.Require().NoError(err)
	s.Equal(agent.StatusAttentionNeeded, status)

	status, err = a.Monitor(s.at(s.now.Add(48 * time.Hour)))
	s.Require().NoError(err)
	s.Equal(agent.StatusAttentionNeeded, status)
}

func (s *ComplianceSuite) TestPaymentSettlesTheFineOnce() {
	a := s.agentWith(s.fine("F-1", 5*time.Hour), s.fine("F-2", 40*time.Hour))
	ctx := s.at(s.now)

	actions, err := a.Evaluate(ctx)
	s.Require().NoError(err)
	s.Require().Len(actions, 2)
	s.Equal("F-1", actions[0].Subject.Ref)

	s.payments.EXPECT().
		Perform(gomock.Any(), ports.CommandPayment, map[string]string{
			"fine_id":     "F-1",
			"member_id":   "m1",
			"amount":      "200",
			"description": "Parking fine - Dubai",
		}).
		Return(ports.CommandResult{Success: true, Reference: "PAY-1"}, nil).
		Times(1)

	ok, err := a.Act(ctx, actions[0].ID)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = a.Act(ctx, actions[0].ID)
	s.Require().NoError(err)
	s.True(ok)
	s.Len(s.ledger.ByAgent(agent.IDCompliance), 1)

	text, err := a.Explain(ctx, actions[0].ID)
	s.Require().NoError(err)
	s.Contains(text, actions[0].Reason)

	_, err = a.Monitor(ctx)
	s.Require().NoError(err)
	actions, err = a.Evaluate(ctx)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal("F-2", actions[0].Subject.Ref)
}

func (s *ComplianceSuite) TestDeclinedPaymentFails() {
	a := s.agentWith(s.fine("F-1", 5*time.Hour))
	ctx := s.at(s.now)
	actions, err := a.Evaluate(ctx)
	s.Require().NoError(err)

	s.payments.EXPECT().Perform(gomock.Any(), ports.CommandPayment, gomock.Any()).
		Return(ports.CommandResult{Success: false}, nil)

	ok, err := a.Act(ctx, actions[0].ID)
	s.NoError(err)
	s.False(ok)
	got, _ := a.Action(actions[0].ID)
	s.Equal(agent.ActionFailed, got.Status)
	_, traced := a.Trace(actions[0].ID)
	s.True(traced)
}

func (s *ComplianceSuite) TestDiscountWindowEndWithoutDueDate() {
	rec := s.fine("F-1", 22*time.Hour)
	rec.DueAt = time.Time{}
	a := s.agentWith(rec)

	actions, err := a.Evaluate(s.at(s.now))
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(scoring.EscalationFriendly, actions[0].Escalation)
	s.Equal(75, actions[0].Priority)
	s.Equal("Dubai parking fine: 200 AED (22h discount window)", actions[0].Description)
}

func (s *ComplianceSuite) TestPaymentInFlightIsNotProposedAgain() {
	a := s.agentWith(s.fine("F-1", 5*time.Hour))
	ctx := s.at(s.now)

	started := make(chan struct{})
	release := make(chan struct{})
	s.payments.EXPECT().Perform(gomock.Any(), ports.CommandPayment, gomock.Any()).
		DoAndReturn(func(context.Context, string, map[string]string) (ports.CommandResult, error) {
			close(started)
			<-release
			return ports.CommandResult{Success: true, Reference: "PAY-1"}, nil
		}).
		Times(1)

	first, err := a.Evaluate(ctx)
	s.Require().NoError(err)
	done := make(chan bool)
	go func() {
		ok, _ := a.Act(ctx, first[0].ID)
		done <- ok
	}()
	<-started

	second, err := a.Evaluate(ctx)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal(first[0].ID, second[0].ID)
	s.Equal(agent.ActionInProgress, second[0].Status)

	ok, err := a.Act(ctx, second[0].ID)
	s.NoError(err)
	s.False(ok)

	close(release)
	s.True(<-done)
	s.Len(s.ledger.ByAgent(agent.IDCompliance), 1)
}
