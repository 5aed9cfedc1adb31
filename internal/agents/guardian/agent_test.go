package guardian_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"hayat/internal/agent"
	"hayat/internal/agents/guardian"
	"hayat/internal/family"
	"hayat/internal/trace"
	"hayat/internal/trace/mocks"
	dErrors "hayat/pkg/domain-errors"
	"hayat/pkg/requestcontext"
)

type GuardianSuite struct {
	suite.Suite
	ledger *trace.Ledger
	ctx    context.Context
	now    time.Time
}

func TestGuardianSuite(t *testing.T) {
	suite.Run(t, new(GuardianSuite))
}

func (s *GuardianSuite) SetupTest() {
	s.ledger = trace.New()
	s.now = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithUserID(context.Background(), "user-7"), s.now)
}

func (s *GuardianSuite) structure(members ...family.Member) *family.Structure {
	st, err := family.NewStructure("fam-1", members, s.now)
	s.Require().NoError(err)
	return st
}

func (s *GuardianSuite) TestMissingStructure() {
	g := guardian.New(s.ledger)

	status, err := g.Monitor(s.ctx)
	s.Require().NoError(err)
	s.Equal(agent.StatusAttentionNeeded, status)

	actions, err := g.Evaluate(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal("Set up your family structure", actions[0].Description)
	s.Equal(100, actions[0].Priority)
	s.Equal(agent.TagStructureIncomplete, actions[0].Tag)

	_, ok := g.FamilyStructure()
	s.False(ok)
	s.Empty(g.MemberIDs())
}

func (s *GuardianSuite) TestSponsorMissingEmiratesID() {
	g := guardian.New(s.ledger, guardian.WithStructure(s.structure(
		family.Member{ID: "m1", Name: "Ahmed", Role: family.RoleSponsor},
	)))

	status, err := g.Monitor(s.ctx)
	s.Require().NoError(err)
	s.Equal(agent.StatusAttentionNeeded, status)

	actions, err := g.Evaluate(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(agent.ActionNotification, actions[0].Type)
	s.Equal(90, actions[0].Priority)
	s.Equal("Complete Ahmed's Emirates ID information", actions[0].Description)
	s.Equal("m1", actions[0].Subject.MemberID)
}

func (s *GuardianSuite) TestDependentsNeedVisaNumbers() {
	g := guardian.New(s.ledger, guardian.WithStructure(s.structure(
		family.Member{ID: "m1", Name: "Ahmed", Role: family.RoleSponsor, EmiratesID: "784-1"},
		family.Member{ID: "m2", Name: "Sara", Role: family.RoleSpouse},
	)))

	actions, err := g.Evaluate(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal("Add visa information for Sara", actions[0].Description)
	s.Equal(85, actions[0].Priority)

	visa := "V-2"
	updated, err := g.UpdateMember(s.ctx, "m2", family.MemberUpdate{VisaNumber: &visa})
	s.Require().NoError(err)
	s.Equal("V-2", updated.VisaNumber)
	s.Equal(s.now, updated.UpdatedAt)

	status, err := g.Monitor(s.ctx)
	s.Require().NoError(err)
	s.Equal(agent.StatusClear, status)

	entries := s.ledger.ByUser("user-7")
	s.Require().Len(entries, 1)
	s.Equal(trace.ActionMemberUpdated, entries[0].Action)
	s.Equal("Updated Sara's details", entries[0].Reasoning)
}

func (s *GuardianSuite) TestAddMember() {
	g := guardian.New(s.ledger)

	s.Run("requires a structure", func() {
		err := g.AddMember(s.ctx, family.Member{ID: "m2", Name: "Sara", Role: family.RoleSpouse})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("set up then add", func() {
		s.Require().NoError(g.SetStructure(s.ctx, s.structure(
			family.Member{ID: "m1", Name: "Ahmed", Role: family.RoleSponsor, EmiratesID: "784-1"},
		)))
		s.Require().NoError(g.AddMember(s.ctx, family.Member{ID: "m2", Name: "Sara", Role: family.RoleSpouse, VisaNumber: "V-2"}))
		s.Equal([]string{"m1", "m2"}, g.MemberIDs())

		entries := s.ledger.ByAgent(agent.IDFamilyGuardian)
		s.Require().Len(entries, 2)
		s.Equal(trace.ActionStructureUpdated, entries[0].Action)
		s.Equal(trace.ActionMemberAdded, entries[1].Action)
		s.Equal("Added Sara to family structure", entries[1].Reasoning)
	})

	s.Run("a second sponsor is rejected without a trace", func() {
		err := g.AddMember(s.ctx, family.Member{ID: "m9", Name: "Other", Role: family.RoleSponsor})
		s.Require().Error(err)
		s.Len(s.ledger.ByAgent(agent.IDFamilyGuardian), 2)
		s.Len(g.MemberIDs(), 2)
	})

	s.Run("callers get copies", func() {
		st, ok := g.FamilyStructure()
		s.Require().True(ok)
		st.Members[0].Name = "changed"
		again, _ := g.FamilyStructure()
		s.Equal("Ahmed", again.Members[0].Name)
	})
}

func (s *GuardianSuite) TestFailedTraceLeavesHouseholdUnchanged() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	g := guardian.New(trace.New(trace.WithStore(store)), guardian.WithStructure(s.structure(
		family.Member{ID: "m1", Name: "Ahmed", Role: family.RoleSponsor, EmiratesID: "784-1"},
	)))

	err := g.AddMember(s.ctx, family.Member{ID: "m2", Name: "Sara", Role: family.RoleSpouse})
	s.Require().Error(err)
	s.Equal([]string{"m1"}, g.MemberIDs())
}

func (s *GuardianSuite) TestActingOnAReminderIsTraced() {
	g := guardian.New(s.ledger)
	actions, err := g.Evaluate(s.ctx)
	s.Require().NoError(err)

	ok, err := g.Act(s.ctx, actions[0].ID)
	s.Require().NoError(err)
	s.True(ok)

	text, err := g.Explain(s.ctx, actions[0].ID)
	s.Require().NoError(err)
	s.Contains(text, "Family structure is required for HAYAT to monitor your obligations")
}
