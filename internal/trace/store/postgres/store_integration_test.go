//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hayat/internal/trace"
	"hayat/pkg/platform/sentinel"
	"hayat/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *StoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, "TRUNCATE trace_entries")
	s.Require().NoError(err)
}

func (s *StoreSuite) entry(user string, at time.Time) trace.Entry {
	return trace.Entry{
		ID:        uuid.NewString(),
		AgentID:   "compliance_sentinel",
		ActionID:  uuid.NewString(),
		Action:    "payment_initiation",
		Reasoning: "discount window closing",
		Context:   json.RawMessage(`{"fine_id":"F-1"}`),
		Timestamp: at.UTC().Truncate(time.Microsecond),
		UserID:    user,
	}
}

func (s *StoreSuite) TestAppendAndList() {
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	first := s.entry("user-1", base)
	second := s.entry("user-1", base.Add(time.Minute))
	other := s.entry("user-2", base.Add(2*time.Minute))

	for _, e := range []trace.Entry{second, first, other} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	s.Run("list all is oldest first", func() {
		all, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 3)
		s.Equal(first.ID, all[0].ID)
		s.JSONEq(`{"fine_id":"F-1"}`, string(all[0].Context))
		s.True(first.Timestamp.Equal(all[0].Timestamp))
	})

	s.Run("list by user is newest first", func() {
		entries, err := s.store.ListByUser(s.ctx, "user-1")
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(second.ID, entries[0].ID)
	})

	s.Run("duplicate id is a conflict", func() {
		err := s.store.Append(s.ctx, first)
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *StoreSuite) TestLedgerRestore() {
	ledger := trace.New(trace.WithStore(s.store))
	entry, err := ledger.Append(s.ctx, trace.Record{
		AgentID:   "residency_identity",
		ActionID:  "a-1",
		Action:    "renewal_start",
		Reasoning: "visa expired",
		UserID:    "user-1",
	})
	s.Require().NoError(err)

	restored := trace.New(trace.WithStore(s.store))
	n, err := restored.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, ok := restored.Lookup("residency_identity", "a-1")
	s.Require().True(ok)
	s.Equal(entry.ID, got.ID)
}
