package seed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayat/internal/agent/ports"
	"hayat/internal/family"
	"hayat/internal/obligation"
)

const household = `
family:
  id: fam-1
  members:
    - id: m1
      name: Omar
      role: sponsor
      emirates_id: 784-1985-1234567-1
    - id: m2
      name: Yousef
      role: child
      visa_number: 201/2024/7
obligations:
  - kind: visa
    member_id: m1
    ref: V-1
    due_at: 2025-09-01T00:00:00Z
  - kind: parking_fine
    member_id: m1
    ref: F-1
    due_at: 2025-05-06T00:00:00Z
    fine:
      emirate: Dubai
      amount: 200
      violation_at: 2025-05-01T10:00:00Z
      discount_ends_at: 2025-05-06T00:00:00Z
  - kind: vaccination
    member_id: m2
    ref: MMR
    label: MMR
    mandatory: true
    due_at: 2025-05-20T00:00:00Z
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(household))
	require.NoError(t, err)

	s, err := f.Structure(time.Now())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, []string{"m1", "m2"}, s.MemberIDs())
	child, ok := s.Member("m2")
	require.True(t, ok)
	assert.Equal(t, family.RoleChild, child.Role)

	require.Len(t, f.Obligations, 3)
	fine := f.Obligations[1]
	require.NotNil(t, fine.Fine)
	assert.Equal(t, "Dubai", fine.Fine.Emirate)
	assert.Equal(t, 200.0, fine.Fine.Amount)
	assert.True(t, f.Obligations[2].Mandatory)
}

func TestParseRejectsIncompleteRecords(t *testing.T) {
	t.Run("missing ref", func(t *testing.T) {
		_, err := Parse([]byte("obligations:\n  - kind: visa\n    member_id: m1\n"))
		assert.ErrorContains(t, err, "ref are required")
	})
	t.Run("fine without details", func(t *testing.T) {
		_, err := Parse([]byte("obligations:\n  - kind: parking_fine\n    member_id: m1\n    ref: F-1\n"))
		assert.ErrorContains(t, err, "no fine details")
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("family: ["))
		assert.Error(t, err)
	})
}

func TestParseTakesTheFineDueDateFromTheDiscountWindow(t *testing.T) {
	f, err := Parse([]byte(`obligations:
  - kind: parking_fine
    member_id: m1
    ref: F-9
    fine:
      emirate: Sharjah
      amount: 300
      discount_ends_at: 2025-05-06T12:00:00Z
`))
	require.NoError(t, err)
	require.Len(t, f.Obligations, 1)
	assert.True(t, f.Obligations[0].DueAt.Equal(time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC)))
}

func TestStructureWithoutMembers(t *testing.T) {
	f, err := Parse([]byte("obligations: []\n"))
	require.NoError(t, err)
	s, err := f.Structure(time.Now())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFeed(t *testing.T) {
	visa := obligation.Record{Kind: obligation.KindVisa, MemberID: "m1", Ref: "V-1"}
	other := obligation.Record{Kind: obligation.KindVisa, MemberID: "m9", Ref: "V-9"}
	feed := NewFeed([]obligation.Record{visa, other})
	ctx := context.Background()

	got, err := feed.Fetch(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.Equal(t, []obligation.Record{visa}, got)

	var delivered atomic.Int32
	unsubscribe := feed.Subscribe(func(obligation.Record) { delivered.Add(1) })

	renewed := visa
	renewed.DueAt = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	feed.Push(renewed)
	assert.Equal(t, int32(1), delivered.Load())

	got, err = feed.Fetch(ctx, []string{"m1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].DueAt.Equal(renewed.DueAt))

	unsubscribe()
	unsubscribe()
	feed.Push(visa)
	assert.Equal(t, int32(1), delivered.Load())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = feed.Fetch(cancelled, []string{"m1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommands(t *testing.T) {
	c := NewCommands(nil)
	res, err := c.Perform(context.Background(), ports.CommandPayment, map[string]string{"fine_id": "F-1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Reference)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, ports.CommandPayment, history[0].Kind)
	assert.Equal(t, res.Reference, history[0].Reference)
}
