package agent_test

//go:generate mockgen -source=ports/ports.go -destination=ports/mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hayat/internal/agent"
	"hayat/internal/agent/ports/mocks"
	"hayat/internal/family"
	"hayat/internal/obligation"
)

func household(t *testing.T) *family.Structure {
	t.Helper()
	s, err := family.NewStructure("fam-1", []family.Member{
		{ID: "m1", Name: "Omar", Role: family.RoleSponsor},
		{ID: "m2", Name: "Layla", Role: family.RoleSpouse},
	}, time.Now())
	require.NoError(t, err)
	return s
}

func TestTrackerSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockFeedPort(ctrl)
	provider := mocks.NewMockFamilyStructureProvider(ctrl)
	provider.EXPECT().MemberIDs().Return([]string{"m1", "m2"}).AnyTimes()

	due := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	visa := obligation.Record{Kind: obligation.KindVisa, MemberID: "m1", Ref: "V-1", DueAt: due}
	fine := obligation.Record{Kind: obligation.KindParkingFine, MemberID: "m1", Ref: "F-1", DueAt: due}

	tracker := agent.NewTracker(feed, provider, obligation.KindVisa)
	ctx := context.Background()

	t.Run("keeps owned kinds only", func(t *testing.T) {
		feed.EXPECT().Fetch(gomock.Any(), []string{"m1", "m2"}).Return([]obligation.Record{visa, fine}, nil)
		sups, err := tracker.Sync(ctx)
		require.NoError(t, err)
		assert.Empty(t, sups)
		assert.Equal(t, []obligation.Record{visa}, tracker.Records())
	})

	t.Run("reports supersessions", func(t *testing.T) {
		renewed := visa
		renewed.DueAt = due.AddDate(2, 0, 0)
		feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]obligation.Record{renewed}, nil)
		sups, err := tracker.Sync(ctx)
		require.NoError(t, err)
		require.Len(t, sups, 1)
		assert.True(t, sups[0].Previous.DueAt.Equal(due))
		assert.True(t, sups[0].Current.DueAt.Equal(renewed.DueAt))
	})

	t.Run("feed failure leaves the cache untouched", func(t *testing.T) {
		feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		_, err := tracker.Sync(ctx)
		require.Error(t, err)
		assert.Len(t, tracker.Records(), 1)
	})
}

func TestTrackerSettle(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := mocks.NewMockFeedPort(ctrl)
	provider := mocks.NewMockFamilyStructureProvider(ctrl)
	provider.EXPECT().MemberIDs().Return([]string{"m1"}).AnyTimes()

	fine := obligation.Record{
		Kind: obligation.KindParkingFine, MemberID: "m1", Ref: "F-1",
		DueAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	tracker := agent.NewTracker(feed, provider, obligation.KindParkingFine)
	ctx := context.Background()

	feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]obligation.Record{fine}, nil)
	_, err := tracker.Sync(ctx)
	require.NoError(t, err)

	paid, ok := tracker.Settle(fine.Key(), func(r *obligation.Record) { r.Completed = true })
	require.True(t, ok)
	assert.True(t, paid.Completed)

	t.Run("survives a stale feed", func(t *testing.T) {
		feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]obligation.Record{fine}, nil)
		sups, err := tracker.Sync(ctx)
		require.NoError(t, err)
		assert.Empty(t, sups)
		got, _ := tracker.Get(fine.Key())
		assert.True(t, got.Completed)
	})

	t.Run("yields to newer feed data", func(t *testing.T) {
		reissued := fine
		reissued.DueAt = fine.DueAt.Add(48 * time.Hour)
		feed.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]obligation.Record{reissued}, nil)
		_, err := tracker.Sync(ctx)
		require.NoError(t, err)
		got, _ := tracker.Get(fine.Key())
		assert.False(t, got.Completed)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, ok := tracker.Settle(obligation.Key{Kind: obligation.KindParkingFine, Ref: "nope"}, func(*obligation.Record) {})
		assert.False(t, ok)
	})
}

func TestTrackerIngest(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockFamilyStructureProvider(ctrl)
	provider.EXPECT().MemberIDs().Return([]string{"m1"}).AnyTimes()
	provider.EXPECT().FamilyStructure().Return(household(t), true).AnyTimes()

	tracker := agent.NewTracker(mocks.NewMockFeedPort(ctrl), provider, obligation.KindParkingFine)

	_, changed := tracker.Ingest(obligation.Record{Kind: obligation.KindParkingFine, MemberID: "m1", Ref: "F-9"})
	assert.False(t, changed)
	assert.Len(t, tracker.Records(), 1)

	tracker.Ingest(obligation.Record{Kind: obligation.KindParkingFine, MemberID: "stranger", Ref: "F-10"})
	tracker.Ingest(obligation.Record{Kind: obligation.KindVisa, MemberID: "m1", Ref: "V-1"})
	assert.Len(t, tracker.Records(), 1)

	member, ok := tracker.Member("m2")
	require.True(t, ok)
	assert.Equal(t, "Layla", member.Name)
}
