package repository

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/alexanderramin/crawl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runNodeStoreContract exercises the behavior every NodeStore must share.
func runNodeStoreContract(t *testing.T, newStore func(t *testing.T) NodeStore) {
	seed := func(t *testing.T) NodeStore {
		t.Helper()
		s := newStore(t)
		for _, n := range testutil.Catalog() {
			require.NoError(t, s.Insert(context.Background(), n), "seeding %s", n.ID)
		}
		return s
	}

	t.Run("FetchAll returns every node", func(t *testing.T) {
		s := seed(t)
		nodes, err := s.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Len(t, nodes, len(testutil.Catalog()))
	})

	t.Run("Get round-trips fields", func(t *testing.T) {
		s := seed(t)
		start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
		sched := &schedule.Schedule{
			StartDate: &start,
			Ranges:    []schedule.TimeRange{schedule.Between(schedule.MustClock("22:00"), schedule.MustClock("02:00"))},
			Days:      schedule.NewWeekdaySet(time.Monday, time.Friday),
		}
		item := testutil.NewTestNode(domain.TypeItem, "Scheduled",
			testutil.WithParent("if2"), testutil.WithOrder(4), testutil.WithActive(false), testutil.WithSchedule(sched))
		require.NoError(t, s.Insert(context.Background(), item))

		got, err := s.Get(context.Background(), item.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TypeItem, got.Type)
		assert.Equal(t, "Scheduled", got.Name)
		assert.False(t, got.Active)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, "if2", *got.ParentID)
		assert.Equal(t, 4, got.Order)
		require.NotNil(t, got.Schedule)
		assert.Equal(t, sched.Summary(), got.Schedule.Summary())
		assert.True(t, item.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Get missing", func(t *testing.T) {
		s := seed(t)
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Insert requires parent", func(t *testing.T) {
		s := seed(t)
		err := s.Insert(context.Background(), testutil.NewTestNode(domain.TypeItem, "Loose", testutil.WithParent("missing")))
		assert.ErrorIs(t, err, ErrParentMissing)
	})

	t.Run("Insert duplicate id", func(t *testing.T) {
		s := seed(t)
		err := s.Insert(context.Background(), testutil.NewTestNode(domain.TypeFolder, "Again", testutil.WithID("f1")))
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("Update applies only set fields", func(t *testing.T) {
		s := seed(t)
		ctx := context.Background()
		require.NoError(t, s.Update(ctx, "i2", domain.NodePatch{
			Name:   domain.StrPtr("Gizmo"),
			Order:  domain.IntPtr(7),
			Parent: &domain.ParentChange{ID: domain.StrPtr("if2")},
		}))

		got, err := s.Get(ctx, "i2")
		require.NoError(t, err)
		assert.Equal(t, "Gizmo", got.Name)
		assert.Equal(t, 7, got.Order)
		assert.Equal(t, "if2", *got.ParentID)
		assert.True(t, got.Active)
	})

	t.Run("Update sets and clears schedule", func(t *testing.T) {
		s := seed(t)
		ctx := context.Background()
		sched := &schedule.Schedule{Days: schedule.NewWeekdaySet(time.Sunday)}
		require.NoError(t, s.Update(ctx, "i1", domain.NodePatch{Schedule: &domain.ScheduleChange{Value: sched}}))
		got, err := s.Get(ctx, "i1")
		require.NoError(t, err)
		require.NotNil(t, got.Schedule)
		assert.True(t, got.Schedule.Days.Has(time.Sunday))

		require.NoError(t, s.Update(ctx, "i1", domain.NodePatch{Schedule: &domain.ScheduleChange{}}))
		got, err = s.Get(ctx, "i1")
		require.NoError(t, err)
		assert.Nil(t, got.Schedule)
	})

	t.Run("Update missing", func(t *testing.T) {
		s := seed(t)
		err := s.Update(context.Background(), "missing", domain.NodePatch{Name: domain.StrPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete cascades", func(t *testing.T) {
		s := seed(t)
		ctx := context.Background()
		require.NoError(t, s.Delete(ctx, "b1"))

		nodes, err := s.FetchAll(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids(nodes), "i1")
		assert.NotContains(t, ids(nodes), "if2")
		assert.Contains(t, ids(nodes), "b2")

		assert.ErrorIs(t, s.Delete(ctx, "b1"), ErrNotFound)
	})

	t.Run("DeleteBatch skips ids already cascaded", func(t *testing.T) {
		s := seed(t)
		ctx := context.Background()
		require.NoError(t, s.DeleteBatch(ctx, []string{"if1", "i1", "i2", "t3"}))

		nodes, err := s.FetchAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b1", "b2", "b3", "f1", "f2", "i3", "if2", "t1", "t2", "tf1", "tf2"}, ids(nodes))
	})
}

func ids(nodes []*domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	sort.Strings(out)
	return out
}
