package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/repository"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/alexanderramin/crawl/internal/testutil"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last(name string) (UseCaseEvent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.events) - 1; i >= 0; i-- {
		if o.events[i].Name == name {
			return o.events[i], true
		}
	}
	return UseCaseEvent{}, false
}

type catalogHarness struct {
	svc      CatalogService
	inner    *repository.SQLiteNodeStore
	store    *testutil.FailingStore
	clock    *fakeClock
	observer *recordingObserver
}

// newCatalogHarness seeds testutil.Catalog into an in-memory SQLite store
// and loads a service over it. Ids minted by the service are n1, n2, ...
func newCatalogHarness(t *testing.T) *catalogHarness {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	inner := repository.NewSQLiteNodeStore(database, testutil.NewTestUoW(database))
	for _, n := range testutil.Catalog() {
		require.NoError(t, inner.Insert(ctx, n))
	}

	h := &catalogHarness{
		inner:    inner,
		store:    testutil.NewFailingStore(inner),
		clock:    &fakeClock{now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)},
		observer: &recordingObserver{},
	}
	seq := 0
	h.svc = NewCatalogService(h.store, CatalogOptions{
		Debounce: time.Second,
		Now:      h.clock.Now,
		NewID: func() string {
			seq++
			return fmt.Sprintf("n%d", seq)
		},
	}, h.observer)
	require.NoError(t, h.svc.Load(ctx))
	return h
}

func (h *catalogHarness) stored(t *testing.T, id string) *domain.Node {
	t.Helper()
	n, err := h.inner.Get(context.Background(), id)
	require.NoError(t, err)
	return n
}

func (h *catalogHarness) node(t *testing.T, id string) *domain.Node {
	t.Helper()
	n, ok := h.svc.Forest().Node(id)
	require.True(t, ok, "node %s not in forest", id)
	return n
}

func childIDs(f *tree.Forest, id string) []string {
	var out []string
	for _, n := range f.Children(id) {
		out = append(out, n.ID)
	}
	return out
}

func assertMatchesStore(t *testing.T, h *catalogHarness) {
	t.Helper()
	nodes, err := h.inner.FetchAll(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.SameStructure(tree.BuildTree(nodes), h.svc.Forest()), "forest differs from store")
}

func TestCatalog_Load(t *testing.T) {
	h := newCatalogHarness(t)

	rows := h.svc.Rows()
	require.Len(t, rows, 15)
	assert.Equal(t, "News", rows[0].DisplayPath)
	assert.Equal(t, "News / Sport / A / Widget", rows[3].DisplayPath)

	ev, ok := h.observer.last("catalog.load")
	require.True(t, ok)
	assert.True(t, ev.Success)
	assert.Equal(t, 15, ev.Fields["nodes"])
}

func TestCatalog_CreateResolvesGlobalBucketName(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	n := &domain.Node{Type: domain.TypeBucket, Name: "Sport", Active: true, ParentID: domain.StrPtr("f2")}
	out, err := h.svc.Create(ctx, n)
	require.NoError(t, err)
	assert.Empty(t, n.ID)
	assert.Equal(t, "Sport", n.Name)
	assert.True(t, out.Applied)
	assert.False(t, out.Reconciled)
	assert.Equal(t, "n1", out.NodeID)
	assert.Equal(t, "Sport 1", out.Name)

	stored := h.stored(t, "n1")
	assert.Equal(t, "Sport 1", stored.Name)
	assert.Equal(t, 1, stored.Order)
	assertMatchesStore(t, h)
}

func TestCatalog_CreateRejectsBadParent(t *testing.T) {
	h := newCatalogHarness(t)

	n := &domain.Node{Type: domain.TypeItem, Name: "Loose", ParentID: domain.StrPtr("f1")}
	out, err := h.svc.Create(context.Background(), n)
	assert.Error(t, err)
	assert.False(t, out.Applied)
	assert.Zero(t, h.store.Writes())
	assert.Empty(t, n.ID, "caller's node is left as passed")
}

func TestCatalog_SameParentReorderKeepsNames(t *testing.T) {
	h := newCatalogHarness(t)

	out, err := h.svc.Move(context.Background(), "i2", "i1", tree.Above)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "Gadget", out.Name)

	assert.Equal(t, []string{"i2", "i1"}, childIDs(h.svc.Forest(), "if1"))
	assert.Equal(t, 0, h.stored(t, "i2").Order)
	assert.Equal(t, 1, h.stored(t, "i1").Order)
	assert.Equal(t, "Widget", h.stored(t, "i1").Name)
	assertMatchesStore(t, h)
}

func TestCatalog_CrossParentMoveRenames(t *testing.T) {
	h := newCatalogHarness(t)

	out, err := h.svc.Move(context.Background(), "i1", "if2", tree.Into)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "Widget 1", out.Name)

	stored := h.stored(t, "i1")
	assert.Equal(t, "if2", stored.ParentKey())
	assert.Equal(t, "Widget 1", stored.Name)
	assertMatchesStore(t, h)
}

func TestCatalog_IllegalMoveIsNoop(t *testing.T) {
	h := newCatalogHarness(t)

	out, err := h.svc.Move(context.Background(), "f1", "i1", tree.Below)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.NotEmpty(t, out.Reason)
	assert.Zero(t, h.store.Writes())

	ev, ok := h.observer.last("catalog.move")
	require.True(t, ok)
	assert.True(t, ev.Success)
	assert.Equal(t, out.Reason, ev.Fields["reason"])
}

func TestCatalog_PersistFailureReconciles(t *testing.T) {
	h := newCatalogHarness(t)
	h.store.FailWrite("i1", errors.New("disk full"))

	out, err := h.svc.Move(context.Background(), "i1", "if2", tree.Into)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.True(t, out.Reconciled)
	require.Error(t, out.PersistErr)
	assert.Contains(t, out.PersistErr.Error(), "disk full")

	assert.Equal(t, "if1", h.node(t, "i1").ParentKey(), "optimistic move discarded")
	assert.Equal(t, "Widget", h.node(t, "i1").Name)
	assertMatchesStore(t, h)

	ev, ok := h.observer.last("catalog.move")
	require.True(t, ok)
	assert.Equal(t, true, ev.Fields["reconciled"])
	assert.Contains(t, ev.Fields["persist_error"], "disk full")
}

func TestCatalog_DriftReconciles(t *testing.T) {
	h := newCatalogHarness(t)
	intruder := testutil.NewTestNode(domain.TypeBucket, "Intruder", testutil.WithID("x1"), testutil.WithParent("f2"), testutil.WithOrder(5))
	var once sync.Once
	h.store.FailOn = func(op, id string) error {
		if op == "update" {
			once.Do(func() {
				assert.NoError(t, h.inner.Insert(context.Background(), intruder))
			})
		}
		return nil
	}

	out, err := h.svc.Rename(context.Background(), "b2", "Forecast")
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.True(t, out.Reconciled)
	assert.Nil(t, out.PersistErr)

	assert.Equal(t, "Intruder", h.node(t, "x1").Name)
	assert.Equal(t, "Forecast", h.node(t, "b2").Name)
	assertMatchesStore(t, h)
}

func TestCatalog_FetchFailureAfterWriteIsAnError(t *testing.T) {
	h := newCatalogHarness(t)
	h.store.FailOn = func(op, _ string) error {
		if op == "fetch" {
			return errors.New("connection lost")
		}
		return nil
	}

	_, err := h.svc.Rename(context.Background(), "b2", "Forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestCatalog_DeleteRemovesSubtreeInOneBatch(t *testing.T) {
	h := newCatalogHarness(t)

	out, err := h.svc.Delete(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, out.Applied)

	nodes, err := h.inner.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, nodes, 9)
	_, ok := h.svc.Forest().Node("i3")
	assert.False(t, ok)

	var batch int
	for _, c := range h.store.Calls() {
		if c.Op == "deleteBatch" {
			batch++
		}
		assert.NotEqual(t, "delete", c.Op)
	}
	assert.Equal(t, 6, batch, "one batch covering the six subtree ids")
}

func TestCatalog_SetActive(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	out, err := h.svc.SetActive(ctx, "i1", true)
	require.NoError(t, err)
	assert.False(t, out.Applied, "already active")
	assert.Zero(t, h.store.Writes())

	out, err = h.svc.SetActive(ctx, "i1", false)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.False(t, h.stored(t, "i1").Active)
}

func TestCatalog_SetScheduleReturnsWarnings(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()
	end := time.Date(2026, 2, 1, 0, 30, 0, 0, time.UTC)
	sched := &schedule.Schedule{
		EndDate: &end,
		Ranges:  []schedule.TimeRange{schedule.Between(schedule.MustClock("22:00"), schedule.MustClock("02:00"))},
	}

	out, err := h.svc.SetSchedule(ctx, "i1", sched)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.NotEmpty(t, out.Warnings)

	stored := h.stored(t, "i1")
	require.NotNil(t, stored.Schedule)
	require.Len(t, stored.Schedule.Ranges, 1)
	assert.True(t, stored.Schedule.Ranges[0].IsOvernight())

	out, err = h.svc.SetSchedule(ctx, "i1", nil)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Nil(t, h.stored(t, "i1").Schedule)

	_, err = h.svc.SetSchedule(ctx, "b1", sched)
	assert.Error(t, err)
}

func TestCatalog_VisibleRows(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()
	noon := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	_, err := h.svc.SetActive(ctx, "b1", false)
	require.NoError(t, err)

	assert.Len(t, h.svc.VisibleRows(noon, false), 15)

	visible := tree.IDs(h.svc.VisibleRows(noon, true))
	for _, hidden := range []string{"b1", "if1", "if2", "i1", "i2", "i3"} {
		assert.NotContains(t, visible, hidden)
	}
	assert.Contains(t, visible, "b2")

	morning := &schedule.Schedule{Ranges: []schedule.TimeRange{schedule.Between(schedule.MustClock("06:00"), schedule.MustClock("10:00"))}}
	_, err = h.svc.SetActive(ctx, "b1", true)
	require.NoError(t, err)
	_, err = h.svc.SetSchedule(ctx, "i2", morning)
	require.NoError(t, err)

	visible = tree.IDs(h.svc.VisibleRows(noon, true))
	assert.NotContains(t, visible, "i2")
	assert.Contains(t, visible, "i1")
	assert.Contains(t, tree.IDs(h.svc.VisibleRows(noon.Add(-3*time.Hour), true)), "i2")
}

func TestCatalog_CopyPaste(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.Copy("b1"))
	out, err := h.svc.Paste(ctx, "f2")
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "Sport 1", out.Name)

	f := h.svc.Forest()
	assert.Equal(t, []string{"b3", out.NodeID}, childIDs(f, "f2"))
	assert.Len(t, f.Subtree(out.NodeID), 6)
	assert.Equal(t, 21, f.Len())

	clip, ok := h.svc.Clipboard()
	require.True(t, ok, "copy stays on the clipboard")
	assert.Equal(t, tree.Copy, clip.Mode)
	assertMatchesStore(t, h)
}

func TestCatalog_PasteInsertsParentsFirst(t *testing.T) {
	h := newCatalogHarness(t)

	require.NoError(t, h.svc.Copy("b1"))
	_, err := h.svc.Paste(context.Background(), "f2")
	require.NoError(t, err)

	var inserted []string
	for _, c := range h.store.Calls() {
		if c.Op == "insert" {
			inserted = append(inserted, c.ID)
		}
	}
	require.Len(t, inserted, 6)
	// n1 is the bucket; n2 and n5 its item folders.
	assert.Equal(t, "n1", inserted[0])
	assert.ElementsMatch(t, []string{"n2", "n5"}, inserted[1:3])
	assert.ElementsMatch(t, []string{"n3", "n4", "n6"}, inserted[3:])
}

func TestCatalog_CutPaste(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.Cut("i3"))
	out, err := h.svc.Paste(ctx, "if1")
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "Widget 1", out.Name)

	_, ok := h.svc.Forest().Node("i3")
	assert.False(t, ok)
	assert.Empty(t, childIDs(h.svc.Forest(), "if2"))
	_, ok = h.svc.Clipboard()
	assert.False(t, ok, "cut is consumed by paste")
	assertMatchesStore(t, h)
}

func TestCatalog_PasteEdgeCases(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	out, err := h.svc.Paste(ctx, "if1")
	require.NoError(t, err)
	assert.Equal(t, "clipboard is empty", out.Reason)

	assert.ErrorIs(t, h.svc.Copy("missing"), repository.ErrNotFound)

	require.NoError(t, h.svc.Copy("i3"))
	_, err = h.svc.Delete(ctx, "if2")
	require.NoError(t, err)
	out, err = h.svc.Paste(ctx, "if1")
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Contains(t, out.Reason, "no longer exists")

	require.NoError(t, h.svc.Copy("b1"))
	out, err = h.svc.Paste(ctx, "if1")
	require.NoError(t, err)
	assert.False(t, out.Applied, "bucket cannot go under an item folder")
	assert.NotEmpty(t, out.Reason)
}

func TestCatalog_MoveManyTemplates(t *testing.T) {
	h := newCatalogHarness(t)

	out, err := h.svc.MoveMany(context.Background(), []string{"t1", "t2"}, "tf2", tree.Into)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	assert.Equal(t, []string{"t3", "t1", "t2"}, childIDs(h.svc.Forest(), "tf2"))
	assert.Empty(t, childIDs(h.svc.Forest(), "tf1"))
	assert.Equal(t, "tf2", h.stored(t, "t2").ParentKey())
	assertMatchesStore(t, h)
}

func TestCatalog_ExternalChangeDebounced(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	_, err := h.svc.Rename(ctx, "b2", "Forecast")
	require.NoError(t, err)

	require.NoError(t, h.inner.Insert(ctx, testutil.NewTestNode(domain.TypeFolder, "Elsewhere", testutil.WithID("x1"), testutil.WithOrder(9))))

	h.clock.Advance(500 * time.Millisecond)
	changed, err := h.svc.ExternalChange(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	_, ok := h.svc.Forest().Node("x1")
	assert.False(t, ok, "notification inside the debounce window is ignored")

	h.clock.Advance(time.Second)
	changed, err = h.svc.ExternalChange(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	_, ok = h.svc.Forest().Node("x1")
	assert.True(t, ok)
}

func TestCatalog_RefreshReportsChange(t *testing.T) {
	h := newCatalogHarness(t)
	ctx := context.Background()

	changed, err := h.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, h.inner.Update(ctx, "b2", domain.NodePatch{Name: domain.StrPtr("Renamed elsewhere")}))
	changed, err = h.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Renamed elsewhere", h.node(t, "b2").Name)
}

func TestCatalog_ConcurrentOperationsSerialize(t *testing.T) {
	h := newCatalogHarness(t)
	h.store.Delay = time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Create(ctx, &domain.Node{Type: domain.TypeItem, Name: "Widget", Active: true, ParentID: domain.StrPtr("if2")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	names := map[string]bool{}
	for _, n := range h.svc.Forest().Children("if2") {
		assert.False(t, names[n.Name], "duplicate name %q", n.Name)
		names[n.Name] = true
	}
	assert.Len(t, names, 9)
	assertMatchesStore(t, h)
}
