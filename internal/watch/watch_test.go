package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestFiles_EmitsForNewShardDirectory(t *testing.T) {
	base := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := Files(ctx, base, FileOptions{Match: JSONFiles, Coalesce: 20 * time.Millisecond})
	require.NoError(t, err)

	// Allow the watcher goroutine to subscribe before writing.
	time.Sleep(50 * time.Millisecond)
	shard := filepath.Join(base, "nodes", "ab")
	require.NoError(t, os.MkdirAll(shard, 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(shard, "abc.json"), []byte(`{}`), 0o644))

	ev := waitEvent(t, ch)
	assert.Equal(t, "files", ev.Source)
	assert.Contains(t, ev.Detail, ".json")
}

func TestFiles_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Files(ctx, t.TempDir(), FileOptions{})
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestFiles_EmptyRoot(t *testing.T) {
	_, err := Files(context.Background(), "", FileOptions{})
	assert.Error(t, err)
}

func TestMatchers(t *testing.T) {
	match := SQLiteFiles("/home/me/.crawl/crawl.db")
	assert.True(t, match("/home/me/.crawl/crawl.db"))
	assert.True(t, match("/home/me/.crawl/crawl.db-wal"))
	assert.False(t, match("/home/me/.crawl/notes.txt"))

	assert.True(t, JSONFiles("nodes/ab/abc.json"))
	assert.False(t, JSONFiles("nodes/ab/abc.json.tmp"))
}

func TestThrottle_CoalescesBurst(t *testing.T) {
	th := newThrottle(30 * time.Millisecond)
	defer th.Stop()

	var mu sync.Mutex
	var got []Event
	send := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	}
	for i := 0; i < 10; i++ {
		th.Enqueue(Event{Source: "files", Detail: "first"}, send)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Detail)
}

type fakeRevision struct {
	rev atomic.Int64
}

func (f *fakeRevision) Revision(context.Context) (int64, error) {
	return f.rev.Load(), nil
}

func TestPoll_EmitsOnRevisionChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeRevision{}
	src.rev.Store(3)

	ch := Poll(ctx, src, 10*time.Millisecond, nil)

	select {
	case <-ch:
		t.Fatal("no change yet")
	case <-time.After(40 * time.Millisecond):
	}

	src.rev.Store(4)
	ev := waitEvent(t, ch)
	assert.Equal(t, "revision", ev.Source)
}

type fakeListener struct {
	ops []string
	err error
}

func (f fakeListener) Listen(ctx context.Context, fn func(op string)) error {
	for _, op := range f.ops {
		fn(op)
	}
	return f.err
}

func TestNotifications(t *testing.T) {
	ch := Notifications(context.Background(), fakeListener{ops: []string{"UPDATE"}, err: errors.New("conn closed")}, nil)

	ev := waitEvent(t, ch)
	assert.Equal(t, Event{Source: "notify", Detail: "UPDATE"}, ev)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestMergeAndRun(t *testing.T) {
	a := make(chan Event, 1)
	b := make(chan Event, 1)
	a <- Event{Source: "files"}
	b <- Event{Source: "revision"}
	close(a)
	close(b)

	var calls, changes int
	handler := func(context.Context) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("store offline")
		}
		return true, nil
	}
	Run(context.Background(), Merge(a, b), handler, func() { changes++ }, nil)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, changes)
}
