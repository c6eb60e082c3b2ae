package watch

import (
	"sync"
	"time"
)

// throttle coalesces bursts: the first event of a burst arms a timer, later
// ones are folded in, and one event is sent when the timer fires.
type throttle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending *Event
	delay   time.Duration
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay}
}

func (t *throttle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		t.pending = &ev
	}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
}

func (t *throttle) flush(send func(Event)) {
	t.mu.Lock()
	ev := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	if ev != nil {
		send(*ev)
	}
}

func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
