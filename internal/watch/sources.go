package watch

import (
	"context"
	"log/slog"
	"time"
)

// RevisionSource reports a counter that every writer bumps.
type RevisionSource interface {
	Revision(ctx context.Context) (int64, error)
}

// Poll reads src every interval and emits an event whenever the revision
// differs from the last one seen. Read errors are logged and retried on the
// next tick.
func Poll(ctx context.Context, src RevisionSource, interval time.Duration, logger *slog.Logger) <-chan Event {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		last, err := src.Revision(ctx)
		if err != nil {
			logger.Warn("reading revision", "error", err)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rev, err := src.Revision(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("reading revision", "error", err)
					}
					continue
				}
				if rev == last {
					continue
				}
				last = rev
				select {
				case events <- Event{Source: "revision"}:
				default:
				}
			}
		}
	}()
	return events
}

// Listener delivers store notifications to fn until ctx is done.
type Listener interface {
	Listen(ctx context.Context, fn func(op string)) error
}

// Notifications adapts a Listener to an event channel. A failed listen is
// logged and closes the channel.
func Notifications(ctx context.Context, l Listener, logger *slog.Logger) <-chan Event {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		err := l.Listen(ctx, func(op string) {
			select {
			case events <- Event{Source: "notify", Detail: op}:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("listening for store notifications", "error", err)
		}
	}()
	return events
}

// Merge fans several event channels into one, closed once all inputs are.
func Merge(chans ...<-chan Event) <-chan Event {
	out := make(chan Event, 1)
	done := make(chan struct{}, len(chans))
	for _, ch := range chans {
		go func() {
			for ev := range ch {
				out <- ev
			}
			done <- struct{}{}
		}()
	}
	go func() {
		for range chans {
			<-done
		}
		close(out)
	}()
	return out
}

// Handler is called once per event; ExternalChange on the catalog service
// fits.
type Handler func(ctx context.Context) (bool, error)

// Run feeds events to h until ctx is done or events closes. Handler errors
// are logged; onChange, if set, runs after a handler reports a change.
func Run(ctx context.Context, events <-chan Event, h Handler, onChange func(), logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			changed, err := h(ctx)
			if err != nil {
				logger.Warn("external change refresh failed", "source", ev.Source, "error", err)
				continue
			}
			if changed {
				logger.Debug("catalog refreshed", "source", ev.Source, "detail", ev.Detail)
				if onChange != nil {
					onChange()
				}
			}
		}
	}
}
