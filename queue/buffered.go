package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrBufferFull is returned when a BufferedPublisher cannot take another event.
var ErrBufferFull = errors.New("event buffer full")

const sendTimeout = 10 * time.Second

// BufferedPublisher hands events to a slower publisher (RabbitMQ) on its own
// goroutine so request handlers never wait on the broker. Events that do not
// fit in the buffer are dropped.
type BufferedPublisher struct {
	next   Publisher
	events chan ComplaintEvent
	done   chan struct{}
}

// NewBufferedPublisher holds up to size events for next. Call Run to
// start forwarding.
func NewBufferedPublisher(next Publisher, size int) *BufferedPublisher {
	if size < 1 {
		size = 1
	}
	return &BufferedPublisher{
		next:   next,
		events: make(chan ComplaintEvent, size),
		done:   make(chan struct{}),
	}
}

// Publish enqueues ev without blocking.
func (b *BufferedPublisher) Publish(_ context.Context, ev ComplaintEvent) error {
	select {
	case <-b.done:
		return nil
	default:
	}
	select {
	case b.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run forwards queued events until ctx is cancelled. Events still queued at
// that point are dropped.
func (b *BufferedPublisher) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			if n := len(b.events); n > 0 {
				slog.Warn("dropping queued complaint events on shutdown", "count", n)
			}
			return
		case ev := <-b.events:
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			if err := b.next.Publish(sendCtx, ev); err != nil {
				slog.Warn("forward complaint event", "event", ev.Type, "complaint_id", ev.ComplaintID, "error", err)
			}
			cancel()
		}
	}
}
