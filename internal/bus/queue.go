// Package bus funnels market ticks, venue events, and scheduler callbacks
// into one queue consumed by a single goroutine. That loop is the only
// mutual-exclusion domain the coordinator and ledger need.
package bus

import (
	"context"
	"sync/atomic"

	"main/internal/errors"
	"main/internal/model"
	"main/internal/venue"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Event is the unit passed through the queue. Exactly one field is set.
type Event struct {
	// Tick is a market trade print.
	Tick *model.Tick
	// Venue is an order lifecycle event or own fill.
	Venue *venue.Event
	// Call is a scheduler callback re-entering the owner loop.
	Call func()
}

// Queue is a bounded event queue with a single consumer.
type Queue struct {
	ch     chan Event
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPublish enqueues without blocking. Used for ticks, which are safe to
// drop under pressure: the next print supersedes them.
func (q *Queue) TryPublish(e Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Publish blocks until the event is enqueued or ctx ends. Venue events and
// scheduler callbacks must never be dropped.
func (q *Queue) Publish(ctx context.Context, e Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes events until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-q.ch:
			if !ok {
				return
			}
			handler(e)
		}
	}
}
