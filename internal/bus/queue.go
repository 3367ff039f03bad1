package bus

import (
	"errors"
	"sync/atomic"

	"athena/internal/schema"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a bounded, non-blocking FIFO event queue. Any number of producers
// may publish; a single consumer drains it between heartbeats.
type Queue struct {
	ch     chan schema.Event
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan schema.Event, capacity)}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e schema.Event) error {
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

// TryNext pops the oldest queued event without blocking.
func (q *Queue) TryNext() (schema.Event, bool) {
	select {
	case e, ok := <-q.ch:
		if !ok {
			return nil, false
		}
		return e, true
	default:
		return nil, false
	}
}

// Len reports how many events are currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}
