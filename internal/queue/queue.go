// Package queue provides the bounded hand-off between the driver delivery
// path and the persistence loop.
package queue

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrTimedOut is returned by Pop when no item arrived within the timeout.
var ErrTimedOut = errors.New("queue: pop timed out")

// Bounded is a fixed-capacity single-producer/single-consumer FIFO.
//
// TryPush never blocks and rejects the new item when the queue is full.
// Pop blocks up to a timeout. The zero value is not usable; use New.
type Bounded[T any] struct {
	items   chan T
	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// New returns a queue holding at most capacity items.
// A capacity below 1 is raised to 1.
func New[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{items: make(chan T, capacity)}
}

// TryPush enqueues v if there is room and reports whether it was accepted.
func (q *Bounded[T]) TryPush(v T) bool {
	select {
	case q.items <- v:
		q.pushed.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop removes the oldest item, waiting up to timeout for one to arrive.
func (q *Bounded[T]) Pop(timeout time.Duration) (T, error) {
	// Fast path avoids allocating a timer while frames are flowing.
	select {
	case v := <-q.items:
		return v, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-q.items:
		return v, nil
	case <-timer.C:
		var zero T
		return zero, ErrTimedOut
	}
}

// Len returns the number of buffered items.
func (q *Bounded[T]) Len() int { return len(q.items) }

// Cap returns the fixed capacity.
func (q *Bounded[T]) Cap() int { return cap(q.items) }

// Pushed returns how many items were accepted since creation.
func (q *Bounded[T]) Pushed() uint64 { return q.pushed.Load() }

// Dropped returns how many items were rejected because the queue was full.
func (q *Bounded[T]) Dropped() uint64 { return q.dropped.Load() }
