// Package queue implements the per-user delivery queue: an unbounded FIFO of
// pending messages written by any number of broadcasters and drained by the
// owning receiver's worker.
package queue

import (
	"sync"
	"time"

	"chatrelay/internal/protocol"
)

// DefaultWait is how long Dequeue waits for an item before giving up.
const DefaultWait = time.Second

// Queue is safe for concurrent producers. It is designed for one consumer.
type Queue struct {
	mu    sync.Mutex
	items []protocol.Message

	// avail carries at most one pending wake-up; the consumer always rechecks
	// items under mu, so coalesced signals lose nothing.
	avail chan struct{}
	wait  time.Duration
}

// New returns an empty queue using DefaultWait.
func New() *Queue {
	return NewWithWait(DefaultWait)
}

// NewWithWait returns an empty queue whose Dequeue waits up to d.
func NewWithWait(d time.Duration) *Queue {
	if d <= 0 {
		d = DefaultWait
	}
	return &Queue{
		avail: make(chan struct{}, 1),
		wait:  d,
	}
}

// Enqueue appends m and wakes the consumer. It never blocks on the consumer.
func (q *Queue) Enqueue(m protocol.Message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()

	select {
	case q.avail <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest message. If the queue stays empty
// for the whole wait window it returns false.
func (q *Queue) Dequeue() (protocol.Message, bool) {
	timer := time.NewTimer(q.wait)
	defer timer.Stop()

	for {
		if m, ok := q.pop(); ok {
			return m, true
		}
		select {
		case <-q.avail:
		case <-timer.C:
			// An Enqueue may have landed right at the deadline.
			return q.pop()
		}
	}
}

func (q *Queue) pop() (protocol.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return protocol.Message{}, false
	}
	m := q.items[0]
	q.items[0] = protocol.Message{}
	q.items = q.items[1:]
	return m, true
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
