package lock

import (
	"sync"

	"github.com/roach88/seqlock/internal/ir"
)

// EventType distinguishes driver events.
type EventType int

const (
	// EventTick applies one clock edge with Input.
	EventTick EventType = iota + 1
	// EventQuery reports the current signals without a clock edge.
	EventQuery
)

func (t EventType) String() string {
	switch t {
	case EventTick:
		return "tick"
	case EventQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the driver loop.
type Event struct {
	Type  EventType
	Input ir.Input
}

// eventQueue is an unbounded FIFO of events.
//
// Producers (a stdin reader, a test) may enqueue from any goroutine while
// the driver's Run loop is the only consumer. Availability is signalled on
// a channel so Run can wait on it alongside ctx.Done().
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends e. Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that fires when events may be available, and is
// closed once the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Close stops further enqueues and wakes the consumer. Queued events are
// still delivered.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
