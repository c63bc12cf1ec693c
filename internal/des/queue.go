// Package des implements the simulation kernel: a tie-broken priority
// event queue and an integer-coded scheduler dispatching typed handlers
// over it. It has no notion of RFID, readers, or tags — it is the same
// general-purpose event-queue kernel regardless of what domain sits on
// top of it.
package des

import "container/heap"

// Code identifies an event kind. Callers define their own named
// constants over this type; the kernel itself never inspects Code's
// value beyond using it as a dispatch key.
type Code int

// event is one pending entry in the queue. Ordering is strictly by
// (Time, ID): equal timestamps are broken by insertion order, giving a
// deterministic replay regardless of heap internals.
type event struct {
	id    int64
	code  Code
	time  float64
	index int
	att   any
}

// eventHeap implements container/heap.Interface over a slice of *event.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].id < h[j].id
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// EventQueue is a priority queue of pending events with logical
// (tombstone-based) cancellation: Remove marks an id cancelled without
// touching the heap, and Pop skips cancelled entries as it drains them.
type EventQueue struct {
	heap      eventHeap
	cancelled map[int64]struct{}
	nextID    int64
}

// NewEventQueue returns an empty queue ready for use.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		heap:      eventHeap{},
		cancelled: make(map[int64]struct{}),
		nextID:    1,
	}
}

// Push schedules a new event and returns its id, usable with Remove.
func (q *EventQueue) Push(code Code, time float64, index int, att any) int64 {
	id := q.nextID
	q.nextID++
	heap.Push(&q.heap, &event{id: id, code: code, time: time, index: index, att: att})
	return id
}

// Pop removes and returns the earliest non-cancelled event, or nil if
// the queue has nothing left to run.
func (q *EventQueue) Pop() *event {
	for q.heap.Len() > 0 {
		ev := heap.Pop(&q.heap).(*event)
		if _, dead := q.cancelled[ev.id]; dead {
			delete(q.cancelled, ev.id)
			continue
		}
		return ev
	}
	return nil
}

// Remove cancels a previously scheduled event by id. Removing an id
// that has already fired, already been cancelled, or never existed is
// a harmless no-op: callers are not required to track event lifetimes.
func (q *EventQueue) Remove(id int64) {
	if _, already := q.cancelled[id]; !already {
		q.cancelled[id] = struct{}{}
	}
}

// Empty reports whether the queue has no pending events left to pop
// (cancelled entries still occupying heap slots count as pending).
func (q *EventQueue) Empty() bool { return q.heap.Len() == 0 }

// Size returns the number of entries still in the heap, including any
// not-yet-skipped cancelled ones.
func (q *EventQueue) Size() int { return q.heap.Len() }
