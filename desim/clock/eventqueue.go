package clock

import (
	"container/heap"
	"sync"
)

// A Handle identifies a previously scheduled event so it can be cancelled.
type Handle struct {
	index int // 1-based slot in the heap; 0 means "not in the queue"
	seq   uint64
	evt   Event
}

// Time returns the scheduled time of the event this handle refers to.
func (h *Handle) Time() VTime { return h.evt.Time() }

// Priority returns the priority of the event this handle refers to.
func (h *Handle) Priority() int { return h.evt.Priority() }

// Queue is a priority-ordered future-event queue. Events compare by
// (Time asc, Priority desc, Seq asc) — earlier time first, then higher
// priority first, then insertion order (FIFO) among exact ties.
type Queue interface {
	Push(evt Event) *Handle
	Cancel(h *Handle)
	Peek() Event
	Pop() Event
	Len() int
}

// EventQueue is the default Queue implementation: an indexed binary heap
// supporting O(log n) push/pop and O(log n) removal by handle.
type EventQueue struct {
	mu      sync.Mutex
	heap    eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.heap)
	return q
}

// Push inserts evt and returns a Handle that can later be used to Cancel it.
func (q *EventQueue) Push(evt Event) *Handle {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextSeq++
	setSeq(evt, q.nextSeq)

	h := &Handle{seq: q.nextSeq, evt: evt}
	heap.Push(&q.heap, h)

	return h
}

// Cancel removes the event referenced by h, if it is still pending. Calling
// Cancel twice, or on a handle whose event has already been popped, is a
// no-op.
func (q *EventQueue) Cancel(h *Handle) {
	if h == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if h.index <= 0 || h.index > len(q.heap) || q.heap[h.index-1] != h {
		return
	}

	heap.Remove(&q.heap, h.index-1)
	h.index = 0
}

// Peek returns the lowest-ordered pending event without removing it, or nil
// if the queue is empty.
func (q *EventQueue) Peek() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil
	}

	return q.heap[0].evt
}

// Pop removes and returns the lowest-ordered pending event, or nil if the
// queue is empty.
func (q *EventQueue) Pop() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil
	}

	h := heap.Pop(&q.heap).(*Handle)
	h.index = 0

	return h.evt
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.heap)
}

type eventHeap []*Handle

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i].evt, h[j].evt

	if a.Time() != b.Time() {
		return a.Time() < b.Time()
	}

	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority() // higher priority first
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i + 1
	h[j].index = j + 1
}

func (h *eventHeap) Push(x interface{}) {
	handle := x.(*Handle)
	handle.index = len(*h) + 1
	*h = append(*h, handle)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	handle := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return handle
}
