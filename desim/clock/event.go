// Package clock implements the future-event queue and the engine that
// drains it, advancing simulated time as it goes.
package clock

import (
	"github.com/procflow/procflow/desim/hooking"
	"github.com/procflow/procflow/desim/id"
)

// VTime is a point (or duration) in simulated time.
type VTime = float64

// HookPosBeforeEvent fires just before an engine hands an event to its
// handler.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent fires just after an engine's handler returns.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// A Handler processes events. An event is always bound to the handler that
// scheduled it.
type Handler interface {
	Handle(e Event) error
}

// Event is something scheduled to happen at a future (or current) simulated
// time.
type Event interface {
	Time() VTime
	Priority() int
	Seq() uint64
	Handler() Handler
	IsSecondary() bool
}

// Base provides the bookkeeping fields shared by every concrete event type.
// Embed it and only add the fields specific to the event.
type Base struct {
	id       string
	time     VTime
	priority int
	seq      uint64
	handler  Handler
	secondary bool
}

// NewBase creates a Base. seq is assigned later, when the event is pushed
// onto a queue, so that FIFO order among equal (time, priority) events
// reflects insertion order into that specific queue.
func NewBase(t VTime, handler Handler, priority int) Base {
	return Base{
		id:       id.Generate(),
		time:     t,
		priority: priority,
		handler:  handler,
	}
}

// ID returns the event's unique ID.
func (b Base) ID() string { return b.id }

// Time returns the scheduled time.
func (b Base) Time() VTime { return b.time }

// Priority returns the event's priority. Higher values run first among
// events scheduled for the same time.
func (b Base) Priority() int { return b.priority }

// Seq returns the insertion-order tie-breaker.
func (b Base) Seq() uint64 { return b.seq }

// Handler returns the handler that owns this event.
func (b Base) Handler() Handler { return b.handler }

// IsSecondary reports whether this is a secondary event. An engine runs
// pending secondary events at the time of the next popped primary event,
// before that primary event is handled.
func (b Base) IsSecondary() bool { return b.secondary }

// MarkSecondary flags the event as secondary.
func (b *Base) MarkSecondary() { b.secondary = true }

func setSeq(e Event, seq uint64) {
	if s, ok := e.(interface{ setSeq(uint64) }); ok {
		s.setSeq(seq)
	}
}

func (b *Base) setSeq(seq uint64) { b.seq = seq }
