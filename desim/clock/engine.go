package clock

import (
	"log"
	"reflect"
	"sync"

	"github.com/procflow/procflow/desim/hooking"
)

// TimeTeller can be used to read the current simulated time.
type TimeTeller interface {
	Now() VTime
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller
	Schedule(e Event) *Handle
	Cancel(h *Handle)
}

// SimulationEndHandler is invoked once, after an Engine's Run loop
// terminates because the queue drained or the stop predicate held.
type SimulationEndHandler interface {
	Handle(now VTime)
}

// StopFunc reports whether the engine should stop before processing the
// next event that would run at time `next`.
type StopFunc func(now VTime, next VTime) bool

// Engine drains the future-event queue, advancing simulated time and
// dispatching events to their handlers one at a time.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run drains events until the queue is empty or stop returns true.
	// A nil stop runs to completion.
	Run(stop StopFunc) error

	Pause()
	Continue()

	RegisterSimulationEndHandler(h SimulationEndHandler)
	Finished()
}

// SerialEngine is an Engine that processes events strictly one at a time,
// on a single goroutine, in (time, priority, insertion-order) order.
//
// STANDBY components are represented as secondary events: each time a
// primary event is popped, every secondary event armed before that pop runs
// first, at the popped event's time. A poll that re-arms itself during the
// drain waits for the next pop, so a STANDBY component is polled exactly
// once per popped event rather than spinning at one instant.
type SerialEngine struct {
	hooking.Base

	timeLock sync.RWMutex
	time     VTime

	queue          Queue
	secondaryQueue Queue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine with an empty queue.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		queue:          NewEventQueue(),
		secondaryQueue: NewEventQueue(),
	}
}

// Schedule inserts evt into the appropriate queue. Scheduling an event
// earlier than the current time is a programmer error and panics.
func (e *SerialEngine) Schedule(evt Event) *Handle {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf("scheduling an event earlier than current time: evt %s @ %v, now %v",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	if evt.IsSecondary() {
		return e.secondaryQueue.Push(evt)
	}

	return e.queue.Push(evt)
}

// Cancel removes a previously scheduled event. It is idempotent: cancelling
// an already-fired or already-cancelled handle is a no-op.
func (e *SerialEngine) Cancel(h *Handle) {
	if h == nil {
		return
	}

	e.queue.Cancel(h)
	e.secondaryQueue.Cancel(h)
}

func (e *SerialEngine) readNow() VTime {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()
	return e.time
}

func (e *SerialEngine) writeNow(t VTime) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Now returns the time of the event currently (or most recently) being
// processed.
func (e *SerialEngine) Now() VTime {
	return e.readNow()
}

// Run drains events until the primary queue empties or stop reports true.
// Secondary (STANDBY) events alone cannot advance time, so a run with only
// polls left terminates.
func (e *SerialEngine) Run(stop StopFunc) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		if e.queue.Len() == 0 {
			return nil
		}

		e.pauseLock.Lock()

		evt := e.queue.Peek()
		if stop != nil && stop(e.readNow(), evt.Time()) {
			e.pauseLock.Unlock()
			return nil
		}

		now := e.readNow()
		if evt.Time() < now {
			log.Panicf("cannot run event in the past: evt %s @ %v, now %v",
				reflect.TypeOf(evt), evt.Time(), now)
		}

		e.writeNow(evt.Time())

		// Pending STANDBY polls run first at this instant. Only the polls
		// armed before this pop are drained; a poll that re-arms itself
		// waits for the next popped event.
		pending := e.secondaryQueue.Len()
		for i := 0; i < pending; i++ {
			e.handle(e.secondaryQueue.Pop())
		}

		// A poll may have cancelled the peeked head or scheduled ahead of
		// it, so pop whatever is next now and re-anchor the clock to it.
		if e.queue.Len() > 0 {
			next := e.queue.Pop()
			e.writeNow(next.Time())
			e.handle(next)
		}

		e.pauseLock.Unlock()
	}
}

func (e *SerialEngine) handle(evt Event) {
	ctx := hooking.HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	_ = evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)
}

// Pause blocks Run from starting to process another event until Continue is
// called. Pause is idempotent.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue reverses a prior Pause. Continue is idempotent.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// RegisterSimulationEndHandler adds a handler invoked by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(h SimulationEndHandler) {
	e.endHandlers = append(e.endHandlers, h)
}

// Finished invokes every registered SimulationEndHandler with the current
// time. Call this once Run returns.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
