// Package component implements the component state machine and its
// coroutine-style process driver: a Component expresses its behavior as a
// lazy sequence of interaction intents (hold, passivate, wait, request,
// standby), modeled here as a goroutine that suspends, at intent
// boundaries only, on an unbuffered channel handoff with the driver — the
// stackful green-thread substitute for first-class coroutines.
package component

import (
	"fmt"
	"sync"

	"github.com/procflow/procflow/desim/clock"
	"github.com/procflow/procflow/desim/errs"
	"github.com/procflow/procflow/desim/hooking"
	"github.com/procflow/procflow/desim/naming"
	"github.com/procflow/procflow/desim/resource"
	"github.com/procflow/procflow/desim/state"
)

// HookPosStateChange fires whenever a Component's Kind changes.
var HookPosStateChange = &hooking.HookPos{Name: "ComponentStateChange"}

// ProcessFunc is the body of a Component's behavior: it runs on its own
// goroutine and suspends only by calling a method on the Process handle it
// is given.
type ProcessFunc func(p *Process)

// snapshot captures what Interrupt needs to restore on a matching Resume.
type snapshot struct {
	kind       Kind
	remaining  clock.VTime
	hasHandle  bool
	wasFailed  bool
}

// Component is one entity driven by the engine: identity, lifecycle state,
// an optional scheduled event handle, an optional attachment to a
// Resource's or State's queue, and the machinery backing its coroutine.
type Component struct {
	naming.Base
	hooks hooking.Base

	driver *Driver

	mu            sync.Mutex
	kind          Kind
	failed        bool
	proc          ProcessFunc
	mainHandle    *clock.Handle
	failHandle    *clock.Handle
	cancelQueue   func()
	pendingKind   Kind
	interruptStk  []snapshot

	yieldCh  chan intent
	resumeCh chan resumeSignal
	running  bool
}

// resumeSignal is sent by the driver to wake a parked component goroutine.
type resumeSignal struct {
	failed bool
	kill   bool
}

// restartIntent is panicked by Driver.Activate to unwind the current
// goroutine when a CURRENT component restarts itself with a new process.
type restartIntent struct {
	proc ProcessFunc
	at   clock.VTime
}

// killed is panicked into a parked goroutine to terminate it when its
// Component is forced to DATA from outside (Cancel) while suspended.
type killed struct{}

// NewComponent creates a Component with the given name (auto-indexed per
// naming.AutoIndexer if requested is empty or index-triggering) and
// process body. It starts in DATA; activation is the caller's
// responsibility, matching the "optionally activated on construction"
// lifecycle note.
func NewComponent(d *Driver, name string, proc ProcessFunc) *Component {
	c := &Component{
		driver:   d,
		kind:     DATA,
		proc:     proc,
		yieldCh:  make(chan intent),
		resumeCh: make(chan resumeSignal),
	}
	c.Base = naming.MakeBase(d.indexer.Next("Component", name))
	return c
}

// Kind returns the component's current lifecycle state.
func (c *Component) Kind() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

// Failed reports whether the component's most recent suspension ended in
// a timeout or forced transition rather than its condition firing.
// Resuming to CURRENT clears it.
func (c *Component) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Component) setKind(k Kind) {
	c.mu.Lock()
	prior := c.kind
	c.kind = k
	c.mu.Unlock()

	if prior != k {
		c.hooks.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosStateChange, Item: prior, Detail: k})
	}
}

// AcceptHook, NumHooks and Hooks implement hooking.Hookable.
func (c *Component) AcceptHook(h hooking.Hook) { c.hooks.AcceptHook(h) }
func (c *Component) NumHooks() int             { return c.hooks.NumHooks() }
func (c *Component) Hooks() []hooking.Hook     { return c.hooks.Hooks() }

// intent is the tagged variant a process goroutine sends to the driver at
// a suspension point.
type intent struct {
	kind intentKind
	// hold
	duration clock.VTime
	priority int
	// standby: no extra fields
	// done: the process body returned; component goes to DATA
}

type intentKind int

const (
	intentHold intentKind = iota
	intentPassivate
	intentStandby
	intentDone
	intentRestarted
)

// Process is the handle a ProcessFunc uses to suspend itself. Every method
// blocks the calling goroutine until the driver resumes it, which is the
// only place a Component's process is allowed to suspend.
type Process struct {
	c *Component
}

// Self returns the Component this Process handle drives.
func (p *Process) Self() *Component { return p.c }

// Hold suspends the component for duration ticks at the given priority,
// then resumes it. A negative duration is an InvalidTransition error.
func (p *Process) Hold(duration clock.VTime, priority int) error {
	if duration < 0 {
		return errs.New(errs.InvalidTransition, "hold duration %v must be non-negative", duration)
	}
	p.c.yieldCh <- intent{kind: intentHold, duration: duration, priority: priority}
	sig := <-p.c.resumeCh
	if sig.kill {
		panic(killed{})
	}
	return nil
}

// Passivate suspends the component until an explicit Activate call.
func (p *Process) Passivate() {
	p.c.mu.Lock()
	p.c.pendingKind = PASSIVE
	p.c.mu.Unlock()
	p.c.yieldCh <- intent{kind: intentPassivate}
	sig := <-p.c.resumeCh
	if sig.kill {
		panic(killed{})
	}
}

// Standby suspends the component until the next event is popped, at which
// point it is re-invoked; it remains in STANDBY across ticks until the
// process itself leaves STANDBY by yielding something else.
func (p *Process) Standby() {
	p.c.yieldCh <- intent{kind: intentStandby}
	sig := <-p.c.resumeCh
	if sig.kill {
		panic(killed{})
	}
}

// Request attempts to claim quantity units of a counting resource,
// blocking until honored or failed. failAt/failDelay mirror the
// spec's request() semantics; pass clock.VTime(math.Inf(1)) for either to
// disable the timeout.
func (p *Process) Request(r *resource.CountingResource, quantity float64, priority int, failAt, failDelay clock.VTime) error {
	if quantity <= 0 {
		return errs.New(errs.DomainError, "request quantity %v must be positive", quantity)
	}
	if capacity := r.Capacity(); quantity > capacity {
		return errs.New(errs.DomainError,
			"request for %v can never be satisfied by %q with capacity %v", quantity, r.Name(), capacity)
	}

	c := p.c
	if r.Request(c, quantity, priority) {
		return nil
	}

	c.mu.Lock()
	c.cancelQueue = func() { r.CancelRequest(c) }
	c.mu.Unlock()

	return p.blockUntilHonored(REQUESTING, failAt, failDelay, func() { r.CancelRequest(c) })
}

// RequestDepletable is the DepletableResource analogue of Request: it
// blocks until quantity units can be taken from the resource's level.
func (p *Process) RequestDepletable(r *resource.DepletableResource, quantity float64, priority int, failAt, failDelay clock.VTime) error {
	if quantity <= 0 {
		return errs.New(errs.DomainError, "request quantity %v must be positive", quantity)
	}
	if capacity := r.Capacity(); quantity > capacity {
		return errs.New(errs.DomainError,
			"take of %v can never be satisfied by %q with capacity %v", quantity, r.Name(), capacity)
	}

	c := p.c
	if r.Request(c, quantity, priority) {
		return nil
	}

	c.mu.Lock()
	c.cancelQueue = func() { r.CancelRequest(c) }
	c.mu.Unlock()

	return p.blockUntilHonored(REQUESTING, failAt, failDelay, func() { r.CancelRequest(c) })
}

// Wait blocks until pred holds for s's current value, or until the
// predicate already holds, in which case it returns immediately without
// ever suspending.
func Wait[T any](p *Process, s *state.State[T], pred state.Predicate[T], priority int, failAt, failDelay clock.VTime) error {
	c := p.c
	if s.Wait(c, pred, priority) {
		return nil
	}

	c.mu.Lock()
	c.cancelQueue = func() { s.CancelWait(c) }
	c.mu.Unlock()

	return p.blockUntilHonored(WAITING, failAt, failDelay, func() { s.CancelWait(c) })
}

// WaitAll blocks until every clause's predicate has held for its state's
// value, WaitAny until at least one has. Clauses whose predicate already
// holds at registration count immediately; if that alone satisfies the
// aggregation the caller resumes without ever suspending.
func WaitAll[T any](p *Process, priority int, failAt, failDelay clock.VTime, clauses ...state.Clause[T]) error {
	return waitClauses(p, state.All, priority, failAt, failDelay, clauses)
}

// WaitAny is the Any-aggregation counterpart of WaitAll.
func WaitAny[T any](p *Process, priority int, failAt, failDelay clock.VTime, clauses ...state.Clause[T]) error {
	return waitClauses(p, state.Any, priority, failAt, failDelay, clauses)
}

func waitClauses[T any](p *Process, agg state.Aggregation, priority int, failAt, failDelay clock.VTime, clauses []state.Clause[T]) error {
	c := p.c

	// detach drops every registration the clause left behind: states whose
	// member never fired, and, once the aggregation is met, states whose
	// member fired without being the one that completed it.
	detach := func() {
		for _, cl := range clauses {
			cl.State.CancelWait(c)
		}
	}

	if state.RegisterClause(c, priority, agg, clauses...) {
		detach()
		return nil
	}

	c.mu.Lock()
	c.cancelQueue = detach
	c.mu.Unlock()

	err := p.blockUntilHonored(WAITING, failAt, failDelay, detach)
	detach()
	return err
}

// blockUntilHonored parks the component's goroutine as REQUESTING/WAITING,
// arming a fail-timeout event if failAt/failDelay are finite, then blocks
// until either the driver resumes it (honored, or the timeout fired).
func (p *Process) blockUntilHonored(parkKind Kind, failAt, failDelay clock.VTime, onFail func()) error {
	c := p.c

	deadline := failAt
	now := c.driver.clk.Now()
	if d := now + failDelay; d < deadline {
		deadline = d
	}

	c.mu.Lock()
	if !isInf(deadline) {
		c.failHandle = c.driver.clk.Schedule(newResumeEvent(deadline, 0, c, true))
	}
	c.pendingKind = parkKind
	c.mu.Unlock()

	c.yieldCh <- intent{kind: intentPassivate} // parked; driver does not reschedule on its own
	sig := <-p.c.resumeCh
	if sig.kill {
		panic(killed{})
	}
	if sig.failed {
		onFail()
	}
	return nil
}

func isInf(v clock.VTime) bool {
	return v > 1e300 || v < -1e300
}

// Driver owns the clock and dispatches resume events to components; it is
// the concrete resource.Scheduler / state.Scheduler implementation the
// rest of the engine schedules onto.
type Driver struct {
	clk     clock.EventScheduler
	indexer *naming.AutoIndexer
}

// NewDriver creates a Driver bound to a clock.EventScheduler (typically a
// *clock.SerialEngine).
func NewDriver(clk clock.EventScheduler) *Driver {
	return &Driver{clk: clk, indexer: naming.NewAutoIndexer()}
}

// ScheduleNow implements resource.Scheduler and state.Scheduler: it cancels
// any outstanding fail-timeout for owner and schedules it to become
// CURRENT at the present time, at the given priority.
func (d *Driver) ScheduleNow(owner interface{}, priority int) {
	c, ok := owner.(*Component)
	if !ok {
		return
	}

	c.mu.Lock()
	if c.failHandle != nil {
		d.clk.Cancel(c.failHandle)
		c.failHandle = nil
	}
	c.cancelQueue = nil
	c.mu.Unlock()

	h := d.clk.Schedule(newResumeEvent(d.clk.Now(), priority, c, false))
	c.mu.Lock()
	c.mainHandle = h
	c.mu.Unlock()
}

// resumeEvent is the clock.Event that makes a Component CURRENT.
type resumeEvent struct {
	clock.Base
	target *Component
	failed bool
}

func newResumeEvent(at clock.VTime, priority int, target *Component, failed bool) *resumeEvent {
	e := &resumeEvent{target: target, failed: failed}
	e.Base = clock.NewBase(at, e, priority)
	return e
}

func (e *resumeEvent) Handle(_ clock.Event) error {
	e.target.driver.run(e.target, e.failed)
	return nil
}

// Activate schedules proc (or the component's existing process, if proc is
// nil) to run at now+delay (or at, if given). Activating the CURRENT
// component is rejected unless an explicit proc is given, in which case it
// is understood as "restart me" and unwinds the calling goroutine.
func (d *Driver) Activate(c *Component, proc ProcessFunc, at *clock.VTime, delay clock.VTime) error {
	c.mu.Lock()
	kind := c.kind
	c.mu.Unlock()

	target := d.clk.Now() + delay
	if at != nil {
		target = *at
	}

	if kind == CURRENT {
		if proc == nil {
			return errs.New(errs.InvalidTransition, "activate on the current component requires an explicit process")
		}
		panic(restartIntent{proc: proc, at: target})
	}

	d.teardown(c)

	if proc != nil {
		c.mu.Lock()
		c.proc = proc
		c.mu.Unlock()
	}

	d.schedule(c, target, 0)
	return nil
}

// Cancel forces c immediately to DATA, removing any pending scheduler
// entry and any queue membership, and terminating its goroutine if one is
// parked.
func (d *Driver) Cancel(c *Component) {
	c.mu.Lock()
	wasQueued := c.cancelQueue != nil
	kind := c.kind
	c.mu.Unlock()

	if wasQueued && (kind == REQUESTING || kind == WAITING) {
		c.mu.Lock()
		c.failed = true
		c.mu.Unlock()
	}

	d.teardown(c)
	d.killIfParked(c)
	c.setKind(DATA)
}

// Interrupt suspends c, snapshotting enough to restore it on a matching
// Resume. Nested interrupts stack: a second Interrupt on an already
// INTERRUPTED component just increments the stack depth.
func (d *Driver) Interrupt(c *Component) error {
	c.mu.Lock()
	kind := c.kind
	c.mu.Unlock()

	if kind == DATA || kind == CURRENT {
		return errs.New(errs.InvalidTransition, "interrupt requires a non-DATA, non-CURRENT component")
	}

	if kind == INTERRUPTED {
		c.mu.Lock()
		c.interruptStk = append(c.interruptStk, snapshot{kind: INTERRUPTED})
		c.mu.Unlock()
		return nil
	}

	snap := snapshot{kind: kind}

	switch kind {
	case SCHEDULED, STANDBY:
		c.mu.Lock()
		if c.mainHandle != nil {
			snap.remaining = c.mainHandle.Time() - d.clk.Now()
			snap.hasHandle = true
			d.clk.Cancel(c.mainHandle)
			c.mainHandle = nil
		}
		c.mu.Unlock()
	case REQUESTING, WAITING:
		c.mu.Lock()
		if c.cancelQueue != nil {
			c.cancelQueue()
			c.cancelQueue = nil
		}
		if c.failHandle != nil {
			d.clk.Cancel(c.failHandle)
			c.failHandle = nil
		}
		c.failed = true
		c.mu.Unlock()
	case PASSIVE:
		// nothing scheduled to tear down
	}

	c.mu.Lock()
	snap.wasFailed = c.failed
	c.interruptStk = append(c.interruptStk, snap)
	c.mu.Unlock()
	c.setKind(INTERRUPTED)
	return nil
}

// Resume restores c's state from the innermost pending Interrupt snapshot.
// If further snapshots remain (nested interrupts), c stays INTERRUPTED.
func (d *Driver) Resume(c *Component) error {
	c.mu.Lock()
	if c.kind != INTERRUPTED || len(c.interruptStk) == 0 {
		c.mu.Unlock()
		return errs.New(errs.InvalidTransition, "resume requires an interrupted component")
	}
	n := len(c.interruptStk)
	snap := c.interruptStk[n-1]
	c.interruptStk = c.interruptStk[:n-1]
	c.mu.Unlock()

	if snap.kind == INTERRUPTED {
		return nil
	}

	switch snap.kind {
	case SCHEDULED, STANDBY:
		at := d.clk.Now()
		if snap.hasHandle {
			at += snap.remaining
		}
		d.schedule(c, at, 0)
		c.setKind(snap.kind)
	case REQUESTING, WAITING:
		// Queue membership was already torn down by Interrupt and failed
		// was set; resuming means becoming CURRENT now, same as a fail
		// timeout firing.
		h := d.clk.Schedule(newResumeEvent(d.clk.Now(), 0, c, true))
		c.mu.Lock()
		c.mainHandle = h
		c.mu.Unlock()
		c.setKind(SCHEDULED)
	case PASSIVE:
		c.setKind(PASSIVE)
	case DATA:
		c.setKind(DATA)
	}

	return nil
}

func (d *Driver) teardown(c *Component) {
	c.mu.Lock()
	if c.mainHandle != nil {
		d.clk.Cancel(c.mainHandle)
		c.mainHandle = nil
	}
	if c.failHandle != nil {
		d.clk.Cancel(c.failHandle)
		c.failHandle = nil
	}
	if c.cancelQueue != nil {
		c.cancelQueue()
		c.cancelQueue = nil
	}
	c.interruptStk = nil
	c.mu.Unlock()
}

func (d *Driver) killIfParked(c *Component) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if !running {
		return
	}

	c.resumeCh <- resumeSignal{kill: true}
	<-c.yieldCh // drain the intentDone the goroutine sends once it unwinds
}

// schedule arms a plain resume (hold-style) event for c at time t.
func (d *Driver) schedule(c *Component, t clock.VTime, priority int) {
	h := d.clk.Schedule(newResumeEvent(t, priority, c, false))
	c.mu.Lock()
	c.mainHandle = h
	c.mu.Unlock()
	c.setKind(SCHEDULED)
}

// run is the synchronous handoff: it starts c's goroutine (if not already
// running) or resumes it, then blocks until c yields its next intent or
// terminates, enacting whichever transition that intent implies before
// returning control to the clock engine.
func (d *Driver) run(c *Component, failed bool) {
	c.mu.Lock()
	c.failed = failed
	running := c.running
	c.mu.Unlock()

	c.setKind(CURRENT)

	if !running {
		c.mu.Lock()
		c.running = true
		c.mu.Unlock()
		go d.runGoroutine(c)
	} else {
		c.resumeCh <- resumeSignal{failed: failed}
	}

	it := <-c.yieldCh
	d.enact(c, it)
}

// runGoroutine is the top-level wrapper around a Component's process
// body, recovering restart/kill signals so they unwind cleanly without
// crashing the simulation.
func (d *Driver) runGoroutine(c *Component) {
	defer func() {
		r := recover()
		switch v := r.(type) {
		case nil:
			c.yieldCh <- intent{kind: intentDone}
		case restartIntent:
			c.mu.Lock()
			c.proc = v.proc
			c.running = false
			c.mu.Unlock()
			d.schedule(c, v.at, 0)
			c.yieldCh <- intent{kind: intentRestarted}
		case killed:
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			c.yieldCh <- intent{kind: intentDone}
		default:
			panic(fmt.Sprintf("component: unrecovered panic in process %q: %v", c.Name(), r))
		}
	}()

	c.proc(&Process{c: c})
}

// enact applies the transition implied by a freshly yielded intent.
func (d *Driver) enact(c *Component, it intent) {
	switch it.kind {
	case intentHold:
		d.schedule(c, d.clk.Now()+it.duration, it.priority)
	case intentPassivate:
		c.mu.Lock()
		c.running = true
		c.mu.Unlock()
		c.setKind(c.pendingParkKind())
	case intentStandby:
		d.scheduleStandby(c)
	case intentDone:
		c.mu.Lock()
		c.running = false
		c.mainHandle = nil
		c.failHandle = nil
		c.cancelQueue = nil
		c.mu.Unlock()
		c.setKind(DATA)
	case intentRestarted:
		// A restartIntent panic already rescheduled c via d.schedule; no
		// further action needed here.
	}
}

// pendingParkKind resolves the Kind a Passivate-style yield settles into,
// set by whichever of Passivate/Request/Wait triggered it.
func (c *Component) pendingParkKind() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingKind
}

// scheduleStandby arranges for c to be re-invoked at the time of the next
// popped event, which the engine guarantees by processing all STANDBY
// components as secondary events.
func (d *Driver) scheduleStandby(c *Component) {
	h := d.clk.Schedule(standbyEvent(c))
	c.mu.Lock()
	c.mainHandle = h
	c.mu.Unlock()
	c.setKind(STANDBY)
}

func standbyEvent(c *Component) clock.Event {
	e := newResumeEvent(c.driver.clk.Now(), 0, c, false)
	e.MarkSecondary()
	return e
}
