// Package state implements the predicate-wait mechanism: a typed value
// with subscribers that resume once some predicate over the value (or over
// several states at once) becomes true.
package state

import (
	"sync"

	"github.com/procflow/procflow/desim/hooking"
)

// Predicate reports whether a state's current value satisfies some
// condition a waiter is blocked on.
type Predicate[T any] func(v T) bool

// Aggregation controls how a waiter's clause over multiple states combines.
type Aggregation int

const (
	// All requires every member of a multi-state clause to hold.
	All Aggregation = iota
	// Any requires at least one member of a multi-state clause to hold.
	Any
)

// Scheduler is the subset of the clock engine a State needs to unblock a
// waiter: schedule it to resume at the current time, at the original
// request's priority.
type Scheduler interface {
	ScheduleNow(waiter interface{}, priority int)
}

// Waiter is one subscriber blocked on a State (or a clause spanning several
// States sharing the same aggregation).
type Waiter[T any] struct {
	Owner     interface{}
	Predicate Predicate[T]
	Agg       Aggregation
	Priority  int

	// clause links sibling waiters registered together under an
	// all_or_any clause spanning multiple States; satisfied is flipped on
	// each clause member as its own predicate becomes true, and the
	// waiter only unblocks once the clause's aggregation is met.
	clause *clause
	// counted latches once this member has tallied toward its clause, so
	// repeated Sets on one state cannot fire an All clause alone.
	counted bool
}

// clause tracks how many members of a multi-state wait have fired.
type clause struct {
	mu        sync.Mutex
	agg       Aggregation
	total     int
	satisfied int
	fired     bool
}

func (c *clause) mark() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fired {
		return false
	}

	c.satisfied++

	ready := false
	switch c.agg {
	case Any:
		ready = c.satisfied >= 1
	case All:
		ready = c.satisfied >= c.total
	}

	if ready {
		c.fired = true
		return true
	}
	return false
}

// State holds a current value of T and an ordered list of waiters blocked
// on predicates over it.
type State[T any] struct {
	hooking.Base

	mu      sync.Mutex
	value   T
	waiters []*Waiter[T]
	sched   Scheduler
}

// New creates a State with an initial value.
func New[T any](sched Scheduler, initial T) *State[T] {
	return &State[T]{value: initial, sched: sched}
}

// Value returns the current value.
func (s *State[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set assigns a new value and re-evaluates all waiters; any whose predicate
// now holds, and whose clause aggregation is satisfied, is unblocked:
// removed from the waiter list and scheduled now at its original priority.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	remaining := s.honorLocked()
	s.waiters = remaining
	s.mu.Unlock()
}

// Trigger sets the value, honors up to max waiters, then reverts to the
// prior value within the same tick: observers polling during this call see
// the triggered value, but the state's resting value afterward is
// unchanged.
func (s *State[T]) Trigger(v T, max int) {
	s.mu.Lock()
	prior := s.value
	s.value = v

	honored := 0
	remaining := s.waiters[:0:0]
	for _, w := range s.waiters {
		if honored >= max {
			remaining = append(remaining, w)
			continue
		}
		if s.tryHonor(w) {
			honored++
			continue
		}
		remaining = append(remaining, w)
	}
	s.waiters = remaining
	s.value = prior
	s.mu.Unlock()
}

func (s *State[T]) honorLocked() []*Waiter[T] {
	remaining := s.waiters[:0:0]
	for _, w := range s.waiters {
		if s.tryHonor(w) {
			continue
		}
		remaining = append(remaining, w)
	}
	return remaining
}

// tryHonor reports whether w unblocks given the state's current value,
// scheduling its owner if so. Must be called with s.mu held.
func (s *State[T]) tryHonor(w *Waiter[T]) bool {
	if !w.Predicate(s.value) {
		return false
	}

	if w.clause != nil {
		if w.counted {
			return false
		}
		w.counted = true
		if !w.clause.mark() {
			return false
		}
	}

	if s.sched != nil {
		s.sched.ScheduleNow(w.Owner, w.Priority)
	}
	return true
}

// Wait registers a single-state waiter. If the predicate already holds, it
// returns true and the caller resumes immediately without ever being
// enqueued.
func (s *State[T]) Wait(owner interface{}, pred Predicate[T], priority int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pred(s.value) {
		return true
	}

	s.waiters = append(s.waiters, &Waiter[T]{
		Owner:     owner,
		Predicate: pred,
		Agg:       All,
		Priority:  priority,
	})
	return false
}

// CancelWait removes owner's pending waiter(s), if any, used when a waiting
// component is forcibly transitioned out of WAITING before its predicate
// fires (cancel, activate, passivate, hold, interrupt, or a fail timeout).
func (s *State[T]) CancelWait(owner interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.waiters[:0:0]
	for _, w := range s.waiters {
		if w.Owner != owner {
			remaining = append(remaining, w)
		}
	}
	s.waiters = remaining
}

// Clause pairs a State with the predicate a multi-state wait evaluates it
// against.
type Clause[T any] struct {
	State *State[T]
	Pred  Predicate[T]
}

// RegisterClause attaches owner to multiple States at once under a shared
// aggregation clause. Pairs whose predicate already holds are counted
// immediately; if that alone satisfies the aggregation, RegisterClause
// returns true without enqueueing owner anywhere. Otherwise every
// not-yet-satisfied pair is registered as a waiter sharing one clause
// object, and the clause's Scheduler call fires at most once, the instant
// the aggregation is met.
func RegisterClause[T any](owner interface{}, priority int, agg Aggregation, pairs ...Clause[T]) bool {
	c := &clause{agg: agg, total: len(pairs)}

	for _, p := range pairs {
		p.State.mu.Lock()
		holds := p.Pred(p.State.value)
		if holds {
			p.State.mu.Unlock()
			if c.mark() {
				return true
			}
			continue
		}
		p.State.waiters = append(p.State.waiters, &Waiter[T]{
			Owner:     owner,
			Predicate: p.Pred,
			Agg:       agg,
			Priority:  priority,
			clause:    c,
		})
		p.State.mu.Unlock()
	}

	return false
}
