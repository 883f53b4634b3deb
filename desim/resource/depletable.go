package resource

import (
	"log"
	"sync"

	"github.com/procflow/procflow/desim/errs"
	"github.com/procflow/procflow/desim/monitor"
)

// PutMode controls how DepletableResource.Put behaves when a deposit would
// exceed capacity.
type PutMode int

const (
	// PutFail rejects the entire put with a CapacityViolation error.
	PutFail PutMode = iota
	// PutCap deposits only up to capacity, silently dropping the excess.
	PutCap
	// PutSchedule deposits up to capacity now and retains the excess as a
	// pending deposit, opportunistically applied as level drops.
	PutSchedule
)

// DepletableResource tracks a level independent of capacity: requests take
// from the level, puts replenish it.
type DepletableResource struct {
	name string
	tt   monitor.TimeTeller
	sch  Scheduler
	mode PutMode

	mu       sync.Mutex
	capacity float64
	level    float64
	pending  float64

	requesters *requesterQueue

	scanning      bool
	pendingRescan bool

	levelTimeline    *monitor.NumericTimeline
	capacityTimeline *monitor.NumericTimeline
	requesterSize    *monitor.NumericTimeline
}

// NewDepletableResource creates a DepletableResource with the given
// capacity and initial level.
func NewDepletableResource(name string, capacity, initialLevel float64, mode PutMode, tt monitor.TimeTeller, sch Scheduler) *DepletableResource {
	r := &DepletableResource{
		name:       name,
		tt:         tt,
		sch:        sch,
		mode:       mode,
		capacity:   capacity,
		level:      initialLevel,
		requesters: &requesterQueue{},

		levelTimeline:    monitor.NewDoubleTimeline(tt),
		capacityTimeline: monitor.NewDoubleTimeline(tt),
		requesterSize:    monitor.NewIntTimeline(tt),
	}
	r.levelTimeline.AddValue(initialLevel)
	r.capacityTimeline.AddValue(capacity)
	return r
}

// Name returns the resource's identifying name.
func (r *DepletableResource) Name() string { return r.name }

// Level returns the current level.
func (r *DepletableResource) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

// Capacity returns the current capacity.
func (r *DepletableResource) Capacity() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// SetCapacity reconfigures capacity and triggers a re-honoring scan.
func (r *DepletableResource) SetCapacity(c float64) {
	r.mu.Lock()
	r.capacity = c
	r.capacityTimeline.AddValue(c)
	r.mu.Unlock()

	r.applyPending()
	r.rescan()
}

// Request attempts to take quantity units from the level for owner. If
// level >= quantity, it takes immediately and returns true; otherwise owner
// is enqueued and Request returns false.
func (r *DepletableResource) Request(owner interface{}, quantity float64, priority int) bool {
	if quantity <= 0 {
		log.Panicf("resource: request quantity %v must be positive", quantity)
	}

	r.mu.Lock()
	if r.level >= quantity {
		r.level -= quantity
		r.levelTimeline.AddValue(r.level)
		r.mu.Unlock()
		r.applyPending()
		return true
	}
	r.mu.Unlock()

	r.requesters.push(owner, quantity, priority)
	r.requesterSize.AddValue(float64(r.requesters.len()))
	return false
}

// CancelRequest removes owner from the requester queue without honoring
// it.
func (r *DepletableResource) CancelRequest(owner interface{}) {
	r.requesters.remove(owner)
	r.requesterSize.AddValue(float64(r.requesters.len()))
}

// Put increases the level by quantity, subject to the resource's PutMode
// when the deposit would exceed capacity, then triggers a re-honoring
// scan.
func (r *DepletableResource) Put(quantity float64) error {
	r.mu.Lock()

	room := r.capacity - r.level
	switch {
	case quantity <= room:
		r.level += quantity
		if r.level > r.capacity { // fp drift when quantity == room
			r.level = r.capacity
		}
	case r.mode == PutFail:
		r.mu.Unlock()
		return errs.New(errs.CapacityViolation, "put %v exceeds available capacity %v on %q", quantity, room, r.name)
	case r.mode == PutCap:
		r.level = r.capacity
	default: // PutSchedule
		r.level = r.capacity
		r.pending += quantity - room
	}
	r.levelTimeline.AddValue(r.level)
	r.mu.Unlock()

	r.rescan()
	return nil
}

// applyPending opportunistically deposits from the pending (SCHEDULE-mode
// overflow) amount as room frees up.
func (r *DepletableResource) applyPending() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending <= 0 {
		return
	}

	room := r.capacity - r.level
	if room <= 0 {
		return
	}

	deposit := room
	if deposit > r.pending {
		deposit = r.pending
	}
	r.level += deposit
	if r.level > r.capacity {
		r.level = r.capacity
	}
	r.pending -= deposit
	r.levelTimeline.AddValue(r.level)
}

// Release is syntactic parity with CountingResource; a DepletableResource
// has no claims to release, so components return units via Put instead.
// Release is retained so generic driver code can treat both resource
// kinds uniformly when a model chooses to (e.g. a vehicle "returning" fuel
// is expressed as Put, not Release).
func (r *DepletableResource) Release(quantity float64) error {
	return r.Put(quantity)
}

// rescan re-honors queued requesters. Depletable honoring is best-effort,
// head-only in the sense that no partial claim is ever granted, but a
// blocked head does not stall the rest of the queue: lower entries that
// fit in the remaining level may still be honored in order.
func (r *DepletableResource) rescan() {
	r.mu.Lock()
	if r.scanning {
		r.pendingRescan = true
		r.mu.Unlock()
		return
	}
	r.scanning = true
	r.mu.Unlock()

	for {
		r.mu.Lock()
		entries := r.requesters.snapshot()
		var honored *request
		for _, e := range entries {
			if e.quantity <= r.level {
				honored = e
				break
			}
		}
		if honored == nil {
			r.mu.Unlock()
			break
		}

		r.requesters.removeEntry(honored)
		r.requesterSize.AddValue(float64(r.requesters.len()))
		r.level -= honored.quantity
		r.levelTimeline.AddValue(r.level)
		r.mu.Unlock()

		r.sch.ScheduleNow(honored.owner, honored.priority)
	}

	r.mu.Lock()
	r.scanning = false
	again := r.pendingRescan
	r.pendingRescan = false
	r.mu.Unlock()

	if again {
		r.rescan()
	}
}

// RequesterLen returns the number of components currently queued awaiting
// a take.
func (r *DepletableResource) RequesterLen() int { return r.requesters.len() }

// LevelTimeline returns the timeline of level over time.
func (r *DepletableResource) LevelTimeline() *monitor.NumericTimeline { return r.levelTimeline }

// CapacityTimeline returns the timeline of capacity over time.
func (r *DepletableResource) CapacityTimeline() *monitor.NumericTimeline { return r.capacityTimeline }

// RequesterSizeTimeline returns the timeline of requester queue length.
func (r *DepletableResource) RequesterSizeTimeline() *monitor.NumericTimeline { return r.requesterSize }
