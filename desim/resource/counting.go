package resource

import (
	"log"
	"sync"

	"github.com/procflow/procflow/desim/monitor"
)

// CountingResource models a capacity-bounded pool of indistinguishable
// units: components claim and release quantities, never tracking a level
// independent of what is claimed.
type CountingResource struct {
	name string
	tt   monitor.TimeTeller
	sch  Scheduler

	mu       sync.Mutex
	capacity float64

	claims     *claimerSet
	requesters *requesterQueue

	scanning      bool
	pendingRescan bool

	claimedTimeline      *monitor.NumericTimeline
	capacityTimeline     *monitor.NumericTimeline
	availabilityTimeline *monitor.NumericTimeline
	occupancyTimeline    *monitor.NumericTimeline
	requesterSize        *monitor.NumericTimeline
	claimerSize          *monitor.NumericTimeline
	lengthOfStay         *monitor.NumericStatisticMonitor
}

// NewCountingResource creates a CountingResource with the given starting
// capacity.
func NewCountingResource(name string, capacity float64, tt monitor.TimeTeller, sch Scheduler) *CountingResource {
	r := &CountingResource{
		name:       name,
		tt:         tt,
		sch:        sch,
		capacity:   capacity,
		claims:     newClaimerSet(),
		requesters: &requesterQueue{},

		claimedTimeline:      monitor.NewDoubleTimeline(tt),
		capacityTimeline:     monitor.NewDoubleTimeline(tt),
		availabilityTimeline: monitor.NewDoubleTimeline(tt),
		occupancyTimeline:    monitor.NewDoubleTimeline(tt),
		requesterSize:        monitor.NewIntTimeline(tt),
		claimerSize:          monitor.NewIntTimeline(tt),
		lengthOfStay:         monitor.NewNumericStatisticMonitor(),
	}
	r.capacityTimeline.AddValue(capacity)
	r.availabilityTimeline.AddValue(capacity)
	return r
}

// Name returns the resource's identifying name.
func (r *CountingResource) Name() string { return r.name }

// Capacity returns the current capacity.
func (r *CountingResource) Capacity() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// Claimed returns the sum of all current claims.
func (r *CountingResource) Claimed() float64 {
	return r.claims.total()
}

// SetCapacity reconfigures the resource's capacity and triggers a
// re-honoring scan (capacity increase may unblock queued requesters).
func (r *CountingResource) SetCapacity(c float64) {
	r.mu.Lock()
	r.capacity = c
	r.capacityTimeline.AddValue(c)
	r.availabilityTimeline.AddValue(c - r.claims.total())
	r.mu.Unlock()

	r.rescan()
}

// Request attempts to claim quantity units for owner at the given
// priority. If immediately honorable, it claims and returns true. If not,
// owner is enqueued on the requester queue in priority-then-FIFO order and
// Request returns false; the caller is responsible for transitioning owner
// to REQUESTING and for scheduling any fail-timeout.
func (r *CountingResource) Request(owner interface{}, quantity float64, priority int) bool {
	if quantity <= 0 {
		log.Panicf("resource: request quantity %v must be positive", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claims.total()+quantity <= r.capacity {
		r.commitLocked(owner, quantity)
		return true
	}

	r.requesters.push(owner, quantity, priority)
	r.requesterSize.AddValue(float64(r.requesters.len()))
	return false
}

func (r *CountingResource) commitLocked(owner interface{}, quantity float64) {
	r.claims.add(owner, quantity, r.tt.Now())
	r.claimedTimeline.AddValue(r.claims.total())
	r.availabilityTimeline.AddValue(r.capacity - r.claims.total())
	if r.capacity > 0 {
		r.occupancyTimeline.AddValue(r.claims.total() / r.capacity)
	}
	r.claimerSize.AddValue(float64(r.claims.count()))
}

// CancelRequest removes owner from the requester queue without honoring
// it, used when a queued requester is forcibly transitioned out of
// REQUESTING (cancel, activate, passivate, hold, interrupt, or fail
// timeout).
func (r *CountingResource) CancelRequest(owner interface{}) {
	r.requesters.remove(owner)
	r.requesterSize.AddValue(float64(r.requesters.len()))
}

// Release reduces owner's claim by quantity, or clears it entirely if all
// is true, then triggers a re-honoring scan.
func (r *CountingResource) Release(owner interface{}, quantity float64, all bool) {
	stayed, cleared := r.claims.release(owner, quantity, all, r.tt.Now())
	if cleared {
		r.lengthOfStay.AddValue(stayed)
	}

	r.mu.Lock()
	r.claimedTimeline.AddValue(r.claims.total())
	r.availabilityTimeline.AddValue(r.capacity - r.claims.total())
	if r.capacity > 0 {
		r.occupancyTimeline.AddValue(r.claims.total() / r.capacity)
	}
	r.claimerSize.AddValue(float64(r.claims.count()))
	r.mu.Unlock()

	r.rescan()
}

// rescan re-honors queued requesters in priority-then-FIFO order. For
// counting resources a blocked head stalls the entire scan, preserving
// strict FIFO among equal-priority requesters. Reentrancy is fenced: a
// release triggered from inside an in-progress scan (e.g. by the very
// component being honored) schedules a follow-up scan instead of
// recursing.
func (r *CountingResource) rescan() {
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
		head := r.requesters.peekHead()
		if head == nil || r.claims.total()+head.quantity > r.capacity {
			r.mu.Unlock()
			break
		}
		r.requesters.popHead()
		r.requesterSize.AddValue(float64(r.requesters.len()))
		r.commitLocked(head.owner, head.quantity)
		r.mu.Unlock()

		r.sch.ScheduleNow(head.owner, head.priority)
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
// a claim.
func (r *CountingResource) RequesterLen() int { return r.requesters.len() }

// ClaimedBy returns the quantity currently claimed by owner.
func (r *CountingResource) ClaimedBy(owner interface{}) float64 {
	return r.claims.quantityOf(owner)
}

// ClaimedTimeline returns the timeline of total claimed quantity.
func (r *CountingResource) ClaimedTimeline() *monitor.NumericTimeline { return r.claimedTimeline }

// CapacityTimeline returns the timeline of capacity over time.
func (r *CountingResource) CapacityTimeline() *monitor.NumericTimeline { return r.capacityTimeline }

// AvailabilityTimeline returns the timeline of capacity minus claimed.
func (r *CountingResource) AvailabilityTimeline() *monitor.NumericTimeline {
	return r.availabilityTimeline
}

// OccupancyTimeline returns the timeline of claimed/capacity.
func (r *CountingResource) OccupancyTimeline() *monitor.NumericTimeline { return r.occupancyTimeline }

// RequesterSizeTimeline returns the timeline of requester queue length.
func (r *CountingResource) RequesterSizeTimeline() *monitor.NumericTimeline { return r.requesterSize }

// ClaimerSizeTimeline returns the timeline of the number of current
// claimers.
func (r *CountingResource) ClaimerSizeTimeline() *monitor.NumericTimeline { return r.claimerSize }

// LengthOfStayStatistics returns the unweighted statistics of how long
// claims are held before being fully released.
func (r *CountingResource) LengthOfStayStatistics() *monitor.NumericStatisticMonitor {
	return r.lengthOfStay
}
