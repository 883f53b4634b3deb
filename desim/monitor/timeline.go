package monitor

import (
	"sort"
	"sync"

	"github.com/procflow/procflow/desim/errs"
)

// Sample is one (timestamp, value) breakpoint of a piecewise-constant
// timeline: the value holds from Time until the next breakpoint.
type Sample struct {
	Time  float64
	Value float64
}

// NumericTimeline is a piecewise-constant, time-weighted numeric signal.
// A new breakpoint is recorded on every AddValue call; a second AddValue at
// the same timestamp replaces the previous breakpoint rather than creating a
// zero-width segment. IntTimeline and DoubleTimeline are the same type
// under two names, distinguishing intent the way the rest of the engine
// distinguishes VTime from a plain float64: callers of an IntTimeline are
// expected to only ever push integral values.
type NumericTimeline struct {
	mu      sync.Mutex
	tt      TimeTeller
	enabled bool
	samples []Sample
}

// IntTimeline is a NumericTimeline whose callers only push integral values.
type IntTimeline = NumericTimeline

// DoubleTimeline is a NumericTimeline whose callers push arbitrary reals.
type DoubleTimeline = NumericTimeline

// NewIntTimeline creates an enabled timeline with an implicit zero-valued
// breakpoint at the current time, per the convention that a timeline's
// domain starts at its creation instant, not at its first explicit sample.
func NewIntTimeline(tt TimeTeller) *IntTimeline {
	return newTimeline(tt)
}

// NewDoubleTimeline creates an enabled timeline, see NewIntTimeline.
func NewDoubleTimeline(tt TimeTeller) *DoubleTimeline {
	return newTimeline(tt)
}

func newTimeline(tt TimeTeller) *NumericTimeline {
	return &NumericTimeline{
		tt:      tt,
		enabled: true,
		samples: []Sample{{Time: tt.Now(), Value: 0}},
	}
}

// Enable turns the timeline on.
func (tl *NumericTimeline) Enable() {
	tl.mu.Lock()
	tl.enabled = true
	tl.mu.Unlock()
}

// Disable turns the timeline off. Further writes are silently dropped;
// further reads fail with errs.Unavailable.
func (tl *NumericTimeline) Disable() {
	tl.mu.Lock()
	tl.enabled = false
	tl.mu.Unlock()
}

// AddValue records a new breakpoint at the current time. A call on a
// disabled timeline is a no-op. Time is required to be non-decreasing
// across calls, matching the invariant that a timeline's breakpoints are
// always recorded in simulated-time order.
func (tl *NumericTimeline) AddValue(v float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return
	}

	now := tl.tt.Now()
	last := &tl.samples[len(tl.samples)-1]

	if now < last.Time {
		panic("monitor: timeline timestamp decreased")
	}
	if now == last.Time {
		last.Value = v
		return
	}

	tl.samples = append(tl.samples, Sample{Time: now, Value: v})
}

// Value returns the value held at time t. t must be at or after the
// timeline's first breakpoint; t at or beyond the last recorded breakpoint
// returns the last recorded value, since the final segment is understood to
// extend indefinitely until the next write.
func (tl *NumericTimeline) Value(t float64) (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	return tl.valueAtLocked(t)
}

func (tl *NumericTimeline) valueAtLocked(t float64) (float64, error) {
	if t < tl.samples[0].Time {
		return 0, errs.New(errs.DomainError, "time %v precedes the timeline's first breakpoint %v", t, tl.samples[0].Time)
	}

	idx := sort.Search(len(tl.samples), func(i int) bool {
		return tl.samples[i].Time > t
	}) - 1

	return tl.samples[idx].Value, nil
}

// Series returns a copy of the recorded breakpoints.
func (tl *NumericTimeline) Series() ([]Sample, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return nil, errs.New(errs.Unavailable, "timeline is disabled")
	}

	out := make([]Sample, len(tl.samples))
	copy(out, tl.samples)
	return out, nil
}

// Mean returns the time-weighted mean from the timeline's first breakpoint
// to now, extending the last segment to now with trapezoidal (here,
// step-weighted, since the signal is piecewise constant) integration.
func (tl *NumericTimeline) Mean() (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	weighted, total := tl.weightedSumLocked(tl.tt.Now())
	if total == 0 {
		return tl.samples[0].Value, nil
	}

	return weighted / total, nil
}

// Variance returns the time-weighted variance from the timeline's first
// breakpoint to now.
func (tl *NumericTimeline) Variance() (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	now := tl.tt.Now()
	weighted, total := tl.weightedSumLocked(now)
	if total == 0 {
		return 0, nil
	}
	mean := weighted / total

	var weightedSq float64
	tl.walkSegmentsLocked(now, func(v, dur float64) {
		weightedSq += (v - mean) * (v - mean) * dur
	})

	return weightedSq / total, nil
}

func (tl *NumericTimeline) weightedSumLocked(upto float64) (weighted, total float64) {
	tl.walkSegmentsLocked(upto, func(v, dur float64) {
		weighted += v * dur
		total += dur
	})
	return
}

func (tl *NumericTimeline) walkSegmentsLocked(upto float64, f func(v, dur float64)) {
	for i, s := range tl.samples {
		end := upto
		if i+1 < len(tl.samples) {
			end = tl.samples[i+1].Time
		}
		if end <= s.Time {
			continue
		}
		f(s.Value, end-s.Time)
	}
}

// Min returns the smallest value ever recorded as a breakpoint.
func (tl *NumericTimeline) Min() (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	min := tl.samples[0].Value
	for _, s := range tl.samples[1:] {
		if s.Value < min {
			min = s.Value
		}
	}
	return min, nil
}

// Max returns the largest value ever recorded as a breakpoint.
func (tl *NumericTimeline) Max() (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	max := tl.samples[0].Value
	for _, s := range tl.samples[1:] {
		if s.Value > max {
			max = s.Value
		}
	}
	return max, nil
}

// combine merges two timelines breakpoint-by-breakpoint, producing a frozen
// (non-live) timeline whose domain is the intersection of the two inputs'
// domains: it starts at the later of the two first breakpoints. At each
// breakpoint of either input, op is applied to the step-interpolated value
// of both inputs at that instant.
func combine(a, b *NumericTimeline, op func(x, y float64) float64) (*NumericTimeline, error) {
	a.mu.Lock()
	b.mu.Lock()
	defer a.mu.Unlock()
	defer b.mu.Unlock()

	if !a.enabled || !b.enabled {
		return nil, errs.New(errs.Unavailable, "one of the combined timelines is disabled")
	}

	start := a.samples[0].Time
	if b.samples[0].Time > start {
		start = b.samples[0].Time
	}

	now := a.tt.Now()
	if t := b.tt.Now(); t < now {
		now = t
	}

	breakpoints := map[float64]struct{}{start: {}}
	for _, s := range a.samples {
		if s.Time >= start && s.Time <= now {
			breakpoints[s.Time] = struct{}{}
		}
	}
	for _, s := range b.samples {
		if s.Time >= start && s.Time <= now {
			breakpoints[s.Time] = struct{}{}
		}
	}

	times := make([]float64, 0, len(breakpoints))
	for t := range breakpoints {
		times = append(times, t)
	}
	sort.Float64s(times)

	merged := make([]Sample, 0, len(times))
	for _, t := range times {
		av, err := a.valueAtLocked(t)
		if err != nil {
			return nil, err
		}
		bv, err := b.valueAtLocked(t)
		if err != nil {
			return nil, err
		}
		merged = append(merged, Sample{Time: t, Value: op(av, bv)})
	}

	return &NumericTimeline{
		tt:      frozenTimeTeller(now),
		enabled: true,
		samples: merged,
	}, nil
}

// Add returns a new timeline holding the elementwise sum of tl and other.
func (tl *NumericTimeline) Add(other *NumericTimeline) (*NumericTimeline, error) {
	return combine(tl, other, func(x, y float64) float64 { return x + y })
}

// Sub returns a new timeline holding the elementwise difference of tl and
// other.
func (tl *NumericTimeline) Sub(other *NumericTimeline) (*NumericTimeline, error) {
	return combine(tl, other, func(x, y float64) float64 { return x - y })
}

// Mul returns a new timeline holding the elementwise product of tl and
// other.
func (tl *NumericTimeline) Mul(other *NumericTimeline) (*NumericTimeline, error) {
	return combine(tl, other, func(x, y float64) float64 { return x * y })
}

// Div returns a new timeline holding the elementwise quotient of tl and
// other.
func (tl *NumericTimeline) Div(other *NumericTimeline) (*NumericTimeline, error) {
	return combine(tl, other, func(x, y float64) float64 { return x / y })
}

// frozenTimeTeller pins Now() to a fixed instant, used by combine so the
// returned timeline's Mean/Variance extend to the same "now" it was merged
// at, rather than drifting with either input's live clock.
type frozenTimeTeller float64

func (f frozenTimeTeller) Now() float64 { return float64(f) }
