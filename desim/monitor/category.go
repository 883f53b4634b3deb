package monitor

import (
	"sort"
	"sync"

	"github.com/procflow/procflow/desim/errs"
)

// CategoryMonitor keeps an unweighted running frequency count over a stream
// of categorical samples.
type CategoryMonitor[T comparable] struct {
	mu      sync.Mutex
	enabled bool
	counts  map[T]uint64
	total   uint64
}

// NewCategoryMonitor creates an enabled CategoryMonitor.
func NewCategoryMonitor[T comparable]() *CategoryMonitor[T] {
	return &CategoryMonitor[T]{enabled: true, counts: make(map[T]uint64)}
}

// Enable turns the monitor on.
func (m *CategoryMonitor[T]) Enable() {
	m.mu.Lock()
	m.enabled = true
	m.mu.Unlock()
}

// Disable turns the monitor off.
func (m *CategoryMonitor[T]) Disable() {
	m.mu.Lock()
	m.enabled = false
	m.mu.Unlock()
}

// AddValue records a categorical sample. A call on a disabled monitor is a
// no-op.
func (m *CategoryMonitor[T]) AddValue(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}

	m.counts[v]++
	m.total++
}

// Count returns the number of times category v was recorded.
func (m *CategoryMonitor[T]) Count(v T) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.counts[v], nil
}

// Total returns the number of samples recorded across all categories.
func (m *CategoryMonitor[T]) Total() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.total, nil
}

// Proportion returns the fraction of samples recorded for category v.
func (m *CategoryMonitor[T]) Proportion(v T) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	if m.total == 0 {
		return 0, nil
	}

	return float64(m.counts[v]) / float64(m.total), nil
}

// Merge combines the frequency counts of several CategoryMonitors into a
// new one; the merged total equals the sum of the inputs' totals.
func Merge[T comparable](monitors ...*CategoryMonitor[T]) (*CategoryMonitor[T], error) {
	out := NewCategoryMonitor[T]()

	for _, m := range monitors {
		m.mu.Lock()
		if !m.enabled {
			m.mu.Unlock()
			return nil, errs.New(errs.Unavailable, "one of the merged monitors is disabled")
		}
		for v, c := range m.counts {
			out.counts[v] += c
		}
		out.total += m.total
		m.mu.Unlock()
	}

	return out, nil
}

// categorySample is one breakpoint of a categorical timeline.
type categorySample[T comparable] struct {
	Time  float64
	Value T
}

// CategoryTimeline is the categorical analogue of NumericTimeline: a
// piecewise-constant, time-weighted signal over a comparable category type,
// used to compute time-weighted category proportions rather than an
// unweighted frequency count.
type CategoryTimeline[T comparable] struct {
	mu      sync.Mutex
	tt      TimeTeller
	enabled bool
	samples []categorySample[T]
}

// NewCategoryTimeline creates an enabled timeline holding initial from the
// current time onward.
func NewCategoryTimeline[T comparable](tt TimeTeller, initial T) *CategoryTimeline[T] {
	return &CategoryTimeline[T]{
		tt:      tt,
		enabled: true,
		samples: []categorySample[T]{{Time: tt.Now(), Value: initial}},
	}
}

// Enable turns the timeline on.
func (tl *CategoryTimeline[T]) Enable() {
	tl.mu.Lock()
	tl.enabled = true
	tl.mu.Unlock()
}

// Disable turns the timeline off.
func (tl *CategoryTimeline[T]) Disable() {
	tl.mu.Lock()
	tl.enabled = false
	tl.mu.Unlock()
}

// AddValue records a new breakpoint at the current time, replacing the
// previous breakpoint if it falls on the same timestamp.
func (tl *CategoryTimeline[T]) AddValue(v T) {
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

	tl.samples = append(tl.samples, categorySample[T]{Time: now, Value: v})
}

// Value returns the category held at time t.
func (tl *CategoryTimeline[T]) Value(t float64) (T, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	var zero T
	if !tl.enabled {
		return zero, errs.New(errs.Unavailable, "timeline is disabled")
	}
	if t < tl.samples[0].Time {
		return zero, errs.New(errs.DomainError, "time %v precedes the timeline's first breakpoint %v", t, tl.samples[0].Time)
	}

	idx := sort.Search(len(tl.samples), func(i int) bool {
		return tl.samples[i].Time > t
	}) - 1

	return tl.samples[idx].Value, nil
}

// Proportion returns the time-weighted fraction of time the timeline held
// category v, from its first breakpoint to now.
func (tl *CategoryTimeline[T]) Proportion(v T) (float64, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if !tl.enabled {
		return 0, errs.New(errs.Unavailable, "timeline is disabled")
	}

	now := tl.tt.Now()
	var matched, total float64

	for i, s := range tl.samples {
		end := now
		if i+1 < len(tl.samples) {
			end = tl.samples[i+1].Time
		}
		if end <= s.Time {
			continue
		}
		dur := end - s.Time
		total += dur
		if s.Value == v {
			matched += dur
		}
	}

	if total == 0 {
		return 0, nil
	}

	return matched / total, nil
}
