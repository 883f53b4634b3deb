// Package monitor implements the observability subsystem that underpins the
// rest of the engine: unweighted running statistics, time-weighted
// (piecewise-constant) numeric and categorical timelines, and categorical
// frequency counts. Every concrete monitor here follows the same
// enable/disable contract: writes to a disabled monitor are silently
// dropped, reads fail with errs.Unavailable.
package monitor

import (
	"math"
	"sync"

	"github.com/procflow/procflow/desim/errs"
)

// TimeTeller supplies the current simulated time to time-weighted monitors,
// which are constructed with a TimeTeller rather than polling a global
// clock.
type TimeTeller interface {
	Now() float64
}

// NumericStatisticMonitor keeps unweighted running statistics (mean,
// variance, min, max, count) over a stream of samples, using Welford's
// online algorithm so no sample history needs to be retained.
type NumericStatisticMonitor struct {
	mu      sync.Mutex
	enabled bool

	count uint64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// NewNumericStatisticMonitor creates an enabled NumericStatisticMonitor.
func NewNumericStatisticMonitor() *NumericStatisticMonitor {
	return &NumericStatisticMonitor{enabled: true}
}

// Enable turns the monitor on.
func (m *NumericStatisticMonitor) Enable() {
	m.mu.Lock()
	m.enabled = true
	m.mu.Unlock()
}

// Disable turns the monitor off. Further writes are silently dropped;
// further reads fail with errs.Unavailable.
func (m *NumericStatisticMonitor) Disable() {
	m.mu.Lock()
	m.enabled = false
	m.mu.Unlock()
}

// AddValue records a sample. A call on a disabled monitor is a no-op.
func (m *NumericStatisticMonitor) AddValue(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}

	m.count++
	if m.count == 1 {
		m.mean = v
		m.min = v
		m.max = v
		return
	}

	delta := v - m.mean
	m.mean += delta / float64(m.count)
	m.m2 += delta * (v - m.mean)

	if v < m.min {
		m.min = v
	}
	if v > m.max {
		m.max = v
	}
}

// Count returns the number of samples recorded.
func (m *NumericStatisticMonitor) Count() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.count, nil
}

// Mean returns the unweighted sample mean.
func (m *NumericStatisticMonitor) Mean() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.mean, nil
}

// Variance returns the unweighted sample variance (population variance,
// divided by count rather than count-1).
func (m *NumericStatisticMonitor) Variance() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	if m.count == 0 {
		return 0, nil
	}

	return m.m2 / float64(m.count), nil
}

// StdDev returns the unweighted sample standard deviation.
func (m *NumericStatisticMonitor) StdDev() (float64, error) {
	v, err := m.Variance()
	if err != nil {
		return 0, err
	}

	return math.Sqrt(v), nil
}

// Min returns the smallest sample recorded.
func (m *NumericStatisticMonitor) Min() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.min, nil
}

// Max returns the largest sample recorded.
func (m *NumericStatisticMonitor) Max() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, errs.New(errs.Unavailable, "monitor is disabled")
	}

	return m.max, nil
}
