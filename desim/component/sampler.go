package component

import (
	"math/rand"

	"github.com/procflow/procflow/desim/clock"
)

// UniformSampler returns an IATSampler drawing from U[lo, hi). The rng is
// caller-owned; sharing one *rand.Rand across samplers keeps a whole model
// on a single reproducible stream.
func UniformSampler(rng *rand.Rand, lo, hi clock.VTime) IATSampler {
	return func() clock.VTime {
		return lo + rng.Float64()*(hi-lo)
	}
}

// ExpSampler returns an IATSampler drawing exponentially distributed
// intervals with the given mean, the textbook choice for Poisson arrivals.
func ExpSampler(rng *rand.Rand, mean clock.VTime) IATSampler {
	return func() clock.VTime {
		return rng.ExpFloat64() * mean
	}
}
