package component

import "github.com/procflow/procflow/desim/clock"

// IATSampler produces successive inter-arrival-time samples; seeding and
// distribution shape are the caller's responsibility, matching the
// engine's policy of consuming opaque samplers rather than owning
// randomness itself.
type IATSampler func() clock.VTime

// Factory produces a new Component on each arrival, typically one that
// self-activates.
type Factory func(d *Driver) *Component

// Generator drives repeated arrivals: on each tick it samples an IAT,
// holds for that duration, and invokes its factory to produce a new
// Component.
type Generator struct {
	driver  *Driver
	self    *Component
	iat     IATSampler
	factory Factory

	total   int
	until   clock.VTime
	hasUntil bool

	spawned int
}

// NewGenerator creates a Generator. total <= 0 means unbounded arrivals;
// until, if set via WithUntil, stops spawning once the clock reaches it.
func NewGenerator(d *Driver, name string, iat IATSampler, factory Factory, total int) *Generator {
	g := &Generator{driver: d, iat: iat, factory: factory, total: total}
	g.self = NewComponent(d, name, g.run)
	return g
}

// WithUntil bounds the generator to stop spawning once the clock reaches
// the given time.
func (g *Generator) WithUntil(t clock.VTime) *Generator {
	g.until = t
	g.hasUntil = true
	return g
}

// Activate starts the generator at now+delay.
func (g *Generator) Activate(delay clock.VTime) error {
	return g.driver.Activate(g.self, nil, nil, delay)
}

// Component exposes the generator's own driving Component, mainly so
// tests and monitoring code can inspect its lifecycle state.
func (g *Generator) Component() *Component { return g.self }

// Spawned returns the number of components produced so far.
func (g *Generator) Spawned() int { return g.spawned }

func (g *Generator) run(p *Process) {
	for {
		if g.total > 0 && g.spawned >= g.total {
			return
		}
		if g.hasUntil && g.driver.clk.Now() >= g.until {
			return
		}

		iat := g.iat()
		if err := p.Hold(iat, 0); err != nil {
			return
		}

		if g.hasUntil && g.driver.clk.Now() >= g.until {
			return
		}

		g.factory(g.driver)
		g.spawned++
	}
}
