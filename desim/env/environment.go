// Package env owns the clock, the process driver, the components and
// generators created through it, and the named-singleton registry
// collaborators are injected through. Resources and states created through
// it are bound to its clock and driver but are not retained by it. It is the "F" component of
// the engine: the only object that drives the other five, and the one
// programs actually construct.
package env

import (
	"reflect"

	"github.com/procflow/procflow/desim/clock"
	"github.com/procflow/procflow/desim/component"
	"github.com/procflow/procflow/desim/eventlog"
	"github.com/procflow/procflow/desim/hooking"
	"github.com/procflow/procflow/desim/naming"
	"github.com/procflow/procflow/desim/resource"
	"github.com/procflow/procflow/desim/state"
)

// Environment owns the clock, the process driver, and every component and
// generator created through it, keyed by name. All mutation happens while at most one component is
// CURRENT, per the engine's single-threaded contract; Environment itself
// adds no locking beyond what clock, component, resource, and state
// already provide.
type Environment struct {
	hooking.Base

	engine *clock.SerialEngine
	driver *component.Driver
	reg    *Registry
	log    eventlog.Sink

	components map[string]*component.Component
	generators map[string]*component.Generator
}

// Option configures an Environment at construction time.
type Option func(*Environment)

// WithEventLog installs a sink that receives one record after each event
// the engine processes. The
// default is eventlog.Discard, matching the spec's "event log, when
// enabled" framing: logging is off unless the caller opts in.
func WithEventLog(sink eventlog.Sink) Option {
	return func(e *Environment) { e.log = sink }
}

// New creates an Environment with a fresh clock, process driver, and
// registry: the object dependency bindings and typed lookups live on.
func New(opts ...Option) *Environment {
	engine := clock.NewSerialEngine()
	e := &Environment{
		engine:     engine,
		driver:     component.NewDriver(engine),
		reg:        newRegistry(),
		log:        eventlog.Discard{},
		components: make(map[string]*component.Component),
		generators: make(map[string]*component.Generator),
	}

	if e.log != nil {
		engine.AcceptHook(hooking.Func(func(ctx hooking.HookCtx) {
			if ctx.Pos != clock.HookPosAfterEvent {
				return
			}
			e.log.Write(eventlog.Record{
				Time:  engine.Now(),
				Kind:  "event",
				Actor: reflect.TypeOf(ctx.Item).String(),
			})
		}))
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Now returns the simulated time of the event currently (or most
// recently) being processed.
func (e *Environment) Now() clock.VTime { return e.engine.Now() }

// Clock exposes the underlying scheduler for packages that need to embed
// clock.Event themselves (e.g. a model's own timeout events).
func (e *Environment) Clock() *clock.SerialEngine { return e.engine }

// Driver exposes the process driver backing every Component the
// Environment creates, for code that drives components directly rather
// than through the Environment's convenience constructors.
func (e *Environment) Driver() *component.Driver { return e.driver }

// Registry returns the Environment's dependency registry.
func (e *Environment) Registry() *Registry { return e.reg }

// NewComponent creates and registers a Component with the given process
// body. An empty name (or one ending in "-", ".", or "_") is auto-indexed
// per naming.AutoIndexer.
func (e *Environment) NewComponent(name string, proc component.ProcessFunc) *component.Component {
	c := component.NewComponent(e.driver, name, proc)
	e.components[c.Name()] = c
	return c
}

// Activate schedules c's process to run at now+delay, the Environment-level
// convenience for component.Driver.Activate(c, nil, nil, delay).
func (e *Environment) Activate(c *component.Component, delay clock.VTime) error {
	return e.driver.Activate(c, nil, nil, delay)
}

// Component looks up a previously created Component by name.
func (e *Environment) Component(name string) (*component.Component, bool) {
	c, ok := e.components[name]
	return c, ok
}

// Components returns every Component the Environment has created, for
// monitoring and introspection.
func (e *Environment) Components() []*component.Component {
	out := make([]*component.Component, 0, len(e.components))
	for _, c := range e.components {
		out = append(out, c)
	}
	return out
}

// NewCountingResource creates a capacity-bounded counting resource bound
// to this Environment's clock.
func (e *Environment) NewCountingResource(name string, capacity float64) *resource.CountingResource {
	return resource.NewCountingResource(name, capacity, e.engine, e.driver)
}

// NewDepletableResource creates a depletable resource bound to this
// Environment's clock.
func (e *Environment) NewDepletableResource(
	name string, capacity, initialLevel float64, mode resource.PutMode,
) *resource.DepletableResource {
	return resource.NewDepletableResource(name, capacity, initialLevel, mode, e.engine, e.driver)
}

// NewGenerator creates and registers a component.Generator that produces
// arrivals on this Environment's clock.
func (e *Environment) NewGenerator(
	name string, iat component.IATSampler, factory component.Factory, total int,
) *component.Generator {
	g := component.NewGenerator(e.driver, name, iat, factory, total)
	e.generators[g.Component().Name()] = g
	e.components[g.Component().Name()] = g.Component()
	return g
}

// NewState creates a State[T] whose waiters resume through this
// Environment's process driver. State is generic, so it is a free
// function rather than an Environment method (Go forbids generic
// methods).
func NewState[T any](e *Environment, initial T) *state.State[T] {
	return state.New[T](e.driver, initial)
}

// StopPredicate reports whether Run should stop before processing the
// event that would next run at time next, given the current time now.
type StopPredicate = clock.StopFunc

// Run drains events until the queue empties or stop reports true. A nil
// stop runs to completion — the spec's "run()" with no duration/until/
// predicate argument.
func (e *Environment) Run(stop StopPredicate) error {
	e.reg.lock()
	err := e.engine.Run(stop)
	e.engine.Finished()
	return err
}

// RunFor runs for exactly duration ticks of simulated time from now,
// matching `run(duration=...)`.
func (e *Environment) RunFor(duration clock.VTime) error {
	return e.RunUntil(e.Now() + duration)
}

// RunUntil runs until the clock reaches (or would pass) until, matching
// `run(until=...)`.
func (e *Environment) RunUntil(until clock.VTime) error {
	return e.Run(func(_ clock.VTime, next clock.VTime) bool {
		return next > until
	})
}

// AutoIndexedName exposes the naming convention used for components so
// callers building their own Named objects (e.g. a model-specific
// resource wrapper) can request the same auto-indexing rule.
func AutoIndexedName(indexer *naming.AutoIndexer, className, requested string) string {
	return indexer.Next(className, requested)
}
