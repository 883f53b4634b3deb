package env

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is a per-Environment named-singleton map from (type, qualifier)
// to a bound value: a dependency binding registers a singleton retrieved
// later by type and qualifier. Bindings are immutable once the
// Environment's Run has started.
type Registry struct {
	mu       sync.Mutex
	bindings map[registryKey]any
	started  bool
}

type registryKey struct {
	t         reflect.Type
	qualifier string
}

func newRegistry() *Registry {
	return &Registry{bindings: make(map[registryKey]any)}
}

// lock marks the registry as started, rejecting further bindings. Called
// by Environment.Run before draining the first event.
func (r *Registry) lock() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

// Bind registers value as the singleton for type T under qualifier (pass
// "" for the default, unqualified binding). Bind panics if called after
// the Environment has started running, or if the (type, qualifier) pair
// is already bound — both are programmer errors, not runtime conditions a
// model should recover from.
func Bind[T any](r *Registry, qualifier string, value T) {
	key := registryKey{t: reflect.TypeOf((*T)(nil)).Elem(), qualifier: qualifier}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		panic("env: cannot bind a dependency after the environment has started running")
	}
	if _, exists := r.bindings[key]; exists {
		panic(fmt.Sprintf("env: duplicate binding for %s qualifier %q", key.t, qualifier))
	}

	r.bindings[key] = value
}

// Get retrieves the singleton bound for type T under qualifier. The
// second return is false if nothing is bound.
func Get[T any](r *Registry, qualifier string) (T, bool) {
	key := registryKey{t: reflect.TypeOf((*T)(nil)).Elem(), qualifier: qualifier}

	r.mu.Lock()
	v, ok := r.bindings[key]
	r.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Inject retrieves the singleton bound for type T under qualifier,
// panicking if nothing is bound, for call sites that treat a missing
// binding as a wiring mistake rather than an optional dependency.
func Inject[T any](r *Registry, qualifier string) T {
	v, ok := Get[T](r, qualifier)
	if !ok {
		var zero T
		t := reflect.TypeOf(zero)
		panic(fmt.Sprintf("env: no binding for %s qualifier %q", t, qualifier))
	}
	return v
}
