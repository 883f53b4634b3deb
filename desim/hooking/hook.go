// Package hooking provides the observation seam used across procflow:
// engines, resources, states, and components all accept Hooks without
// knowing anything about what the hook does with the notification.
package hooking

// HookPos names a site at which a Hookable object invokes its hooks.
type HookPos struct {
	Name string
}

// HookCtx carries the information available at a hook invocation site.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is an object that accepts Hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook is invoked by a Hookable object at each of its HookPos sites.
type Hook interface {
	Func(ctx HookCtx)
}

// Base implements Hookable and is meant to be embedded.
type Base struct {
	hooks []Hook
}

// NumHooks returns the number of hooks registered.
func (b *Base) NumHooks() int {
	return len(b.hooks)
}

// Hooks returns all hooks registered, in registration order.
func (b *Base) Hooks() []Hook {
	return b.hooks
}

// AcceptHook registers a hook. Registering the same hook twice panics, since
// that is always a programmer mistake.
func (b *Base) AcceptHook(hook Hook) {
	for _, h := range b.hooks {
		if h == hook {
			panic("duplicated hook")
		}
	}

	b.hooks = append(b.hooks, hook)
}

// InvokeHook calls every registered hook's Func with ctx.
func (b *Base) InvokeHook(ctx HookCtx) {
	for _, h := range b.hooks {
		h.Func(ctx)
	}
}

// Func adapts a plain function into a Hook.
type Func func(ctx HookCtx)

// Func implements Hook.
func (f Func) Func(ctx HookCtx) {
	f(ctx)
}
