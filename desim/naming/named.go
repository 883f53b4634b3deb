// Package naming provides the Named capability and the auto-indexing name
// generation rule used by components. Resources keep a plain name string
// and states are unnamed.
package naming

import (
	"fmt"
	"strings"
	"sync"
)

// Named describes an object that has a name.
type Named interface {
	Name() string
}

// Base is a minimal embeddable implementation of Named.
type Base struct {
	name string
}

// MakeBase creates a Base with the given name.
func MakeBase(name string) Base {
	return Base{name: name}
}

// Name returns the object's name.
func (b Base) Name() string {
	return b.name
}

// AutoIndexer hands out unique names derived from a class name and a
// per-class counter. A name ending in "-", "." or "_" is treated as a
// prefix that should receive a numeric suffix; a name supplied without one
// of those trailing characters is used verbatim (and must be unique).
type AutoIndexer struct {
	mu      sync.Mutex
	counter map[string]int
}

// NewAutoIndexer creates an empty AutoIndexer.
func NewAutoIndexer() *AutoIndexer {
	return &AutoIndexer{counter: make(map[string]int)}
}

// Next returns the name to use for a new instance of className, given the
// caller-supplied name (which may be empty, meaning "auto-generate from the
// class name").
func (a *AutoIndexer) Next(className, requested string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if requested == "" {
		return a.autoName(className)
	}

	if strings.HasSuffix(requested, "-") ||
		strings.HasSuffix(requested, ".") ||
		strings.HasSuffix(requested, "_") {
		n := a.counter[requested]
		a.counter[requested] = n + 1
		return fmt.Sprintf("%s%d", requested, n)
	}

	return requested
}

func (a *AutoIndexer) autoName(className string) string {
	prefix := className + "."
	n := a.counter[prefix]
	a.counter[prefix] = n + 1
	return fmt.Sprintf("%s%d", prefix, n)
}
