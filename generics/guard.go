package generics

import (
	"sort"
	"sync"

	"github.com/reoring/schemagen/typeexpr"
)

// RecursionGuard tracks the parametrizations being built by one logical
// build. Entering a parametrization that is already active yields a
// RecursiveRef standing for it instead of recursing forever.
type RecursionGuard struct {
	mu     sync.Mutex
	active map[string]int
}

// NewRecursionGuard returns an empty guard.
func NewRecursionGuard() *RecursionGuard {
	return &RecursionGuard{active: map[string]int{}}
}

// Enter marks origin applied to args as active. When it already is, ref is
// the placeholder to use and leave is a no-op. Otherwise ref is nil and
// leave must be called once the parametrization is built.
func (g *RecursionGuard) Enter(origin *typeexpr.Record, args []typeexpr.Expr) (ref *typeexpr.RecursiveRef, leave func()) {
	key := ArgsRef(origin, args)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[key] > 0 {
		return &typeexpr.RecursiveRef{TypeRef: key}, func() {}
	}
	g.active[key]++
	return nil, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.active[key]--; g.active[key] <= 0 {
			delete(g.active, key)
		}
	}
}

// Active reports whether any parametrization is being built.
func (g *RecursionGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active) > 0
}

// Refs returns the refs of the active parametrizations, sorted.
func (g *RecursionGuard) Refs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.active))
	for k := range g.active {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
