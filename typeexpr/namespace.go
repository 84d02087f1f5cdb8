package typeexpr

import (
	"sort"
	"sync"
)

// Namespace maps names to types for forward-reference resolution. A
// namespace may chain to a parent that is consulted on a miss.
type Namespace struct {
	mu     sync.RWMutex
	module string
	names  map[string]Expr
	parent *Namespace
}

// NewNamespace returns an empty namespace for module.
func NewNamespace(module string) *Namespace {
	return &Namespace{module: module, names: map[string]Expr{}}
}

// Child returns a namespace that falls back to ns.
func (ns *Namespace) Child() *Namespace {
	c := NewNamespace(ns.Module())
	c.parent = ns
	return c
}

// Module returns the module name of the namespace.
func (ns *Namespace) Module() string {
	if ns == nil {
		return ""
	}
	return ns.module
}

// Define binds name to e. Records bound through Define that have no module
// yet adopt the namespace's module.
func (ns *Namespace) Define(name string, e Expr) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.names[name] = e
	if r, ok := e.(*Record); ok {
		if r.Module == "" {
			r.Module = ns.module
		}
		if r.Namespace == nil {
			r.Namespace = ns
		}
	}
}

// Lookup resolves name through the chain.
func (ns *Namespace) Lookup(name string) (Expr, bool) {
	for n := ns; n != nil; n = n.parent {
		n.mu.RLock()
		e, ok := n.names[name]
		n.mu.RUnlock()
		if ok {
			return e, true
		}
	}
	return nil, false
}

// Names returns the names bound directly in ns, sorted.
func (ns *Namespace) Names() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	out := make([]string, 0, len(ns.names))
	for k := range ns.names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NamespaceStack is the stack of namespaces active during a build. The
// innermost namespace is searched first.
type NamespaceStack struct {
	stack []*Namespace
}

// Push enters ns. A nil ns is recorded so Pop stays balanced.
func (s *NamespaceStack) Push(ns *Namespace) { s.stack = append(s.stack, ns) }

// Pop leaves the innermost namespace.
func (s *NamespaceStack) Pop() { s.stack = s.stack[:len(s.stack)-1] }

// Lookup resolves name from the innermost namespace outwards.
func (s *NamespaceStack) Lookup(name string) (Expr, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == nil {
			continue
		}
		if e, ok := s.stack[i].Lookup(name); ok {
			return e, true
		}
	}
	return nil, false
}
