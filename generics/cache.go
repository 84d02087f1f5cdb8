// Package generics holds the bookkeeping for parametrizing generic
// records: a bounded cache of synthesized submodels, type substitution and
// the recursion guard used while a parametrization is being built.
package generics

import (
	"strings"
	"sync"

	"github.com/gammazero/deque"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/reoring/schemagen/typeexpr"
)

// DefaultLimit is the number of entries a Cache keeps by default.
const DefaultLimit = 100

// Cache maps parametrizations to the records synthesized for them. Every
// record is stored under two keys: an early key made of the parent and the
// arguments as written, checked before any work is done, and a late key
// made of the origin and the fully substituted arguments, checked once
// those are known. When the cache grows past its limit the oldest entries
// are evicted in a batch.
type Cache struct {
	limit   int
	log     *zap.Logger
	entries *xsync.MapOf[string, *typeexpr.Record]

	mu    sync.Mutex
	order deque.Deque[string]
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for hit, miss and eviction events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCache returns a cache holding up to limit entries. A limit below one
// selects DefaultLimit.
func NewCache(limit int, opts ...Option) *Cache {
	if limit < 1 {
		limit = DefaultLimit
	}
	c := &Cache{
		limit:   limit,
		log:     zap.NewNop(),
		entries: xsync.NewMapOf[string, *typeexpr.Record](),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Limit returns the configured size limit.
func (c *Cache) Limit() int { return c.limit }

// Len returns the number of stored keys.
func (c *Cache) Len() int { return c.entries.Size() }

// GetEarly looks up parent applied to rawArgs as written.
func (c *Cache) GetEarly(parent *typeexpr.Record, rawArgs []typeexpr.Expr) (*typeexpr.Record, bool) {
	rec, ok := c.entries.Load(earlyKey(parent, rawArgs))
	c.log.Debug("generic cache lookup",
		zap.String("stage", "early"),
		zap.String("parent", parent.Name),
		zap.Bool("hit", ok))
	return rec, ok
}

// GetLate looks up origin applied to the substituted args. A hit is also
// stored under the early key of parent and rawArgs so that the next lookup
// of the same spelling is answered early.
func (c *Cache) GetLate(parent *typeexpr.Record, rawArgs []typeexpr.Expr, origin *typeexpr.Record, args []typeexpr.Expr) (*typeexpr.Record, bool) {
	rec, ok := c.entries.Load(lateKey(origin, args, rawArgs))
	c.log.Debug("generic cache lookup",
		zap.String("stage", "late"),
		zap.String("origin", origin.Name),
		zap.Bool("hit", ok))
	if ok {
		c.Set(parent, rawArgs, origin, args, rec)
	}
	return rec, ok
}

// Set stores rec under both the early and the late key.
func (c *Cache) Set(parent *typeexpr.Record, rawArgs []typeexpr.Expr, origin *typeexpr.Record, args []typeexpr.Expr, rec *typeexpr.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(earlyKey(parent, rawArgs), rec)
	c.store(lateKey(origin, args, rawArgs), rec)
	c.evict()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Clear()
	c.order.Clear()
}

// store inserts k. Overwriting an existing key keeps its position.
func (c *Cache) store(k string, rec *typeexpr.Record) {
	if _, loaded := c.entries.LoadOrStore(k, rec); loaded {
		c.entries.Store(k, rec)
		return
	}
	c.order.PushBack(k)
}

func (c *Cache) evict() {
	n := c.order.Len()
	if n <= c.limit {
		return
	}
	excess := n - c.limit + c.limit/10
	for i := 0; i < excess && c.order.Len() > 0; i++ {
		c.entries.Delete(c.order.PopFront())
	}
	c.log.Debug("generic cache evicted", zap.Int("count", excess), zap.Int("remaining", c.order.Len()))
}

func earlyKey(parent *typeexpr.Record, rawArgs []typeexpr.Expr) string {
	return "early|" + typeexpr.Key(parent) + "|" + keyArgs(rawArgs)
}

func lateKey(origin *typeexpr.Record, args, rawArgs []typeexpr.Expr) string {
	return "late|" + unionOrderingsKey(rawArgs) + "|" + typeexpr.Key(origin) + "|" + keyArgs(args)
}

// unionOrderingsKey distinguishes parametrizations whose arguments are the
// same unions in a different member order.
func unionOrderingsKey(rawArgs []typeexpr.Expr) string {
	var parts []string
	for _, a := range rawArgs {
		if u, ok := a.(*typeexpr.Union); ok {
			parts = append(parts, keyArgs(u.Members))
		}
	}
	return strings.Join(parts, ";")
}

func keyArgs(args []typeexpr.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = typeexpr.Key(a)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
