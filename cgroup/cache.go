package cgroup

import (
	"sync"
	"time"
)

// defaultCacheTTL is the bounded TTL every hot-path metric cache uses (spec.md
// §3 MetricCache, §4.G Caching) unless overridden by SetCacheTTL.
const defaultCacheTTL = 20 * time.Millisecond

var cacheTTL = defaultCacheTTL

// SetCacheTTL overrides the metric cache TTL process-wide; non-positive
// durations are ignored. Every cache reads this package-level TTL each time
// it stores a fresh value, so a change applies from the next cache miss on.
func SetCacheTTL(d time.Duration) {
	if d <= 0 {
		return
	}
	cacheTTL = d
}

// metricCache holds a single cached (value, expiry) pair. A lost update on
// a concurrent cache miss is benign: the computation is idempotent and
// side-effect-free, so the loser's write simply gets overwritten by an
// equivalent value (spec.md §5 Concurrency & resource model).
type metricCache struct {
	mu        sync.Mutex
	value     MetricResult
	expiresAt time.Time
}

// get returns the cached value if still fresh, or computes, stores, and
// returns a fresh one via fn.
func (c *metricCache) get(now time.Time, fn func() MetricResult) MetricResult {
	c.mu.Lock()
	if now.Before(c.expiresAt) {
		v := c.value
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	v := fn()

	c.mu.Lock()
	c.value = v
	c.expiresAt = now.Add(cacheTTL)
	c.mu.Unlock()
	return v
}

// cacheSet names one metricCache per cacheable facade metric. Only metrics
// a VM hot path may call repeatedly (memory limit, processor count) are
// cached; the rest are read fresh on every call, matching spec.md §4.G's
// "every metric that a VM hot path may call repeatedly" scoping.
type cacheSet struct {
	memoryLimit    metricCache
	processorCount metricCache
}

func newCacheSet() *cacheSet {
	return &cacheSet{}
}
