package fetch

import (
	"time"

	"k8s.io/utils/clock"
)

// discoveryTTL bounds how long a resolved resource is trusted before the
// next query re-runs discovery.
const discoveryTTL = 5 * time.Minute

type cacheEntry struct {
	res       *Resource
	fetchedAt time.Time
}

// DiscoveryCache is a process-local TTL cache from plural resource name to
// its discovered descriptor. The pipeline is single-goroutine, so no lock.
// Entries die on TTL expiry or on explicit invalidation after a
// stale-resolution list error.
type DiscoveryCache struct {
	clock   clock.PassiveClock
	entries map[string]cacheEntry
}

// NewDiscoveryCache builds a cache on the real clock.
func NewDiscoveryCache() *DiscoveryCache {
	return NewDiscoveryCacheWithClock(clock.RealClock{})
}

// NewDiscoveryCacheWithClock lets tests drive TTL expiry with a fake clock.
func NewDiscoveryCacheWithClock(c clock.PassiveClock) *DiscoveryCache {
	return &DiscoveryCache{clock: c, entries: make(map[string]cacheEntry)}
}

// Get returns a live entry, dropping it on TTL expiry.
func (d *DiscoveryCache) Get(name string) (*Resource, bool) {
	e, ok := d.entries[name]
	if !ok {
		return nil, false
	}
	if d.clock.Since(e.fetchedAt) >= discoveryTTL {
		delete(d.entries, name)
		return nil, false
	}
	return e.res, true
}

// Put stores a freshly discovered descriptor.
func (d *DiscoveryCache) Put(name string, res *Resource) {
	d.entries[name] = cacheEntry{res: res, fetchedAt: d.clock.Now()}
}

// Invalidate drops the entry for name, if any.
func (d *DiscoveryCache) Invalidate(name string) {
	delete(d.entries, name)
}
