package seasons

import (
	"sync"
	"time"

	"baselinebuilder/pkg/contracts/domain"
)

// DefaultTTL is how long a fetched season table is served without refetching.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

type cacheEntry struct {
	table     *domain.SeasonTable
	fetchedAt time.Time
}

// Cache holds one season table per source id. An entry is fresh while
// now - fetchedAt < ttl. There is no background eviction.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	ttl       time.Duration
	now       Clock
	hitCount  int64
	missCount int64
}

// NewCache creates a cache. A nil clock means time.Now; a non-positive ttl
// means DefaultTTL.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     clock,
	}
}

// Fresh reports whether key holds a value fetched less than ttl before now.
func (c *Cache) Fresh(key string, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && now.Sub(e.fetchedAt) < c.ttl
}

// Get returns the fresh value for key and counts a hit or a miss.
func (c *Cache) Get(key string) (*domain.SeasonTable, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || now.Sub(e.fetchedAt) >= c.ttl {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	return e.table, true
}

// peek is Get without touching the hit and miss counters.
func (c *Cache) peek(key string) (*domain.SeasonTable, bool) {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || now.Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.table, true
}

// Put stores table under key stamped with the current clock time.
func (c *Cache) Put(key string, table *domain.SeasonTable) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{table: table, fetchedAt: now}
}

// FetchedAt returns when key was last stored.
func (c *Cache) FetchedAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.fetchedAt, ok
}

// Invalidate removes key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Entries    int     `json:"entries"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		Entries:    len(c.entries),
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		TTLSeconds: c.ttl.Seconds(),
	}
	if total := c.hitCount + c.missCount; total > 0 {
		stats.HitRatio = float64(c.hitCount) / float64(total)
	}
	return stats
}
