package metadata

import (
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snapshelf/snapshelf/internal/catalog"
)

// Cache provides in-memory caching with TTL for provider results.
// Expired entries are invisible to Get and reclaimed by Purge or eviction.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	ttl      time.Duration
	maxItems int
	clock    clockwork.Clock
}

type cacheItem struct {
	value     any
	expiresAt time.Time
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
	Clock    clockwork.Clock
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      24 * time.Hour,
		MaxItems: 1000,
	}
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Cache{
		items:    make(map[string]cacheItem),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
		clock:    cfg.Clock,
	}
}

// Get retrieves a live item from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || !c.clock.Now().Before(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores an item with the cache TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Clear removes all items from the cache and returns how many were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[string]cacheItem)
	return n
}

// Len returns the number of stored items, live or expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge removes expired items and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked()
}

func (c *Cache) purgeLocked() int {
	now := c.clock.Now()
	removed := 0
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// evictOldest drops expired items, then the soonest-expiring 10% if still
// at capacity. Caller holds the lock.
func (c *Cache) evictOldest() {
	c.purgeLocked()
	if len(c.items) < c.maxItems {
		return
	}

	toRemove := max(c.maxItems/10, 1)

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.items[a].expiresAt.Compare(c.items[b].expiresAt)
	})
	for _, key := range keys[:toRemove] {
		delete(c.items, key)
	}
}

// GetMovies retrieves a cached provider result list.
func (c *Cache) GetMovies(key string) ([]*catalog.Movie, bool) {
	val, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	movies, ok := val.([]*catalog.Movie)
	return movies, ok
}

// GetMovie retrieves a cached detail record.
func (c *Cache) GetMovie(key string) (*catalog.Movie, bool) {
	val, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	movie, ok := val.(*catalog.Movie)
	return movie, ok
}
