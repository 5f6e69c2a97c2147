package cache

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process TTL cache with an optional entry cap.
// When full, the entries closest to expiry are evicted first.
type MemoryCache struct {
	mu         sync.Mutex
	cache      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a new memory cache; maxEntries <= 0 means unbounded
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		if b, ok := val.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// Set stores a value; ttl 0 uses the default TTL
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 {
		if _, exists := c.cache.Get(key); !exists && c.cache.ItemCount() >= c.maxEntries {
			c.evict()
		}
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// evict makes room for one entry, removing those expiring soonest first;
// entries without expiry go last
func (c *MemoryCache) evict() {
	c.cache.DeleteExpired()

	items := c.cache.Items()
	n := len(items) - c.maxEntries + 1
	if n <= 0 {
		return
	}

	type entry struct {
		key     string
		expires int64
	}
	entries := make([]entry, 0, len(items))
	for k, item := range items {
		exp := item.Expiration
		if exp == 0 {
			exp = 1<<63 - 1
		}
		entries = append(entries, entry{key: k, expires: exp})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].expires != entries[j].expires {
			return entries[i].expires < entries[j].expires
		}
		return entries[i].key < entries[j].key
	})

	for i := 0; i < n && i < len(entries); i++ {
		c.cache.Delete(entries[i].key)
	}
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of stored entries, including not yet purged expired ones
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
