package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/vedcheck/internal/model"
)

// MemoryCache implements in-memory expiring caching
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a record from the cache
func (c *MemoryCache) Get(key string) (*model.CardRecord, bool) {
	if val, found := c.cache.Get(key); found {
		if rec, ok := val.(*model.CardRecord); ok {
			copied := *rec
			return &copied, true
		}
	}
	return nil, false
}

// Set stores a copy of the record with the given TTL (0 means the default)
func (c *MemoryCache) Set(key string, record *model.CardRecord, ttl time.Duration) {
	if record == nil {
		return
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	copied := *record
	c.cache.Set(key, &copied, ttl)
}
