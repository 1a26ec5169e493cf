package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/vedcheck/internal/model"
)

// Cache defines the interface for caching card lookups
type Cache interface {
	Get(key string) (*model.CardRecord, bool)
	Set(key string, record *model.CardRecord, ttl time.Duration)
}

// CacheKey generates a cache key from a lookup URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "vedcheck:v1:" + hex.EncodeToString(hash[:])
}

// New returns a memory cache when enabled, otherwise a cache that stores nothing
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled || cfg.TTL <= 0 {
		return Noop{}
	}
	return NewMemoryCache(cfg.TTL, 2*cfg.TTL)
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(string) (*model.CardRecord, bool) { return nil, false }
func (Noop) Set(string, *model.CardRecord, time.Duration) {}
