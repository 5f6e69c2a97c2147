// Package cache stores AI responses and rendered reports
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/factline/internal/model"
)

const keyPrefix = "factline:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey hashes the parts into a namespaced key. Parts are NUL-separated
// so ("ab","c") and ("a","bc") differ.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte(p))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory only, or memory over disk
// when a directory is set. A disabled cache returns nil.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.AITTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	memory := NewMemoryCache(ttl, 10*time.Minute, cfg.MaxEntries)
	if cfg.Dir == "" {
		return memory
	}
	return NewLayeredCache(memory, NewDiskCache(cfg.Dir, ttl))
}
