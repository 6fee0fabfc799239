// Package cache provides the nutrition result caches: a process-wide map,
// a bounded LRU, Redis, the nutrition_estimates table and a two-tier
// combination of them.
package cache

import (
	"context"
	"sync"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
)

var _ outbound.NutritionCache = (*MemoryCache)(nil)

// MemoryCache is an unbounded process-wide cache that never evicts.
// Concurrent writes of the same key are harmless: both writers computed the
// same profile.
type MemoryCache struct {
	entries sync.Map // string -> nutrition.Profile
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get returns a copy of the stored profile
func (c *MemoryCache) Get(_ context.Context, key string) (*nutrition.Profile, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	clone := v.(nutrition.Profile).Clone()
	return &clone, true
}

// Put stores a copy of profile; nil is ignored
func (c *MemoryCache) Put(_ context.Context, key string, profile *nutrition.Profile) {
	if profile == nil {
		return
	}
	c.entries.Store(key, profile.Clone())
}

// Len counts the stored entries
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
