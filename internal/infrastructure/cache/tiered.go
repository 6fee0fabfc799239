package cache

import (
	"context"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
)

var _ outbound.NutritionCache = (*TieredCache)(nil)

// TieredCache reads through a local L1 to a shared L2 and promotes L2 hits
type TieredCache struct {
	l1 outbound.NutritionCache
	l2 outbound.NutritionCache
}

// NewTieredCache combines a fast local cache with a shared one
func NewTieredCache(l1, l2 outbound.NutritionCache) *TieredCache {
	return &TieredCache{l1: l1, l2: l2}
}

// Get checks L1 then L2
func (c *TieredCache) Get(ctx context.Context, key string) (*nutrition.Profile, bool) {
	if p, ok := c.l1.Get(ctx, key); ok {
		return p, true
	}

	p, ok := c.l2.Get(ctx, key)
	if !ok {
		return nil, false
	}
	c.l1.Put(ctx, key, p)
	return p, true
}

// Put writes both tiers
func (c *TieredCache) Put(ctx context.Context, key string, profile *nutrition.Profile) {
	c.l1.Put(ctx, key, profile)
	c.l2.Put(ctx, key, profile)
}
