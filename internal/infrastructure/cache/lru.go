package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
)

const defaultLRUSize = 1000

var _ outbound.NutritionCache = (*LRUCache)(nil)

// LRUCache is a bounded cache with least-recently-used eviction and an
// optional TTL
type LRUCache struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	order   *list.List // front is most recent
	entries map[string]*list.Element
}

type lruEntry struct {
	key       string
	profile   nutrition.Profile
	expiresAt time.Time // zero when ttl is disabled
}

// NewLRUCache creates a cache holding at most maxSize entries. ttl <= 0
// disables expiry.
func NewLRUCache(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize <= 0 {
		maxSize = defaultLRUSize
	}
	return &LRUCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		order:   list.New(),
		entries: make(map[string]*list.Element, maxSize),
	}
}

// Get returns a copy of the stored profile and marks it recently used
func (c *LRUCache) Get(_ context.Context, key string) (*nutrition.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := el.Value.(*lruEntry)
	if c.expired(entry) {
		c.remove(el)
		return nil, false
	}

	c.order.MoveToFront(el)
	clone := entry.profile.Clone()
	return &clone, true
}

// Put stores a copy of profile, evicting the oldest entry when full
func (c *LRUCache) Put(_ context.Context, key string, profile *nutrition.Profile) {
	if profile == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*lruEntry)
		entry.profile = profile.Clone()
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruEntry{
		key:       key,
		profile:   profile.Clone(),
		expiresAt: expiresAt,
	})

	for c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
	}
}

// Len returns the number of entries, expired ones included
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CleanupExpired drops expired entries and returns how many were removed
func (c *LRUCache) CleanupExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*lruEntry)) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRUCache) expired(e *lruEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *LRUCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*lruEntry).key)
}
