// Package memory provides an in-memory cache repository implementation,
// used when Redis is not configured and in tests of the byte-level cache
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/larderly/server/internal/ports/outbound"
)

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time // zero means no expiry
}

func (i CacheItem) expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// CacheRepository implements outbound.CacheRepository over a map
type CacheRepository struct {
	data  map[string]CacheItem
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCacheRepository creates a repository. A positive cleanupInterval
// starts a janitor goroutine that Close stops.
func NewCacheRepository(cleanupInterval time.Duration) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]CacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go repo.cleanup(cleanupInterval)
	}

	return repo
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists || item.expired(r.now()) {
		return nil, outbound.ErrKeyNotFound
	}

	value := make([]byte, len(item.Value))
	copy(value, item.Value)
	return value, nil
}

// Set stores a value in cache; ttl 0 keeps it until deleted
func (r *CacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := CacheItem{Value: make([]byte, len(value))}
	copy(item.Value, value)
	if ttl > 0 {
		item.ExpiresAt = r.now().Add(ttl)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data[key] = item
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(_ context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.data, key)
	return nil
}

// Exists checks if a live key exists in cache
func (r *CacheRepository) Exists(_ context.Context, key string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	item, exists := r.data[key]
	return exists && !item.expired(r.now()), nil
}

// Ping always succeeds
func (r *CacheRepository) Ping(context.Context) error {
	return nil
}

// Purge removes expired items and returns how many were dropped
func (r *CacheRepository) Purge() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	removed := 0
	for key, item := range r.data {
		if item.expired(now) {
			delete(r.data, key)
			removed++
		}
	}
	return removed
}

// Close stops the janitor
func (r *CacheRepository) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Purge()
		case <-r.stop:
			return
		}
	}
}
