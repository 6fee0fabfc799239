package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
	"go.uber.org/zap"
)

var _ outbound.NutritionCache = (*RepositoryCache)(nil)

// RepositoryCache stores profiles as JSON in a byte-level CacheRepository,
// normally the Redis client. Repository errors degrade to a miss on read and
// a dropped write on put.
type RepositoryCache struct {
	repo   outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRepositoryCache creates the cache; ttl 0 stores without expiry
func NewRepositoryCache(repo outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *RepositoryCache {
	return &RepositoryCache{
		repo:   repo,
		ttl:    ttl,
		logger: logger.Named("nutrition-cache"),
	}
}

// Get decodes the stored profile
func (c *RepositoryCache) Get(ctx context.Context, key string) (*nutrition.Profile, bool) {
	data, err := c.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrKeyNotFound) {
			c.logger.Warn("Cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var profile nutrition.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.repo.Delete(ctx, key)
		return nil, false
	}

	clean := profile.Sanitize()
	return &clean, true
}

// Put encodes and stores the profile
func (c *RepositoryCache) Put(ctx context.Context, key string, profile *nutrition.Profile) {
	if profile == nil {
		return
	}

	data, err := json.Marshal(profile)
	if err != nil {
		c.logger.Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.repo.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Cache write dropped", zap.String("key", key), zap.Error(err))
	}
}
