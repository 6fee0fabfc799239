package cache

import (
	"context"
	"errors"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/ports/outbound"
	"go.uber.org/zap"
)

var _ outbound.NutritionCache = (*DatabaseCache)(nil)

// DatabaseCache keeps results in the nutrition_estimates table so estimator
// answers survive restarts
type DatabaseCache struct {
	repo   outbound.NutritionEstimateRepository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewDatabaseCache creates the cache. With ttl > 0 rows older than ttl read
// as a miss; Prune removes them.
func NewDatabaseCache(repo outbound.NutritionEstimateRepository, ttl time.Duration, logger *zap.Logger) *DatabaseCache {
	return &DatabaseCache{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("nutrition-db-cache"),
	}
}

// Get loads the stored profile
func (c *DatabaseCache) Get(ctx context.Context, key string) (*nutrition.Profile, bool) {
	estimate, err := c.repo.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrKeyNotFound) {
			c.logger.Warn("Estimate lookup failed, treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(estimate.UpdatedAt) > c.ttl {
		return nil, false
	}

	profile := estimate.Profile.Sanitize()
	return &profile, true
}

// Put upserts the profile with the source carried on ctx
func (c *DatabaseCache) Put(ctx context.Context, key string, profile *nutrition.Profile) {
	if profile == nil {
		return
	}

	estimate := &outbound.NutritionEstimate{
		Key:     key,
		Source:  outbound.SourceFrom(ctx),
		Profile: profile.Clone(),
	}
	if err := c.repo.Upsert(ctx, estimate); err != nil {
		c.logger.Warn("Estimate write dropped", zap.String("key", key), zap.Error(err))
	}
}

// Prune deletes rows not refreshed within retention
func (c *DatabaseCache) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := c.repo.DeleteOlderThan(ctx, c.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.logger.Info("Pruned nutrition estimates", zap.Int64("rows", n), zap.Duration("retention", retention))
	}
	return n, nil
}
