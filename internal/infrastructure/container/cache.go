package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/larderly/server/internal/infrastructure/cache"
	"github.com/larderly/server/internal/infrastructure/config"
	gormrepo "github.com/larderly/server/internal/infrastructure/persistence/gorm"
	"github.com/larderly/server/internal/infrastructure/persistence/memory"
	"github.com/larderly/server/internal/ports/outbound"
	"github.com/larderly/server/pkg/healthcheck"
	"go.uber.org/zap"
)

// CacheBackend bundles the nutrition cache with the handles that health
// checks and the maintenance loop need
type CacheBackend struct {
	Name  string
	Cache outbound.NutritionCache

	pinger   healthcheck.Pinger
	redis    *cache.RedisClient
	database *cache.DatabaseCache
	lrus     []*cache.LRUCache
	closers  []func() error
}

// NewCacheBackend builds the configured nutrition.cache.backend. For the
// redis and database backends a positive l1_size adds an LRU in front.
func NewCacheBackend(cfg *config.Config, log *zap.Logger) (*CacheBackend, error) {
	c := cfg.Nutrition.Cache
	log = log.Named("cache")
	b := &CacheBackend{Name: c.Backend}

	switch c.Backend {
	case config.CacheBackendMemory:
		if c.TTL > 0 {
			repo := memory.NewCacheRepository(time.Minute)
			b.Cache = cache.NewRepositoryCache(repo, c.TTL, log)
			b.closers = append(b.closers, func() error { repo.Close(); return nil })
		} else {
			b.Cache = cache.NewMemoryCache()
		}

	case config.CacheBackendLRU:
		lru := cache.NewLRUCache(c.LRUSize, c.TTL)
		b.lrus = append(b.lrus, lru)
		b.Cache = lru

	case config.CacheBackendRedis:
		client, err := cache.NewRedisClient(&cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		b.redis = client
		b.pinger = client
		b.Cache = cache.NewRepositoryCache(client, c.TTL, log)
		b.closers = append(b.closers, client.Close)

	case config.CacheBackendDatabase:
		db, err := gormrepo.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		repo := gormrepo.NewNutritionEstimateRepository(db)
		b.database = cache.NewDatabaseCache(repo, c.TTL, log)
		b.pinger = repo
		b.Cache = b.database
		b.closers = append(b.closers, func() error { return gormrepo.Close(db) })

	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}

	if c.L1Size > 0 && (b.redis != nil || b.database != nil) {
		l1 := cache.NewLRUCache(c.L1Size, c.TTL)
		b.lrus = append(b.lrus, l1)
		b.Cache = cache.NewTieredCache(l1, b.Cache)
	}

	log.Info("Nutrition cache ready",
		zap.String("backend", c.Backend),
		zap.Duration("ttl", c.TTL),
		zap.Int("l1_size", c.L1Size))

	return b, nil
}

// Checker reports on the backing store. Cache failures degrade to misses,
// so a failing store is never critical.
func (b *CacheBackend) Checker() healthcheck.Checker {
	if b.redis != nil {
		return healthcheck.NewRedisChecker(b.redis.Universal(), false)
	}
	if b.pinger == nil {
		return healthcheck.NewCustomChecker("cache", func(context.Context) (healthcheck.Status, string, interface{}) {
			return healthcheck.StatusHealthy, "", map[string]string{"backend": b.Name}
		})
	}
	return healthcheck.NewPingChecker(b.pinger, false)
}

// HitRatio reports the redis hit ratio; false for other backends
func (b *CacheBackend) HitRatio() (float64, bool) {
	if b.redis == nil {
		return 0, false
	}
	return b.redis.HitRatio(), true
}

// Prune deletes database rows older than retention. Other backends expire
// on their own.
func (b *CacheBackend) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if b.database == nil || retention <= 0 {
		return 0, nil
	}
	return b.database.Prune(ctx, retention)
}

// SweepExpired drops expired entries from in-process LRU caches and
// returns how many were removed
func (b *CacheBackend) SweepExpired() int {
	removed := 0
	for _, lru := range b.lrus {
		removed += lru.CleanupExpired()
	}
	return removed
}

// Close releases connections held by the backend
func (b *CacheBackend) Close() error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
