package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/ai"
	"github.com/larderly/server/internal/infrastructure/cache"
	"github.com/larderly/server/internal/infrastructure/config"
	apperrors "github.com/larderly/server/pkg/errors"
	"github.com/larderly/server/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type probedEstimator struct{ err error }

func (probedEstimator) EstimateNutrition(context.Context, string, int) (*nutrition.Profile, error) {
	return nil, nutrition.ErrNoNutritionData
}

func (e probedEstimator) HealthCheck(context.Context) error { return e.err }

func TestModule_GraphIsComplete(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(fx.NopLogger, Module("")))
}

func TestEstimatorChecker(t *testing.T) {
	ctx := context.Background()

	disabled := EstimatorChecker(ai.DisabledEstimator{}).Check(ctx)
	assert.Equal(t, healthcheck.StatusHealthy, disabled.Status)
	assert.Equal(t, "disabled", disabled.Message)

	assert.Equal(t, healthcheck.StatusHealthy, EstimatorChecker(probedEstimator{}).Check(ctx).Status)

	down := EstimatorChecker(probedEstimator{err: errors.New("connection refused")}).Check(ctx)
	assert.Equal(t, healthcheck.StatusDegraded, down.Status)
	assert.Equal(t, "connection refused", down.Message)
	require.IsType(t, map[string]interface{}{}, down.Metadata)
	meta := down.Metadata.(map[string]interface{})
	assert.Equal(t, apperrors.CodeExternalServiceError, meta["code"])
	assert.Equal(t, "Failed to communicate with estimator", meta["details"])
}

func newConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Nutrition.Cache.Backend = backend
	return cfg
}

func TestNewCacheBackend(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		b, err := NewCacheBackend(newConfig(t, config.CacheBackendMemory), zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, &cache.MemoryCache{}, b.Cache)
		_, ok := b.HitRatio()
		assert.False(t, ok)
		assert.Equal(t, healthcheck.StatusHealthy, b.Checker().Check(context.Background()).Status)
	})

	t.Run("MemoryWithTTL", func(t *testing.T) {
		cfg := newConfig(t, config.CacheBackendMemory)
		cfg.Nutrition.Cache.TTL = time.Minute
		b, err := NewCacheBackend(cfg, zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, &cache.RepositoryCache{}, b.Cache)
	})

	t.Run("LRU", func(t *testing.T) {
		b, err := NewCacheBackend(newConfig(t, config.CacheBackendLRU), zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, &cache.LRUCache{}, b.Cache)
	})

	t.Run("LRUSweepsExpired", func(t *testing.T) {
		cfg := newConfig(t, config.CacheBackendLRU)
		cfg.Nutrition.Cache.TTL = time.Millisecond
		b, err := NewCacheBackend(cfg, zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		p := nutrition.NewProfile(map[nutrition.NutrientKey]float64{nutrition.Calories: 10})
		b.Cache.Put(context.Background(), "a", &p)
		b.Cache.Put(context.Background(), "b", &p)
		time.Sleep(10 * time.Millisecond)

		assert.Equal(t, 2, b.SweepExpired())
		assert.Zero(t, b.Cache.(*cache.LRUCache).Len())
		assert.Zero(t, b.SweepExpired())
	})

	t.Run("MemoryHasNothingToSweep", func(t *testing.T) {
		b, err := NewCacheBackend(newConfig(t, config.CacheBackendMemory), zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		assert.Zero(t, b.SweepExpired())
	})

	t.Run("DatabaseWithL1", func(t *testing.T) {
		cfg := newConfig(t, config.CacheBackendDatabase)
		cfg.Database.Path = ""
		cfg.Database.MaxOpenConns = 1
		cfg.Nutrition.Cache.L1Size = 10
		b, err := NewCacheBackend(cfg, zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, &cache.TieredCache{}, b.Cache)
		assert.Equal(t, healthcheck.StatusHealthy, b.Checker().Check(context.Background()).Status)

		p := nutrition.NewProfile(map[nutrition.NutrientKey]float64{nutrition.Calories: 90})
		b.Cache.Put(context.Background(), "k", &p)
		got, ok := b.Cache.Get(context.Background(), "k")
		require.True(t, ok)
		cal, _ := got.Get(nutrition.Calories)
		assert.Equal(t, 90.0, cal)

		removed, err := b.Prune(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := NewCacheBackend(newConfig(t, "tape"), zap.NewNop())
		assert.Error(t, err)
	})
}
