// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
)

// NutritionCache memoizes per-serving results by request key.
// Implementations never surface errors: a failed read is a miss and a
// failed write is dropped.
type NutritionCache interface {
	Get(ctx context.Context, key string) (*nutrition.Profile, bool)
	Put(ctx context.Context, key string, profile *nutrition.Profile)
}

// ErrKeyNotFound is returned by CacheRepository.Get and
// NutritionEstimateRepository.FindByKey on a miss
var ErrKeyNotFound = errors.New("key not found in cache")

// Sources recorded alongside stored results
const (
	SourceDeterministic = "deterministic"
	SourceEstimated     = "estimated"
)

type sourceKey struct{}

// WithSource tags a Put with the path that produced the profile
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the tag set by WithSource, or "" when absent
func SourceFrom(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}

// CacheRepository defines the interface for byte-level caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// NutritionEstimate is a stored calculation result
type NutritionEstimate struct {
	Key       string
	Source    string
	Profile   nutrition.Profile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NutritionEstimateRepository persists calculation results across restarts
type NutritionEstimateRepository interface {
	FindByKey(ctx context.Context, key string) (*NutritionEstimate, error)
	Upsert(ctx context.Context, estimate *NutritionEstimate) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
