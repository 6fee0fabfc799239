package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

var _ outbound.CacheRepository = (*RedisClient)(nil)

// RedisClient is the byte-level Redis repository behind RepositoryCache.
// A circuit breaker stops a dead server from adding a network timeout to
// every calculation.
type RedisClient struct {
	client  redis.UniversalClient
	logger  *zap.Logger
	breaker *CircuitBreaker
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	opts := &redis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	}

	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := NewRedisClientFrom(redis.NewUniversalClient(opts), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("database", cfg.Database),
		zap.Bool("cluster_enabled", cfg.EnableCluster))

	return client, nil
}

// NewRedisClientFrom wraps an existing client without pinging it
func NewRedisClientFrom(client redis.UniversalClient, logger *zap.Logger) *RedisClient {
	return &RedisClient{
		client:  client,
		logger:  logger.Named("redis"),
		breaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.call(ctx, "PING", "", func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})
}

// Get retrieves a value, returning outbound.ErrKeyNotFound on a miss
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.call(ctx, "GET", key, func(ctx context.Context) error {
		var err error
		value, err = r.client.Get(ctx, key).Bytes()
		return err
	})
	if err != nil {
		r.misses.Add(1)
		if errors.Is(err, redis.Nil) {
			return nil, outbound.ErrKeyNotFound
		}
		return nil, err
	}
	r.hits.Add(1)
	return value, nil
}

// Set stores a value; ttl 0 keeps it until evicted by Redis
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.call(ctx, "SET", key, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, ttl).Err()
	})
}

// Delete removes a key
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	return r.call(ctx, "DEL", key, func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
}

// Exists reports whether a key is present
func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.call(ctx, "EXISTS", key, func(ctx context.Context) error {
		var err error
		n, err = r.client.Exists(ctx, key).Result()
		return err
	})
	return n > 0, err
}

// HitRatio returns hits / (hits + misses) since start
func (r *RedisClient) HitRatio() float64 {
	hits, misses := r.hits.Load(), r.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Universal exposes the underlying client for health checks
func (r *RedisClient) Universal() redis.UniversalClient {
	return r.client
}

// Close closes the underlying connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) call(ctx context.Context, op, key string, fn func(context.Context) error) error {
	if !r.breaker.AllowRequest() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	switch {
	case err == nil, errors.Is(err, redis.Nil):
		r.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// caller went away; says nothing about Redis
	default:
		r.breaker.RecordFailure()
		r.logger.Warn("Redis command failed",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err))
	}
	return err
}

// CircuitState represents circuit breaker states
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker opens after maxFailures consecutive failures and lets a
// single probe through once timeout has elapsed
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	failures        int
	lastFailureTime time.Time
	state           CircuitState
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       CircuitClosed,
		now:         time.Now,
	}
}

// AllowRequest checks if requests are allowed based on circuit state
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	default:
		// half-open: the probe is already in flight
		return false
	}
}

// RecordSuccess closes the circuit
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure counts a failure, opening the circuit at the threshold or
// when the half-open probe fails
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
