// Package healthcheck aggregates dependency probes behind the /health,
// /ready and /live endpoints
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// worse returns the more severe of two statuses
func worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// failureStatus is what a failed probe reports
func failureStatus(critical bool) Status {
	if critical {
		return StatusUnhealthy
	}
	return StatusDegraded
}

// Check is the outcome of one probe
type Check struct {
	Name       string      `json:"name"`
	Status     Status      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Metadata   interface{} `json:"metadata,omitempty"`
	CheckedAt  time.Time   `json:"checked_at"`
	DurationMS float64     `json:"duration_ms"`
}

// Response is the aggregated report
type Response struct {
	Status     Status    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Checks     []Check   `json:"checks"`
	DurationMS float64   `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

type registration struct {
	name    string
	checker Checker
}

// HealthCheck runs the registered checkers and caches the report briefly
type HealthCheck struct {
	version string
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	checks   []registration
	last     *Response
	cacheTTL time.Duration
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger,
		timeout:  10 * time.Second,
		cacheTTL: 5 * time.Second,
	}
}

// Register adds or replaces the checker under name
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = nil
	for i := range h.checks {
		if h.checks[i].name == name {
			h.checks[i].checker = checker
			return
		}
	}
	h.checks = append(h.checks, registration{name: name, checker: checker})
	sort.Slice(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
}

// SetCacheTTL sets how long a report is reused
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Check runs all checkers concurrently. Checks come back sorted by name.
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.last != nil && time.Since(h.last.Timestamp) < h.cacheTTL {
		report := *h.last
		h.mu.RUnlock()
		return report
	}
	checks := append([]registration(nil), h.checks...)
	h.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]Check, len(checks))
	var wg sync.WaitGroup
	for i, reg := range checks {
		wg.Add(1)
		go func(i int, reg registration) {
			defer wg.Done()
			results[i] = reg.checker.Check(ctx)
			results[i].Name = reg.name
		}(i, reg)
	}
	wg.Wait()

	report := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    results,
	}
	for _, c := range results {
		report.Status = worse(report.Status, c.Status)
	}
	report.DurationMS = milliseconds(time.Since(start))

	h.mu.Lock()
	h.last = &report
	h.mu.Unlock()

	return report
}

// Handler serves the full report; 503 only when a check is unhealthy
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())

		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
			h.logger.Warn("Health check failed", zap.Any("checks", report.Checks))
		}
		writeJSON(w, status, report)
	}
}

// ReadinessHandler answers 503 while a critical dependency is down. A
// degraded optional dependency still leaves the service ready.
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())

		if report.Status == StatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"checks": report.Checks,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"health": report.Status,
		})
	}
}

// LivenessHandler answers as long as the process serves HTTP
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// Pinger is anything with a connectivity probe: repositories, caches,
// estimator clients
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker turns a Pinger into a check
type PingChecker struct {
	pinger   Pinger
	critical bool
}

// NewPingChecker creates a ping checker. A non-critical dependency that
// fails reports degraded instead of unhealthy.
func NewPingChecker(pinger Pinger, critical bool) *PingChecker {
	return &PingChecker{pinger: pinger, critical: critical}
}

func (p *PingChecker) Check(ctx context.Context) Check {
	return timed(func() Check {
		if err := p.pinger.Ping(ctx); err != nil {
			return Check{Status: failureStatus(p.critical), Message: err.Error()}
		}
		return Check{Status: StatusHealthy}
	})
}

// RedisChecker pings Redis and reports the key count
type RedisChecker struct {
	client   redis.UniversalClient
	critical bool
}

// NewRedisChecker creates a Redis checker
func NewRedisChecker(client redis.UniversalClient, critical bool) *RedisChecker {
	return &RedisChecker{client: client, critical: critical}
}

func (r *RedisChecker) Check(ctx context.Context) Check {
	check := timed(func() Check {
		pong, err := r.client.Ping(ctx).Result()
		switch {
		case err != nil:
			return Check{Status: failureStatus(r.critical), Message: err.Error()}
		case pong != "PONG":
			return Check{Status: failureStatus(r.critical), Message: "unexpected ping reply " + pong}
		}

		c := Check{Status: StatusHealthy}
		if keys, err := r.client.DBSize(ctx).Result(); err == nil {
			c.Metadata = map[string]int64{"keys": keys}
		}
		return c
	})
	check.Name = "redis"
	return check
}

// CustomChecker wraps a probe function
type CustomChecker struct {
	name  string
	check func(ctx context.Context) (Status, string, interface{})
}

// NewCustomChecker creates a new custom checker
func NewCustomChecker(name string, check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{name: name, check: check}
}

func (c *CustomChecker) Check(ctx context.Context) Check {
	check := timed(func() Check {
		status, message, metadata := c.check(ctx)
		return Check{Status: status, Message: message, Metadata: metadata}
	})
	check.Name = c.name
	return check
}

// timed stamps a probe result with its start time and duration
func timed(probe func() Check) Check {
	start := time.Now()
	c := probe()
	c.CheckedAt = start
	c.DurationMS = milliseconds(time.Since(start))
	return c
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
