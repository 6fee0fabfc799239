package nutrition

import "time"

// Outcome labels how a calculation was answered
type Outcome string

const (
	OutcomeCacheHit      Outcome = "cache_hit"
	OutcomeDeterministic Outcome = "deterministic"
	OutcomeEstimated     Outcome = "estimated"
	OutcomeUnavailable   Outcome = "unavailable"
)

// Reasons the deterministic path gave up
const (
	UnresolvedIngredient = "ingredient"
	UnresolvedUnit       = "unit"
)

// Metrics receives service-level measurements
type Metrics interface {
	RecordCalculation(outcome Outcome)
	ObserveEstimator(duration time.Duration, err error)
	RecordUnresolved(reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordCalculation(Outcome) {}
func (nopMetrics) ObserveEstimator(time.Duration, error) {}
func (nopMetrics) RecordUnresolved(string) {}
