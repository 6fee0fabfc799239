// Package ai selects the nutrition estimator backing the knowledge-base
// fallback
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/ai/ollama"
	"github.com/larderly/server/internal/infrastructure/ai/openai"
	"github.com/larderly/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// Supported providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// ErrEstimatorDisabled is returned by DisabledEstimator
var ErrEstimatorDisabled = fmt.Errorf("nutrition estimator is disabled: %w", nutrition.ErrNoNutritionData)

// ProviderConfig is the subset of AI settings the factory needs
type ProviderConfig struct {
	Provider    string
	OpenAIKey   string
	OpenAIURL   string
	OpenAIModel string
	OllamaHost  string
	OllamaModel string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewEstimator builds the estimator for the configured provider. An OpenAI
// provider without an API key degrades to the disabled estimator rather
// than failing startup.
func NewEstimator(cfg ProviderConfig, logger *zap.Logger) (outbound.NutritionEstimator, error) {
	namedLogger := logger.Named("ai-provider")

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIURL,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, namedLogger)
		if err != nil {
			namedLogger.Warn("OpenAI estimator unavailable, nutrition fallback disabled", zap.Error(err))
			return DisabledEstimator{}, nil
		}
		return client, nil
	case ProviderOllama:
		return ollama.NewClient(ollama.Config{
			BaseURL:     cfg.OllamaHost,
			Model:       cfg.OllamaModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, namedLogger), nil
	case ProviderNone, "":
		namedLogger.Info("Nutrition estimator disabled")
		return DisabledEstimator{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// DisabledEstimator never produces nutrition. It stands in when no provider
// is configured so the deterministic path still works.
type DisabledEstimator struct{}

// EstimateNutrition always fails with ErrEstimatorDisabled
func (DisabledEstimator) EstimateNutrition(context.Context, string, int) (*nutrition.Profile, error) {
	return nil, ErrEstimatorDisabled
}
