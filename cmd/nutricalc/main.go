// Package main provides nutricalc, a command that prints per-serving
// nutrition for an ingredient list without running the API server
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	nutritionapp "github.com/larderly/server/internal/application/nutrition"
	"github.com/larderly/server/internal/domain/nutrition"
	"github.com/larderly/server/internal/infrastructure/ai"
	"github.com/larderly/server/internal/infrastructure/cache"
	"github.com/larderly/server/internal/infrastructure/config"
	"github.com/larderly/server/internal/ports/outbound"
	"github.com/larderly/server/pkg/logger"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess     = 0
	exitCodeUnavailable = 1
	exitCodeError       = 2
)

// Options holds command-line configuration
type Options struct {
	File       string
	Servings   int
	Estimate   bool
	ConfigPath string
	Timeout    time.Duration
	Verbose    bool
}

func main() {
	os.Exit(run(parseFlags(), os.Stdin, os.Stdout))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.File, "file", "", "Ingredient file, one quantity|unit|name per line (default stdin)")
	flag.IntVar(&opts.Servings, "servings", 1, "Number of servings")
	flag.BoolVar(&opts.Estimate, "estimate", false, "Fall back to the configured AI estimator for unknown ingredients")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path, used with -estimate")
	flag.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Log to stderr")

	flag.Parse()
	return opts
}

func run(opts Options, stdin io.Reader, stdout io.Writer) int {
	log := zap.NewNop()
	if opts.Verbose {
		l, err := logger.New(logger.Config{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
			return exitCodeError
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	in := stdin
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", opts.File, err)
			return exitCodeError
		}
		defer f.Close()
		in = f
	}

	ingredients, err := ReadIngredients(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read ingredients: %v\n", err)
		return exitCodeError
	}

	estimator, err := newEstimator(opts, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure estimator: %v\n", err)
		return exitCodeError
	}

	service := nutritionapp.NewService(nutrition.DefaultKnowledgeBase(), cache.NewMemoryCache(), estimator, log)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	profile := service.CalculateNutritionFromIngredients(ctx, ingredients, opts.Servings)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if profile == nil {
		_ = enc.Encode(map[string]interface{}{"available": false})
		return exitCodeUnavailable
	}
	if err := enc.Encode(map[string]interface{}{
		"available": true,
		"servings":  nutrition.NormalizeServings(opts.Servings),
		"nutrition": profile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

func newEstimator(opts Options, log *zap.Logger) (outbound.NutritionEstimator, error) {
	if !opts.Estimate {
		return ai.DisabledEstimator{}, nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return ai.NewEstimator(ai.ProviderConfig{
		Provider:    cfg.AI.Provider,
		OpenAIKey:   cfg.AI.OpenAIKey,
		OpenAIURL:   cfg.AI.OpenAIURL,
		OpenAIModel: cfg.AI.OpenAIModel,
		OllamaHost:  cfg.AI.OllamaHost,
		OllamaModel: cfg.AI.OllamaModel,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	}, log)
}
