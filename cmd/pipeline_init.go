package main

import (
	"github.com/clearline-kyc/sow-cli/internal/extract"
	"github.com/clearline-kyc/sow-cli/internal/pipeline"
	"github.com/clearline-kyc/sow-cli/internal/resilience"
	"github.com/clearline-kyc/sow-cli/internal/schema"
	anthropicpkg "github.com/clearline-kyc/sow-cli/pkg/anthropic"
)

// initPipeline validates the config for the given mode and builds the
// extraction pipeline with its API client, rate limits, and breaker.
func initPipeline(mode string) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg, err := schema.Load()
	if err != nil {
		return nil, err
	}

	client := anthropicpkg.NewClient(cfg.Anthropic.Key)

	temperature := cfg.Anthropic.Temperature
	ex := extract.New(client, reg, extract.Options{
		Model:             cfg.Anthropic.Model,
		MaxTokens:         int64(cfg.Anthropic.MaxTokens),
		Temperature:       &temperature,
		RequestsPerSecond: cfg.Anthropic.RequestsPerSecond,
		Burst:             cfg.Anthropic.Burst,
		Retry: resilience.FromRetryConfig(
			cfg.Retry.MaxAttempts,
			cfg.Retry.InitialBackoffMs,
			cfg.Retry.MaxBackoffMs,
			cfg.Retry.Multiplier,
			cfg.Retry.JitterFraction,
		),
		Breaker: resilience.FromCircuitConfig(
			cfg.Circuit.FailureThreshold,
			cfg.Circuit.ResetTimeoutSecs,
		),
	})

	return pipeline.New(ex, reg, pipeline.Options{
		DispatchConcurrency: cfg.Pipeline.DispatchConcurrency,
		ResolveConcurrency:  cfg.Pipeline.ResolveConcurrency,
		Model:               cfg.Anthropic.Model,
	}), nil
}
