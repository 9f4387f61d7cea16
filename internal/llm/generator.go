package llm

import (
	"context"
	"time"

	"contextchat/internal/config"
	"contextchat/internal/observability"
)

// Generator produces a completion for a fully rendered prompt. apiKey is the
// caller's key; implementations fall back to their own default when empty.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string, params config.GenerationParams) (string, error)
}

// Instrumented records the latency of every call under provider.
type Instrumented struct {
	Generator
	Provider string
}

func (g Instrumented) Generate(ctx context.Context, apiKey, prompt string, params config.GenerationParams) (string, error) {
	start := time.Now()
	defer func() {
		observability.LLMRequestSeconds.WithLabelValues(g.Provider).Observe(time.Since(start).Seconds())
	}()
	return g.Generator.Generate(ctx, apiKey, prompt, params)
}

func resolveKey(apiKey, fallback string) string {
	if apiKey != "" {
		return apiKey
	}
	return fallback
}
