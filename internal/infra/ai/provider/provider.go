// Package provider picks the text generation backend named in configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/dao-advisor/internal/config"
	"github.com/bryanwahyu/dao-advisor/internal/domain/ai"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/gemini"
	"github.com/bryanwahyu/dao-advisor/internal/infra/ai/openai"
)

func New(ctx context.Context, cfg config.AI) (ai.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return gemini.NewClient(ctx, cfg.APIKey, cfg.Model, gemini.Options{
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: api key is required")
		}
		return openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
