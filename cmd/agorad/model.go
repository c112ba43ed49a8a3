package main

import (
	"fmt"

	"github.com/openagora/agora/internal/adapter/anthropic"
	"github.com/openagora/agora/internal/adapter/litellm"
	"github.com/openagora/agora/internal/adapter/openai"
	"github.com/openagora/agora/internal/config"
	"github.com/openagora/agora/internal/port/model"
)

// buildModel selects the LLM provider adapter for the given config.
// "litellm" serves any OpenAI-compatible gateway and needs base_url set.
func buildModel(cfg config.LLM) (model.Model, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(cfg), nil
	case "openai":
		return openai.New(cfg), nil
	case "litellm":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("litellm provider requires base_url")
		}
		return litellm.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
