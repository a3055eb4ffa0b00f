package openai

import (
	"fmt"

	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/pkg/config"
)

// NewSimilarityLLM returns the chat backend selected by cfg.Backend.
func NewSimilarityLLM(cfg *config.OpenAIConfig) (providers.SimilarityLLM, error) {
	switch cfg.Backend {
	case "", "http":
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "langchaingo":
		client, err := NewLangChainClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown openai backend %q", cfg.Backend)
	}
}
