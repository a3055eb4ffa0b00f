package openai

import (
	"context"
	"errors"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/medbook/backend/pkg/config"
)

// LangChainClient implements providers.SimilarityLLM through langchaingo,
// which lets OPENAI_BASE_URL point at any OpenAI-compatible server.
type LangChainClient struct {
	model     llms.Model
	modelName string
	timeout   time.Duration
}

// NewLangChainClient builds a langchaingo OpenAI model from config. Local
// servers without auth get the placeholder token "none".
func NewLangChainClient(cfg *config.OpenAIConfig) (*LangChainClient, error) {
	if cfg == nil {
		return nil, errors.New("openai config is required")
	}

	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(token),
		lcopenai.WithModel(modelName),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, err
	}

	return NewLangChainClientWithModel(model, modelName, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
}

// NewLangChainClientWithModel wraps an existing langchaingo model.
func NewLangChainClientWithModel(model llms.Model, modelName string, timeout time.Duration) *LangChainClient {
	return &LangChainClient{model: model, modelName: modelName, timeout: timeout}
}

// CompleteJSON sends a system and a human message at temperature 0 in JSON mode.
func (c *LangChainClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		recordLLMMetric(ctx, "langchaingo", c.modelName, 0, time.Since(start), err)
		return "", err
	}

	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		err := errors.New("langchaingo response has no choices")
		recordLLMMetric(ctx, "langchaingo", c.modelName, 0, time.Since(start), err)
		return "", err
	}

	recordLLMMetric(ctx, "langchaingo", c.modelName, 0, time.Since(start), nil)
	return stripCodeFence(response.Choices[0].Content), nil
}
