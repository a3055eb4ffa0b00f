package providers

import (
	"context"
)

// SimilarityLLM sends a system and user prompt to a chat model in JSON mode
// and returns the raw completion text. The text is not guaranteed to be valid
// JSON; callers parse it defensively. Implementations must be safe for
// concurrent use.
type SimilarityLLM interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
