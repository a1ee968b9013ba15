package providers

import "context"

const FinishReasonLength = "length"

type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	TopP         float64
}

type ChatResponse struct {
	Text         string
	FinishReason string
}

// Truncated reports whether generation stopped at the token limit.
func (r ChatResponse) Truncated() bool {
	return r.FinishReason == FinishReasonLength
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
