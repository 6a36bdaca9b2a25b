package domain

import (
	"context"
	"iter"
)

// Llm abstracts any chat/LLM provider.
type Llm interface {
	// Complete sends the envelope and waits for the whole reply.
	Complete(ctx context.Context, envelope PromptEnvelope) (string, error)
	// Stream yields reply fragments in provider order. The sequence ends when
	// the provider is done or right after it yields a non-nil error.
	Stream(ctx context.Context, envelope PromptEnvelope) iter.Seq2[string, error]
}

// ModelParameters are the sampling settings sent with every prompt.
type ModelParameters struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

var DefaultModelParameters = ModelParameters{
	MaxTokens:   1000,
	Temperature: 0.7,
	TopP:        0.9,
	TopK:        50,
}

type PromptEnvelope struct {
	SystemPrompt string          `json:"system_prompt"`
	UserMessage  string          `json:"user_message"`
	Parameters   ModelParameters `json:"parameters"`
}
