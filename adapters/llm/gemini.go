package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/satriahrh/contextchat/config"
	"github.com/satriahrh/contextchat/domain"
)

const providerName = "gemini"

// generator is the part of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type GeminiClient struct {
	models generator
	model  string
}

// NewGeminiClient builds the Gemini gateway. Without an API key no SDK client
// is created and every call fails with a *domain.ConfigError.
func NewGeminiClient(ctx context.Context, cfg config.LLM) (*GeminiClient, error) {
	g := &GeminiClient{model: cfg.Model}
	if g.model == "" {
		g.model = config.DefaultModel
	}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: cfg.APIVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func newWithGenerator(models generator, model string) *GeminiClient {
	return &GeminiClient{models: models, model: model}
}

// Complete implements domain.Llm.
func (g *GeminiClient) Complete(ctx context.Context, envelope domain.PromptEnvelope) (string, error) {
	if g.models == nil {
		return "", &domain.ConfigError{Setting: "GEMINI_API_KEY"}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, userTurn(envelope), generationConfig(envelope))
	if err != nil {
		return "", &domain.ProviderError{Provider: providerName, Err: fmt.Errorf("generate content: %w", err)}
	}
	return responseText(resp), nil
}

// Stream implements domain.Llm. Chunks without text, such as the final
// finish-reason chunk, are not yielded.
func (g *GeminiClient) Stream(ctx context.Context, envelope domain.PromptEnvelope) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if g.models == nil {
			yield("", &domain.ConfigError{Setting: "GEMINI_API_KEY"})
			return
		}

		for resp, err := range g.models.GenerateContentStream(ctx, g.model, userTurn(envelope), generationConfig(envelope)) {
			if err != nil {
				yield("", &domain.ProviderError{Provider: providerName, Err: fmt.Errorf("stream content: %w", err)})
				return
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func userTurn(envelope domain.PromptEnvelope) []*genai.Content {
	return []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: envelope.UserMessage}},
	}}
}

func generationConfig(envelope domain.PromptEnvelope) *genai.GenerateContentConfig {
	p := envelope.Parameters
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: envelope.SystemPrompt}},
		},
		MaxOutputTokens: int32(p.MaxTokens),
		Temperature:     genai.Ptr(float32(p.Temperature)),
		TopP:            genai.Ptr(float32(p.TopP)),
		TopK:            genai.Ptr(float32(p.TopK)),
	}
}

// responseText joins the text parts of the first candidate in order.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
