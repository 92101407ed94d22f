package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
	"github.com/hoangvvo/llm-sdk/sdk-go/anthropic"
	"github.com/hoangvvo/llm-sdk/sdk-go/openai"
)

// Generator is the slice of llmsdk.LanguageModel the pipeline needs. Stage
// code takes this instead of the full interface so tests can drop in a fake.
type Generator interface {
	Generate(ctx context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error)
}

// Request describes one single-shot text generation.
type Request struct {
	System      string
	Prompt      string
	Temperature *float64
	MaxTokens   *uint32
}

// GenerateText runs one request and concatenates the text parts of the
// reply. Non-text parts (tool calls, images) are ignored; the content
// endpoints never ask for them.
func GenerateText(ctx context.Context, g Generator, req Request) (string, error) {
	input := &llmsdk.LanguageModelInput{
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.NewTextPart(req.Prompt)),
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		input.SystemPrompt = &req.System
	}

	resp, err := g.Generate(ctx, input)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}

	var b strings.Builder
	for _, part := range resp.Content {
		if part.TextPart != nil {
			b.WriteString(part.TextPart.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("llm generate: model returned no text")
	}
	return text, nil
}

// NewModel constructs a provider model. The API key comes from the
// provider's conventional env var and is required.
func NewModel(provider, modelID string) (llmsdk.LanguageModel, error) {
	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return openai.NewOpenAIModel(modelID, openai.OpenAIModelOptions{APIKey: key}), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
		return anthropic.NewAnthropicModel(modelID, anthropic.AnthropicModelOptions{APIKey: key}), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", provider)
	}
}

// NewWriterFromEnv builds the model used for structure, facts, drafting,
// polish, html and downstream content (LLM_PROVIDER / LLM_MODEL).
func NewWriterFromEnv() (llmsdk.LanguageModel, error) {
	return NewModel(envOrDefault("LLM_PROVIDER", "openai"), envOrDefault("LLM_MODEL", "gpt-4o"))
}

// NewVerifierFromEnv builds the model used for fact verification. It
// defaults to the writer's provider and model so a single-provider setup
// needs no extra configuration.
func NewVerifierFromEnv() (llmsdk.LanguageModel, error) {
	provider := envOrDefault("LLM_VERIFIER_PROVIDER", envOrDefault("LLM_PROVIDER", "openai"))
	model := envOrDefault("LLM_VERIFIER_MODEL", envOrDefault("LLM_MODEL", "gpt-4o"))
	return NewModel(provider, model)
}

func envOrDefault(key, d string) string {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	return v
}
