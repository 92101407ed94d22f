package llm

import (
	"context"
	"errors"
	"testing"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	resp *llmsdk.ModelResponse
	err  error
	last *llmsdk.LanguageModelInput
}

func (s *stubGenerator) Generate(_ context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error) {
	s.last = input
	return s.resp, s.err
}

func TestGenerateTextConcatenatesTextParts(t *testing.T) {
	gen := &stubGenerator{resp: &llmsdk.ModelResponse{
		Content: []llmsdk.Part{
			llmsdk.NewTextPart("hello "),
			llmsdk.NewToolCallPart("call_1", "noop", map[string]any{}),
			llmsdk.NewTextPart("world"),
		},
	}}

	got, err := GenerateText(context.Background(), gen, Request{Prompt: "say hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestGenerateTextCarriesSystemAndTemperature(t *testing.T) {
	gen := &stubGenerator{resp: &llmsdk.ModelResponse{
		Content: []llmsdk.Part{llmsdk.NewTextPart("ok")},
	}}
	temp := 0.2
	maxTokens := uint32(512)

	_, err := GenerateText(context.Background(), gen, Request{
		System:      "be brief",
		Prompt:      "p",
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	require.NotNil(t, gen.last.SystemPrompt)
	assert.Equal(t, "be brief", *gen.last.SystemPrompt)
	require.NotNil(t, gen.last.Temperature)
	assert.InDelta(t, 0.2, *gen.last.Temperature, 1e-9)
	require.NotNil(t, gen.last.MaxTokens)
	assert.Equal(t, uint32(512), *gen.last.MaxTokens)
}

func TestGenerateTextEmptyReplyIsError(t *testing.T) {
	gen := &stubGenerator{resp: &llmsdk.ModelResponse{Content: []llmsdk.Part{}}}

	_, err := GenerateText(context.Background(), gen, Request{Prompt: "p"})
	assert.Error(t, err)
}

func TestGenerateTextWrapsProviderError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("auth failed")}

	_, err := GenerateText(context.Background(), gen, Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth failed")
}

func TestNewModelUnknownProvider(t *testing.T) {
	_, err := NewModel("parrot", "squawk-1")
	assert.Error(t, err)
}
