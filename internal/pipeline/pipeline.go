// Package pipeline implements the six content generation stages. Each stage
// is one provider call: build a prompt, generate, unwrap the reply. Stages
// hold no state between calls; the caller carries artifacts from one stage
// into the next.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nitesh/blogsmith/internal/llm"
	"github.com/nitesh/blogsmith/pkg/models"
)

// verifyTemperature keeps the fact-verification pass close to deterministic.
const verifyTemperature = 0.2

type Pipeline struct {
	writer   llm.Generator
	verifier llm.Generator
}

// New builds a pipeline. writer handles every stage except verification,
// which goes to verifier (possibly the same model).
func New(writer, verifier llm.Generator) *Pipeline {
	return &Pipeline{writer: writer, verifier: verifier}
}

// Structure runs stage 1 and returns the post skeleton.
func (p *Pipeline) Structure(ctx context.Context, titleConcept string, company models.CompanyProfile) (*models.Structure, error) {
	text, err := llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: structurePrompt(titleConcept, company),
	})
	if err != nil {
		return nil, err
	}
	var out models.Structure
	if err := UnwrapJSON(text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Facts runs stage 2: answers for the structure's research questions.
// Currency symbols are rewritten and control characters stripped before the
// reply is parsed.
func (p *Pipeline) Facts(ctx context.Context, questions []string) (models.Facts, error) {
	text, err := llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: factsPrompt(questions),
	})
	if err != nil {
		return nil, err
	}
	cleaned := stripControlChars(NormalizeCurrency(StripFences(text)))
	var out models.Facts
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &RawResponseError{Raw: text, Err: err}
	}
	return out, nil
}

// Article runs stage 3 and returns the markdown draft verbatim.
func (p *Pipeline) Article(ctx context.Context, structure models.Structure, facts models.Facts, tone, style string, company models.CompanyProfile) (string, error) {
	return llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: articlePrompt(structure, facts, tone, style, company),
	})
}

// Verify runs stage 4 at low temperature and returns flagged inaccuracies.
func (p *Pipeline) Verify(ctx context.Context, draft string) (*models.Verification, error) {
	temp := verifyTemperature
	text, err := llm.GenerateText(ctx, p.verifier, llm.Request{
		Prompt:      verifyPrompt(draft),
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	var out models.Verification
	if err := UnwrapJSON(text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Polish runs stage 5. The reply is returned as raw text; the
// analysis/polished_post envelope is a contract with the caller and is not
// parsed here.
func (p *Pipeline) Polish(ctx context.Context, content string, corrections models.Verification) (string, error) {
	return llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: polishPrompt(content, corrections),
	})
}

// HTML runs stage 6 and returns the rendered markup with any surrounding
// code fence removed. No validation is performed on the markup itself.
func (p *Pipeline) HTML(ctx context.Context, content, title string, keywords []string) (string, error) {
	text, err := llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: htmlPrompt(content, title, keywords),
	})
	if err != nil {
		return "", err
	}
	return StripFences(text), nil
}

// SocialPosts generates the four-channel social bundle for a saved post.
func (p *Pipeline) SocialPosts(ctx context.Context, content string) (*models.SocialBundle, error) {
	text, err := llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: socialPrompt(content),
	})
	if err != nil {
		return nil, err
	}
	var out models.SocialBundle
	if err := UnwrapJSON(text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EmailDrips generates the four-email campaign for a saved post. A reply
// with the wrong number of drips is rejected.
func (p *Pipeline) EmailDrips(ctx context.Context, content string) ([]models.DripEmail, error) {
	text, err := llm.GenerateText(ctx, p.writer, llm.Request{
		Prompt: emailCampaignPrompt(content),
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Drips []models.DripEmail `json:"drips"`
	}
	if err := UnwrapJSON(text, &out); err != nil {
		return nil, err
	}
	if len(out.Drips) != 4 {
		return nil, &RawResponseError{Raw: text, Err: fmt.Errorf("expected 4 drips, got %d", len(out.Drips))}
	}
	return out.Drips, nil
}
