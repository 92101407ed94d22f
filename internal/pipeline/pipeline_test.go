package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitesh/blogsmith/pkg/models"
)

// fakeGenerator replays canned replies and records every input it saw.
type fakeGenerator struct {
	replies []string
	err     error
	inputs  []*llmsdk.LanguageModelInput
}

func (f *fakeGenerator) Generate(_ context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return &llmsdk.ModelResponse{
		Content: []llmsdk.Part{llmsdk.NewTextPart(reply)},
	}, nil
}

func (f *fakeGenerator) lastPrompt(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.inputs)
	input := f.inputs[len(f.inputs)-1]
	require.NotEmpty(t, input.Messages)
	require.NotNil(t, input.Messages[0].UserMessage)
	require.NotEmpty(t, input.Messages[0].UserMessage.Content)
	require.NotNil(t, input.Messages[0].UserMessage.Content[0].TextPart)
	return input.Messages[0].UserMessage.Content[0].TextPart.Text
}

var testCompany = models.CompanyProfile{
	CompanyName: "Acme Robotics",
	Industry:    "industrial automation",
	Tagline:     "robots that work",
}

const structureReply = "```json\n" + `{
  "title": "Five Ways Robots Cut Downtime",
  "hook": "Downtime is the silent budget killer.",
  "sections": ["Intro", "Causes", "Detection", "Prevention", "Outlook"],
  "research_questions": {"Causes": ["What share of downtime is unplanned?"]},
  "keywords": ["robotics", "downtime", "automation"]
}` + "\n```"

func TestStructureParsesFencedReply(t *testing.T) {
	gen := &fakeGenerator{replies: []string{structureReply}}
	p := New(gen, gen)

	got, err := p.Structure(context.Background(), "robots and downtime", testCompany)
	require.NoError(t, err)

	assert.Equal(t, "Five Ways Robots Cut Downtime", got.Title)
	assert.NotEmpty(t, got.Hook)
	assert.Len(t, got.Sections, 5)
	assert.Contains(t, got.ResearchQuestions, "Causes")
	assert.NotEmpty(t, got.Keywords)

	prompt := gen.lastPrompt(t)
	assert.Contains(t, prompt, "exactly 5 sections")
	assert.Contains(t, prompt, "Acme Robotics")
	assert.Contains(t, prompt, "robots and downtime")
	// timestamp embedded to defeat provider caching
	assert.Contains(t, prompt, "Request time:")
}

func TestStructureParseFailureReturnsRawText(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"I could not produce JSON, sorry."}}
	p := New(gen, gen)

	_, err := p.Structure(context.Background(), "robots", testCompany)
	require.Error(t, err)

	var rawErr *RawResponseError
	require.True(t, errors.As(err, &rawErr))
	assert.Equal(t, "I could not produce JSON, sorry.", rawErr.Raw)
}

func TestFactsNormalizesCurrencyAndControlChars(t *testing.T) {
	reply := "```json\n{\"How big is the market?\": \"About $3 billion\x07 annually\"}\n```"
	gen := &fakeGenerator{replies: []string{reply}}
	p := New(gen, gen)

	facts, err := p.Facts(context.Background(), []string{"How big is the market?"})
	require.NoError(t, err)

	assert.Equal(t, "About USD 3 billion annually", facts["How big is the market?"])

	// no literal $ anywhere in the artifact
	out, err := json.Marshal(facts)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "$")
}

func TestFactsPromptDiscouragesCurrencySymbols(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"q": "a"}`}}
	p := New(gen, gen)

	_, err := p.Facts(context.Background(), []string{"q"})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(t), "never use currency signs")
}

func TestArticleReturnsMarkdownVerbatim(t *testing.T) {
	md := "# Title\n\nSome **markdown** body."
	gen := &fakeGenerator{replies: []string{md}}
	p := New(gen, gen)

	got, err := p.Article(context.Background(), models.Structure{Title: "Title"}, models.Facts{"q": "a"}, "friendly", "listicle", testCompany)
	require.NoError(t, err)
	assert.Equal(t, md, got)

	prompt := gen.lastPrompt(t)
	assert.Contains(t, prompt, "friendly")
	assert.Contains(t, prompt, "listicle")
}

func TestVerifyUsesVerifierAtLowTemperature(t *testing.T) {
	writer := &fakeGenerator{replies: []string{"writer should not be called"}}
	verifier := &fakeGenerator{replies: []string{`{"flagged_inaccuracies": [{"original_text": "the moon is cheese", "reason": "false", "corrected_text": "the moon is rock", "references": ["nasa.gov"]}]}`}}
	p := New(writer, verifier)

	got, err := p.Verify(context.Background(), "# Draft\nthe moon is cheese")
	require.NoError(t, err)

	require.Len(t, got.FlaggedInaccuracies, 1)
	assert.Equal(t, "the moon is rock", got.FlaggedInaccuracies[0].CorrectedText)

	assert.Empty(t, writer.inputs)
	require.Len(t, verifier.inputs, 1)
	require.NotNil(t, verifier.inputs[0].Temperature)
	assert.InDelta(t, 0.2, *verifier.inputs[0].Temperature, 1e-9)
}

func TestPolishReturnsEnvelopeUnparsed(t *testing.T) {
	reply := "<analysis>\napplied 1 of 2\n</analysis>\n<polished_post>\n# Final\n</polished_post>"
	gen := &fakeGenerator{replies: []string{reply}}
	p := New(gen, gen)

	corrections := models.Verification{FlaggedInaccuracies: []models.Inaccuracy{
		{OriginalText: "x", Reason: "wrong", CorrectedText: "y"},
	}}
	got, err := p.Polish(context.Background(), "# Draft", corrections)
	require.NoError(t, err)

	// raw passthrough, envelope intact
	assert.Equal(t, reply, got)
	assert.Contains(t, got, "<analysis>")
	assert.Contains(t, got, "<polished_post>")

	prompt := gen.lastPrompt(t)
	assert.Contains(t, prompt, "wrong")
	assert.Contains(t, prompt, "<polished_post>")
}

func TestHTMLReturnsMarkupUntouched(t *testing.T) {
	html := "<article><h1>Title</h1><p>Body</p></article>"
	gen := &fakeGenerator{replies: []string{html}}
	p := New(gen, gen)

	got, err := p.HTML(context.Background(), "# Title\nBody", "Title", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, html, got)
	assert.Contains(t, gen.lastPrompt(t), "a, b")
}

func TestHTMLStripsSurroundingFence(t *testing.T) {
	html := "<h1>Title</h1>\n<p>Body</p>"
	gen := &fakeGenerator{replies: []string{"```html\n" + html + "\n```"}}
	p := New(gen, gen)

	got, err := p.HTML(context.Background(), "# Title\nBody", "Title", nil)
	require.NoError(t, err)
	assert.Equal(t, html, got)
	assert.NotContains(t, got, "```")
}

func TestSocialPostsParsesFourChannels(t *testing.T) {
	reply := `{
  "linkedin":  {"content": "long form", "hashtags": ["#robots"]},
  "twitter":   {"content": "short form", "hashtags": ["#robots"]},
  "facebook":  {"content": "casual", "link": "https://example.com/post"},
  "instagram": {"content": "visual", "hashtags": ["#automation"]}
}`
	gen := &fakeGenerator{replies: []string{reply}}
	p := New(gen, gen)

	got, err := p.SocialPosts(context.Background(), "# Article")
	require.NoError(t, err)

	assert.Equal(t, "long form", got.LinkedIn.Content)
	assert.Equal(t, []string{"#robots"}, got.Twitter.Hashtags)
	assert.Equal(t, "https://example.com/post", got.Facebook.Link)
	assert.Empty(t, got.Facebook.Hashtags)
	assert.Equal(t, "visual", got.Instagram.Content)
}

func TestEmailDripsRejectsWrongCount(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"drips": [{"sequence": 1, "subject": "s", "body": "b"}]}`}}
	p := New(gen, gen)

	_, err := p.EmailDrips(context.Background(), "# Article")
	require.Error(t, err)

	var rawErr *RawResponseError
	assert.True(t, errors.As(err, &rawErr))
}

func TestEmailDripsHappyPath(t *testing.T) {
	reply := `{"drips": [
  {"sequence": 1, "subject": "s1", "body": "b1"},
  {"sequence": 2, "subject": "s2", "body": "b2"},
  {"sequence": 3, "subject": "s3", "body": "b3"},
  {"sequence": 4, "subject": "s4", "body": "b4"}
]}`
	gen := &fakeGenerator{replies: []string{reply}}
	p := New(gen, gen)

	drips, err := p.EmailDrips(context.Background(), "# Article")
	require.NoError(t, err)
	require.Len(t, drips, 4)
	assert.Equal(t, 4, drips[3].Sequence)
	assert.Contains(t, gen.lastPrompt(t), "exactly 4")
}

func TestProviderErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	p := New(gen, gen)

	_, err := p.Structure(context.Background(), "topic", testCompany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
