package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nitesh/blogsmith/pkg/models"
)

func companyContext(company models.CompanyProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nIndustry: %s\nTagline: %s\n", company.CompanyName, company.Industry, company.Tagline)
	if company.Audience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", company.Audience)
	}
	if company.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", company.Website)
	}
	return b.String()
}

// structurePrompt asks for the post skeleton. The request timestamp is
// embedded so identical concepts do not hit a provider-side cache.
func structurePrompt(titleConcept string, company models.CompanyProfile) string {
	return fmt.Sprintf(`You are a content strategist planning a blog post.

%s
Working title concept: %q
Request time: %s (use this only to ensure a fresh response; do not mention it)

Design the post structure. Requirements:
- a final title and a one-sentence hook
- exactly 5 sections, ordered
- for each section, 2-3 research questions whose answers the writer will need
- 5-8 SEO keywords

Reply with JSON only, no prose and no markdown fences, using exactly these keys:
{"title": string, "hook": string, "sections": [string], "research_questions": {section title: [string]}, "keywords": [string]}`,
		companyContext(company), titleConcept, time.Now().UTC().Format(time.RFC3339))
}

func factsPrompt(questions []string) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return fmt.Sprintf(`You are a meticulous researcher. Answer each question below in 1-3
factual sentences. Write out currency names instead of symbols (say "25
million US dollars", never use currency signs).

Questions:
%s
Reply with JSON only, no markdown fences: an object mapping each question
string, verbatim, to its answer string.`, b.String())
}

func articlePrompt(structure models.Structure, facts models.Facts, tone, style string, company models.CompanyProfile) string {
	structureJSON, _ := json.MarshalIndent(structure, "", "  ")
	factsJSON, _ := json.MarshalIndent(facts, "", "  ")
	return fmt.Sprintf(`You are a senior content writer for the company below.

%s
Write a complete blog post in markdown following this structure exactly:
%s

Ground your writing in these researched facts:
%s

Tone: %s
Style: %s

Write the full article now. Output markdown only, starting with the title
as an H1. Do not add commentary before or after the article.`,
		companyContext(company), structureJSON, factsJSON, tone, style)
}

func verifyPrompt(draft string) string {
	return fmt.Sprintf(`You are a fact checker. Review the draft below and flag statements that
are inaccurate, unverifiable, or misleading.

Draft:
%s

Reply with JSON only, no markdown fences, using exactly this shape:
{"flagged_inaccuracies": [{"original_text": string, "reason": string, "corrected_text": string, "references": [string]}]}
Return an empty list if nothing needs correction.`, draft)
}

func polishPrompt(content string, corrections models.Verification) string {
	correctionsJSON, _ := json.MarshalIndent(corrections, "", "  ")
	return fmt.Sprintf(`You are an editor finalizing a blog post.

Original draft:
%s

Flagged corrections:
%s

Apply only the corrections that do not rest solely on the company's own
authority; leave first-party claims about the company untouched. Then give
the draft a final polish for flow.

Wrap your reply in this exact envelope:
<analysis>
a short summary of which corrections you applied and which you skipped, and why
</analysis>
<polished_post>
the full polished article in markdown
</polished_post>`, content, correctionsJSON)
}

func htmlPrompt(content, title string, keywords []string) string {
	return fmt.Sprintf(`Convert the markdown article below into clean semantic HTML suitable for a
blog body (h1/h2, p, ul/ol, blockquote, strong/em). Title: %q. SEO
keywords to preserve naturally: %s.

Article:
%s

Output HTML only, no markdown fences, no commentary.`,
		title, strings.Join(keywords, ", "), content)
}

func socialPrompt(content string) string {
	return fmt.Sprintf(`You are a social media manager. Create promotional posts for the article
below for four channels.

Article:
%s

Reply with JSON only, no markdown fences, using exactly this shape:
{
  "linkedin":  {"content": string, "hashtags": [string]},
  "twitter":   {"content": string, "hashtags": [string]},
  "facebook":  {"content": string, "link": string},
  "instagram": {"content": string, "hashtags": [string]}
}
Keep the twitter post under 280 characters including hashtags.`, content)
}

func emailCampaignPrompt(content string) string {
	return fmt.Sprintf(`You are an email marketer. Create a drip campaign of exactly 4 sequential
emails promoting the article below. Each email should build on the
previous one and reference the sequence (e.g. "as we covered last time").

Article:
%s

Reply with JSON only, no markdown fences, using exactly this shape:
{"drips": [{"sequence": 1, "subject": string, "body": string}, ...]}
The drips array must contain exactly 4 entries in order.`, content)
}
