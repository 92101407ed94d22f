package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawResponseError reports a provider reply that was not valid JSON after
// fence-stripping. Raw holds the untouched model text so an operator can see
// what actually came back.
type RawResponseError struct {
	Raw string
	Err error
}

func (e *RawResponseError) Error() string {
	return fmt.Sprintf("model response was not valid JSON: %v", e.Err)
}

func (e *RawResponseError) Unwrap() error {
	return e.Err
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace. Unfenced input passes through
// unchanged apart from trimming.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
			s = strings.TrimPrefix(s, "json")
			s = strings.TrimPrefix(s, "html")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// UnwrapJSON strips fences from a model reply and decodes it into dst. On
// decode failure it returns a *RawResponseError carrying the original text.
func UnwrapJSON(raw string, dst any) error {
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), dst); err != nil {
		return &RawResponseError{Raw: raw, Err: err}
	}
	return nil
}

// NormalizeCurrency rewrites literal dollar signs so downstream JSON and
// template handling never sees `$`.
func NormalizeCurrency(s string) string {
	return strings.ReplaceAll(s, "$", "USD ")
}

// stripControlChars drops C0 control characters except tab, newline and
// carriage return. Models occasionally emit stray control bytes that break
// json.Unmarshal.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
