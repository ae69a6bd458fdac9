package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FallbackName is the creature name used when the concept reply cannot be
// parsed or carries no name.
const FallbackName = "Unknown"

// ConceptResult is the outcome of parsing a creature-concept reply. It is
// either a ParsedConcept or a FallbackConcept.
type ConceptResult interface {
	isConcept()
}

// ParsedConcept holds a usable name and image prompt from the model.
type ParsedConcept struct {
	Name        string
	ImagePrompt string
}

// FallbackConcept signals that the deterministic image prompt must be used.
type FallbackConcept struct {
	Reason string
}

func (ParsedConcept) isConcept()   {}
func (FallbackConcept) isConcept() {}

var (
	fenceJSONOpen = regexp.MustCompile("^```json\\s*")
	fenceOpen     = regexp.MustCompile("^```\\s*")
	fenceClose    = regexp.MustCompile("\\s*```$")
)

// stripFences removes a surrounding Markdown code fence, with or without a
// json language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceJSONOpen.ReplaceAllString(s, "")
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} object in s. Braces
// inside JSON strings are ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr, esc := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseConcept interprets a concept reply. The fence-stripped reply must be a
// single JSON object with an image_prompt, otherwise the result is
// FallbackConcept. A missing name is replaced by FallbackName.
func ParseConcept(reply string) ConceptResult {
	var raw struct {
		Name        string `json:"name"`
		ImagePrompt string `json:"image_prompt"`
	}
	if err := json.Unmarshal([]byte(stripFences(reply)), &raw); err != nil {
		return FallbackConcept{Reason: "decode concept: " + err.Error()}
	}
	prompt := strings.TrimSpace(raw.ImagePrompt)
	if prompt == "" {
		return FallbackConcept{Reason: "concept has no image_prompt"}
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = FallbackName
	}
	return ParsedConcept{Name: name, ImagePrompt: prompt}
}
