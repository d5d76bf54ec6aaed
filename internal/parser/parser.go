// Package parser turns raw text-completion output into suggestion items.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
)

// Item is one suggestion-shaped object from the model output.
type Item struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Hashtags    Hashtags `json:"hashtags"`
	ContentType string   `json:"contentType"`
}

// Hashtags accepts either a JSON array or a single separated string.
type Hashtags []string

func (h *Hashtags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*h = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		// null, numbers and objects carry no tags
		*h = nil
		return nil
	}
	*h = strings.FieldsFunc(single, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	return nil
}

type strategy struct {
	name  string
	parse func(raw string) ([]Item, error)
}

var strategies = []strategy{
	{name: "fenced", parse: parseFenced},
	{name: "embedded array", parse: parseEmbedded},
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```$")

// Parse tries each strategy in order and normalizes the first success. The
// error wraps apperr.ErrMalformedGenerationResponse. Normalization never turns
// a successful parse into a failure, so the item list may be empty.
func Parse(raw string, allowedTypes []string) ([]Item, error) {
	var reasons []string
	for _, s := range strategies {
		items, err := s.parse(raw)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", s.name, err))
			continue
		}
		return Normalize(items, allowedTypes), nil
	}
	return nil, fmt.Errorf("%w: %s", apperr.ErrMalformedGenerationResponse, strings.Join(reasons, "; "))
}

func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fence.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func parseFenced(raw string) ([]Item, error) {
	return decodeArray(stripFence(raw))
}

func parseEmbedded(raw string) ([]Item, error) {
	candidates := balancedArrays(raw)
	if len(candidates) == 0 {
		return nil, errors.New("no bracketed array found")
	}
	var lastErr error
	for _, c := range candidates {
		items, err := decodeArray(c)
		if err == nil {
			return items, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func decodeArray(text string) ([]Item, error) {
	if !strings.HasPrefix(text, "[") {
		return nil, errors.New("not a JSON array")
	}
	var items []Item
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// balancedArrays returns every balanced [...] span in s, in order of its
// opening bracket, skipping brackets that appear inside JSON strings. An
// opening bracket that is never closed is passed over.
func balancedArrays(s string) []string {
	var out []string
	for start := strings.IndexByte(s, '['); start >= 0; {
		if end := matchBracket(s, start); end >= 0 {
			out = append(out, s[start:end+1])
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return out
}

func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// AllowedTypes intersects the profile's content types with the vocabulary,
// defaulting to Post.
func AllowedTypes(profileTypes []string) []string {
	var allowed []string
	for _, t := range profileTypes {
		if canonical, ok := canonicalType(t, models.ContentTypes); ok && !contains(allowed, canonical) {
			allowed = append(allowed, canonical)
		}
	}
	if len(allowed) == 0 {
		return []string{models.ContentTypePost}
	}
	return allowed
}

// Normalize never fails: it coerces content types, cleans hashtags and drops
// items without body text.
func Normalize(items []Item, allowedTypes []string) []Item {
	allowed := AllowedTypes(allowedTypes)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		it.Content = strings.TrimSpace(it.Content)
		if it.Content == "" {
			continue
		}
		if canonical, ok := canonicalType(it.ContentType, allowed); ok {
			it.ContentType = canonical
		} else {
			it.ContentType = models.ContentTypePost
		}
		it.Hashtags = cleanHashtags(it.Hashtags)
		out = append(out, it)
	}
	return out
}

func canonicalType(t string, vocabulary []string) (string, bool) {
	t = strings.TrimSpace(t)
	for _, v := range vocabulary {
		if strings.EqualFold(t, v) {
			return v, true
		}
	}
	return "", false
}

func cleanHashtags(tags Hashtags) Hashtags {
	out := Hashtags{}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
