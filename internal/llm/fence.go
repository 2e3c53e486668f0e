package llm

import (
	"encoding/json"
	"strings"
)

// StripFences removes a surrounding markdown code fence from s, including
// any language tag on the opening fence. Text without fences is returned
// trimmed but otherwise untouched. A lone opening or closing fence is
// removed on its own.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DecodeJSON strips fences from raw and unmarshals it into v. The oracle
// is a free-text generator, so every caller goes through this guard
// instead of parsing replies directly.
func DecodeJSON(raw string, v any) error {
	return json.Unmarshal([]byte(StripFences(raw)), v)
}

// ExtractFencedBlock returns the content of the first fenced code block
// in s, or an empty string if none exists. Used when a reply mixes prose
// with a code suggestion.
func ExtractFencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	// skip language tag up to end of line
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
