package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the JSON payload out of a model response. Models wrap
// JSON in markdown fences or chat around it even when told not to, so we
// locate the outermost object or array instead of trusting the whole string.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON object or array in response")
	}
	closing := byte('}')
	if s[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(s, closing)
	if end < start {
		return "", fmt.Errorf("unterminated JSON in response")
	}
	return s[start : end+1], nil
}
