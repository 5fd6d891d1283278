// File path: internal/llm/json.go
package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON trims a model response down to the outermost JSON document.
// Models occasionally wrap structured output in markdown fences or prose;
// schema validation still happens at the caller.
func ExtractJSON(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return "", fmt.Errorf("empty response")
	}
	objStart := strings.Index(trimmed, "{")
	arrStart := strings.Index(trimmed, "[")
	start := objStart
	closer := "}"
	if start == -1 || (arrStart != -1 && arrStart < objStart) {
		start = arrStart
		closer = "]"
	}
	if start == -1 {
		return "", fmt.Errorf("no JSON document in response")
	}
	end := strings.LastIndex(trimmed, closer)
	if end <= start {
		return "", fmt.Errorf("unterminated JSON document in response")
	}
	return trimmed[start : end+1], nil
}
