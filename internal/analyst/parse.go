package analyst

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model responses wrap JSON in code fences or prose often enough that a
// direct unmarshal alone loses real results.
var (
	codeFenceRegex = regexp.MustCompile("(?s)`{3}(?:json)?\\s*\\n?([\\s\\S]*?)\\n?`{3}")
	objectRegex    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// parseJSON unmarshals model output into out, stripping code fences and
// extracting the first JSON object from mixed content when needed.
func parseJSON(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), out); err == nil {
			return nil
		}
	}

	if m := objectRegex.FindString(trimmed); m != "" {
		return json.Unmarshal([]byte(m), out)
	}
	return json.Unmarshal([]byte(trimmed), out)
}
