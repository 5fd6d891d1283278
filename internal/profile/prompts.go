// File path: internal/profile/prompts.go
package profile

import (
	"fmt"
	"strings"
)

func analyzerSystemPrompt(roles []string) string {
	return fmt.Sprintf(analyzerSystemPromptFormat, strings.Join(roles, ", "))
}

const analyzerSystemPromptFormat = `You are a technical curriculum analyst. Given a job description,
identify the role and the concrete technical topics a candidate must master.

Respond with a single JSON object and nothing else:
{
  "role_type": "<one of: %s>",
  "seniority": "<junior|mid|senior|unspecified>",
  "explicit_topics": [{"name": "...", "keywords": ["..."], "context": "..."}],
  "implicit_topics": [{"name": "...", "keywords": ["..."], "context": "..."}]
}

Rules:
- explicit_topics are named directly in the description; implicit_topics are
  strongly implied prerequisites that are not named.
- Topic names must be concrete, teachable subjects (e.g. "SQL window functions",
  "probability distributions"), never soft skills or vague categories.
- keywords list 2-6 retrieval terms for the topic.
- context is one sentence on why the topic matters for this role.`

func analyzerUserPrompt(description string) string {
	var b strings.Builder
	b.WriteString("Job description:\n\n")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\nExtract the role profile as JSON.")
	return b.String()
}

func retryUserPrompt(description string, parseErr error) string {
	return fmt.Sprintf("%s\n\nThe previous answer was not valid JSON (%v). Respond with only the JSON object.", analyzerUserPrompt(description), parseErr)
}
