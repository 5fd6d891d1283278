// File path: internal/curriculum/prompts.go
package curriculum

import (
	"fmt"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

const stageSystemPrompt = `You are a curriculum planner. Sequence the given topics into ordered
learning stages for a candidate preparing for a specific role.

Respond with a single JSON object and nothing else:
{"stages": [{"name": "...", "duration_weeks": <int>, "topics": ["..."]}]}

Rules:
- Produce 3 to 5 stages ordered from prerequisites to advanced material.
- A topic that depends on another must appear in a later or equal stage.
- Every input topic appears in exactly one stage; invent no new topics.
- duration_weeks is a positive integer reflecting topic depth.`

func stageUserPrompt(profile *learn.JobProfile, covered []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s (%s)\n\nTopics to sequence:\n", profile.RoleType, profile.Seniority)
	for _, topic := range covered {
		fmt.Fprintf(&b, "- %s\n", topic)
	}
	b.WriteString("\nPlan the stages as JSON.")
	return b.String()
}
