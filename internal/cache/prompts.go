// File path: internal/cache/prompts.go
package cache

import (
	"fmt"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

// maxGroundingChunks caps how much retrieved text is packed into a generation
// prompt.
const maxGroundingChunks = 20

const structureSystemPrompt = `You are a curriculum designer. Produce a week-by-week study outline for
one topic, grounded in the provided source excerpts.

Respond with a single JSON object and nothing else:
{
  "weeks": [{"number": 1, "theme": "...", "sections": [{"id": "w1s1", "title": "...", "summary": "..."}]}],
  "estimated_hours": <int>,
  "difficulty_level": "<beginner|intermediate|advanced>",
  "source_books": ["..."]
}

Rules:
- At least one week; 2-4 sections per week.
- Every section has a unique id and a specific, descriptive title. Never use
  filler titles such as "Introduction to X" or "Overview of X".
- source_books lists only sources that appear in the excerpts.`

const contentSystemPrompt = `You are a technical author. Write rich study content for one section of a
curriculum, grounded in the provided source excerpts.

Respond with a single JSON object and nothing else:
{
  "introduction": "...",
  "sections": [{"title": "...", "body": "...", "key_formula": "..."}],
  "key_takeaways": ["..."],
  "practical_tips": ["..."],
  "practice_problems": [{"question": "...", "difficulty": "<easy|medium|hard>", "hint": "..."}],
  "source_attributions": ["..."]
}

Rules:
- 2 to 4 sections, each several paragraphs of substantive explanation.
- key_formula is optional; include it only when the section has one.
- Attribute facts to the excerpt sources, never to invented references.`

func structureUserPrompt(topic string, keywords []string, chunks []learn.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(keywords, ", "))
	}
	writeGrounding(&b, chunks)
	b.WriteString("\nProduce the outline as JSON.")
	return b.String()
}

func contentUserPrompt(topic, sectionTitle string, chunks []learn.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nSection: %s\n", topic, sectionTitle)
	writeGrounding(&b, chunks)
	b.WriteString("\nWrite the section content as JSON.")
	return b.String()
}

func writeGrounding(b *strings.Builder, chunks []learn.Chunk) {
	if len(chunks) == 0 {
		b.WriteString("\nNo source excerpts are available; rely on well-established material only.\n")
		return
	}
	if len(chunks) > maxGroundingChunks {
		chunks = chunks[:maxGroundingChunks]
	}
	b.WriteString("\nSource excerpts:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(b, "[%d] (%s", i+1, chunk.Source)
		if chunk.Chapter != "" {
			fmt.Fprintf(b, ", %s", chunk.Chapter)
		}
		fmt.Fprintf(b, ")\n%s\n", strings.TrimSpace(chunk.Text))
	}
}
