// File path: internal/curriculum/sequencer.go
package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/llm"
)

const (
	minStages = 3
	maxStages = 5
)

// Sequencer turns a job profile and its coverage verdicts into an ordered
// learning path.
type Sequencer struct {
	provider llm.Provider
	catalog  Catalog
}

func NewSequencer(provider llm.Provider, catalog Catalog) *Sequencer {
	return &Sequencer{provider: provider, catalog: catalog}
}

// Catalog exposes the fallback-resource catalog for callers that report
// coverage on uncovered topics.
func (s *Sequencer) Catalog() Catalog {
	return s.catalog
}

type rawStage struct {
	Name          string   `json:"name"`
	DurationWeeks int      `json:"duration_weeks"`
	Topics        []string `json:"topics"`
}

type rawStagePlan struct {
	Stages []rawStage `json:"stages"`
}

// BuildPath partitions topics by coverage, sequences the covered ones into
// stages, and attaches fallback resources to the rest. Stage generation is
// retried once; after that a deterministic even split keeps the pipeline from
// failing over a formatting problem.
func (s *Sequencer) BuildPath(ctx context.Context, profile *learn.JobProfile, results []learn.CoverageResult) (*learn.LearningPath, error) {
	if s == nil || s.provider == nil {
		return nil, fmt.Errorf("curriculum: sequencer not configured")
	}
	if profile == nil {
		return nil, fmt.Errorf("curriculum: nil profile")
	}
	logger := common.Logger()

	var covered []string
	var uncovered []learn.UncoveredTopic
	for _, result := range results {
		if result.Covered {
			covered = append(covered, result.TopicName)
			continue
		}
		uncovered = append(uncovered, learn.UncoveredTopic{
			Name:      result.TopicName,
			Resources: s.catalog.ResourcesFor(result.TopicName),
		})
	}

	path := &learn.LearningPath{
		ID:                 uuid.NewString(),
		RoleType:           profile.RoleType,
		CoveredTopics:      covered,
		UncoveredTopics:    uncovered,
		CoveragePercentage: coveragePercentage(len(covered), len(results)),
		CreatedAt:          time.Now().UTC(),
	}

	if len(covered) == 0 {
		logger.Warn("curriculum: no covered topics, path has no stages", "role_type", profile.RoleType)
		return path, nil
	}

	stages, err := s.generateStages(ctx, profile, covered)
	if err != nil {
		logger.Warn("curriculum: stage generation failed twice, using even split", "error", err)
		stages = fallbackStages(covered)
	}
	path.Stages = stages
	return path, nil
}

func coveragePercentage(covered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(covered) / float64(total) * 100))
}

func (s *Sequencer) generateStages(ctx context.Context, profile *learn.JobProfile, covered []string) ([]learn.Stage, error) {
	user := stageUserPrompt(profile, covered)
	stages, err := s.completeStages(ctx, user)
	if err == nil {
		return stages, nil
	}
	stages, retryErr := s.completeStages(ctx, fmt.Sprintf("%s\n\nThe previous answer was invalid (%v). Respond with only the JSON object.", user, err))
	if retryErr != nil {
		return nil, retryErr
	}
	return stages, nil
}

func (s *Sequencer) completeStages(ctx context.Context, user string) ([]learn.Stage, error) {
	response, err := s.provider.Complete(ctx, llm.TierCheap, stageSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	doc, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}
	var plan rawStagePlan
	if err := json.Unmarshal([]byte(doc), &plan); err != nil {
		return nil, fmt.Errorf("decode stage plan: %w", err)
	}
	return validateStages(plan.Stages)
}

func validateStages(raw []rawStage) ([]learn.Stage, error) {
	if len(raw) < minStages || len(raw) > maxStages {
		return nil, fmt.Errorf("expected %d-%d stages, got %d", minStages, maxStages, len(raw))
	}
	stages := make([]learn.Stage, 0, len(raw))
	for i, stage := range raw {
		name := strings.TrimSpace(stage.Name)
		if name == "" {
			return nil, fmt.Errorf("stage %d has no name", i+1)
		}
		if stage.DurationWeeks <= 0 {
			return nil, fmt.Errorf("stage %q has non-positive duration", name)
		}
		if len(stage.Topics) == 0 {
			return nil, fmt.Errorf("stage %q has no topics", name)
		}
		topics := make([]string, 0, len(stage.Topics))
		for _, topic := range stage.Topics {
			topic = strings.TrimSpace(topic)
			if topic != "" {
				topics = append(topics, topic)
			}
		}
		stages = append(stages, learn.Stage{Name: name, DurationWeeks: stage.DurationWeeks, Topics: topics})
	}
	return stages, nil
}

// fallbackStages splits the covered topics evenly into three phases so a path
// always sequences every covered topic even when generation misbehaves.
func fallbackStages(covered []string) []learn.Stage {
	names := []string{"Foundations", "Core Skills", "Applied Practice"}
	count := len(names)
	if len(covered) < count {
		count = len(covered)
	}
	stages := make([]learn.Stage, 0, count)
	per := (len(covered) + count - 1) / count
	for i := 0; i < count; i++ {
		start := i * per
		end := start + per
		if end > len(covered) {
			end = len(covered)
		}
		if start >= end {
			break
		}
		topics := covered[start:end]
		stages = append(stages, learn.Stage{
			Name:          names[i],
			DurationWeeks: 2 * len(topics),
			Topics:        topics,
		})
	}
	return stages
}
