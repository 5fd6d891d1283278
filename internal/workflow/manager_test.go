// File path: internal/workflow/manager_test.go
package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nicodishanthj/pathlight/internal/cache"
	"github.com/nicodishanthj/pathlight/internal/coverage"
	"github.com/nicodishanthj/pathlight/internal/curriculum"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/llm"
	"github.com/nicodishanthj/pathlight/internal/profile"
	"github.com/nicodishanthj/pathlight/internal/sqlite"
	"github.com/nicodishanthj/pathlight/internal/vector"
)

type funcProvider struct {
	fn func(tier llm.Tier, system, user string) (string, error)
}

func (p *funcProvider) Complete(ctx context.Context, tier llm.Tier, system, user string) (string, error) {
	return p.fn(tier, system, user)
}

func (p *funcProvider) Name() string { return "func" }

type scoredStore struct {
	scores map[string]float64
}

func (s *scoredStore) Available() bool      { return true }
func (s *scoredStore) Namespaces() []string { return []string{"default"} }

func (s *scoredStore) Search(ctx context.Context, query, namespace string, topK int) ([]learn.Chunk, error) {
	return s.SearchAll(ctx, query, []string{namespace}, topK)
}

func (s *scoredStore) SearchAll(ctx context.Context, query string, namespaces []string, topK int) ([]learn.Chunk, error) {
	for needle, score := range s.scores {
		if strings.Contains(strings.ToLower(query), strings.ToLower(needle)) {
			return []learn.Chunk{{
				Text:       "passage about " + needle,
				Score:      score,
				Source:     "Test Compendium",
				SourceType: learn.SourceTypeBook,
			}}, nil
		}
	}
	return nil, nil
}

var _ vector.Store = (*scoredStore)(nil)

const profileJSON = `{
  "role_type": "data_analyst",
  "seniority": "mid",
  "explicit_topics": [
    {"name": "SQL joins", "keywords": ["sql"], "context": ""},
    {"name": "Probability distributions", "keywords": ["probability"], "context": ""}
  ],
  "implicit_topics": [
    {"name": "Bloomberg terminal workflows", "keywords": ["bloomberg"], "context": ""}
  ]
}`

const outlineJSON = `{
  "weeks": [{"number": 1, "theme": "Core", "sections": [
    {"id": "w1s1", "title": "Join strategies and costs", "summary": ""}
  ]}],
  "estimated_hours": 8,
  "difficulty_level": "intermediate",
  "source_books": ["Test Compendium"]
}`

func newTestManager(t *testing.T, structureFn func(user string) (string, error)) *Manager {
	t.Helper()
	analyzer := profile.NewAnalyzer(&funcProvider{fn: func(tier llm.Tier, system, user string) (string, error) {
		return profileJSON, nil
	}})
	resolver := coverage.NewResolver(&scoredStore{scores: map[string]float64{
		"sql":         0.9,
		"probability": 0.8,
	}})
	catalog, err := curriculum.LoadCatalog("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	// Stage generation falls back to the deterministic split.
	sequencer := curriculum.NewSequencer(&funcProvider{fn: func(tier llm.Tier, system, user string) (string, error) {
		return "", errors.New("planner offline")
	}}, catalog)

	store, err := sqlite.OpenWithConfig(sqlite.Config{Path: filepath.Join(t.TempDir(), "pathlight.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	structures := cache.NewStructureCache(store, &funcProvider{fn: func(tier llm.Tier, system, user string) (string, error) {
		return structureFn(user)
	}}, catalog)
	contents := cache.NewContentCache(store, &funcProvider{fn: func(tier llm.Tier, system, user string) (string, error) {
		return "", errors.New("not under test")
	}})

	return NewManager(analyzer, resolver, sequencer, structures, contents, store)
}

func TestUpdateProfileBuildsAndStoresPath(t *testing.T) {
	manager := newTestManager(t, func(user string) (string, error) {
		return outlineJSON, nil
	})

	path, err := manager.UpdateProfile(context.Background(), ProfileRequest{
		UserID:         "u1",
		JobTitle:       "Data Analyst",
		JobDescription: "We need a data analyst comfortable with SQL and statistics for reporting.",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if len(path.CoveredTopics) != 2 {
		t.Fatalf("expected 2 covered topics, got %v", path.CoveredTopics)
	}
	if len(path.UncoveredTopics) != 1 || path.UncoveredTopics[0].Name != "Bloomberg terminal workflows" {
		t.Fatalf("unexpected uncovered topics: %+v", path.UncoveredTopics)
	}
	if path.CoveragePercentage != 67 {
		t.Fatalf("expected 67%% coverage, got %d", path.CoveragePercentage)
	}
	if len(path.Stages) == 0 {
		t.Fatal("expected fallback stages")
	}
	if len(path.FailedTopics) != 0 {
		t.Fatalf("no topic should fail, got %+v", path.FailedTopics)
	}

	stored, err := manager.Path(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stored path: %v", err)
	}
	if stored.ID != path.ID {
		t.Fatalf("stored path mismatch: %s vs %s", stored.ID, path.ID)
	}
}

func TestUpdateProfileIsolatesStructureFailures(t *testing.T) {
	manager := newTestManager(t, func(user string) (string, error) {
		if strings.Contains(user, "Probability distributions") {
			return "", errors.New("model overloaded")
		}
		return outlineJSON, nil
	})

	path, err := manager.UpdateProfile(context.Background(), ProfileRequest{
		UserID:         "u1",
		JobDescription: "We need a data analyst comfortable with SQL and statistics for reporting.",
	})
	if err != nil {
		t.Fatalf("a single topic failure must not fail the pipeline: %v", err)
	}
	if len(path.FailedTopics) != 1 {
		t.Fatalf("expected 1 failed topic, got %+v", path.FailedTopics)
	}
	failure := path.FailedTopics[0]
	if failure.Topic != "Probability distributions" || failure.Reason != "content unavailable" {
		t.Fatalf("unexpected failure placeholder: %+v", failure)
	}
	if len(path.CoveredTopics) != 2 {
		t.Fatal("failed generation must not remove the topic from coverage")
	}
}

func TestTopicCoverageAttachesFallbacks(t *testing.T) {
	manager := newTestManager(t, func(user string) (string, error) {
		return outlineJSON, nil
	})

	result, resources, err := manager.TopicCoverage(context.Background(), "Bloomberg terminal workflows")
	if err != nil {
		t.Fatalf("topic coverage: %v", err)
	}
	if result.Covered {
		t.Fatal("topic should be uncovered")
	}
	if len(resources) == 0 {
		t.Fatal("uncovered topic must carry fallback resources")
	}

	covered, resources, err := manager.TopicCoverage(context.Background(), "SQL joins")
	if err != nil {
		t.Fatalf("topic coverage: %v", err)
	}
	if !covered.Covered || resources != nil {
		t.Fatalf("covered topic must not carry fallbacks, got %+v", resources)
	}
}

func TestTopicStructureReusesRetainedChunks(t *testing.T) {
	var sawGrounding bool
	manager := newTestManager(t, func(user string) (string, error) {
		if strings.Contains(user, "passage about sql") {
			sawGrounding = true
		}
		return outlineJSON, nil
	})

	if _, _, err := manager.TopicCoverage(context.Background(), "SQL joins"); err != nil {
		t.Fatalf("coverage: %v", err)
	}
	entry, err := manager.TopicStructure(context.Background(), "SQL joins", "quant_wizard", []string{"sql"})
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if entry.Cached {
		t.Fatal("first structure call should generate")
	}
	if !sawGrounding {
		t.Fatal("generation must reuse retained coverage chunks")
	}
}

func TestPathNotFound(t *testing.T) {
	manager := newTestManager(t, func(user string) (string, error) {
		return outlineJSON, nil
	})

	_, err := manager.Path(context.Background(), "nobody")
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestInvalidateBelowDropsOldEntries(t *testing.T) {
	manager := newTestManager(t, func(user string) (string, error) {
		return outlineJSON, nil
	})

	if _, err := manager.TopicStructure(context.Background(), "SQL joins", "other", []string{"sql"}); err != nil {
		t.Fatalf("structure: %v", err)
	}
	dropped, err := manager.InvalidateBelow(context.Background(), cache.CurrentContentVersion+1)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", dropped)
	}
}
