// File path: internal/profile/analyzer_test.go
package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/llm"
)

type fakeProvider struct {
	responses  []string
	errs       []error
	calls      int
	lastSystem string
}

func (f *fakeProvider) Complete(ctx context.Context, tier llm.Tier, system, user string) (string, error) {
	idx := f.calls
	f.calls++
	f.lastSystem = system
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func (f *fakeProvider) Name() string { return "fake" }

const validResponse = `Here is the profile:
{
  "role_type": "data_analyst",
  "seniority": "mid",
  "explicit_topics": [
    {"name": "SQL window functions", "keywords": ["sql", "window functions", "partition by"], "context": "Daily reporting queries."},
    {"name": "Communication skills", "keywords": ["presenting"], "context": "Stakeholder updates."}
  ],
  "implicit_topics": [
    {"name": "Probability distributions", "keywords": ["probability", "distributions"], "context": "Needed for A/B testing."}
  ]
}`

const description = "We are hiring a data analyst to build reporting dashboards and run experiments."

func TestAnalyzeFiltersGenericTopics(t *testing.T) {
	provider := &fakeProvider{responses: []string{validResponse}}
	analyzer := NewAnalyzer(provider)

	prof, err := analyzer.Analyze(context.Background(), description)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if prof.RoleType != "data_analyst" {
		t.Fatalf("unexpected role type: %q", prof.RoleType)
	}
	if len(prof.ExplicitTopics) != 1 {
		t.Fatalf("expected generic topic filtered, got %d explicit topics", len(prof.ExplicitTopics))
	}
	if prof.ExplicitTopics[0].Name != "SQL window functions" {
		t.Fatalf("unexpected explicit topic: %q", prof.ExplicitTopics[0].Name)
	}
	if len(prof.ImplicitTopics) != 1 {
		t.Fatalf("expected one implicit topic, got %d", len(prof.ImplicitTopics))
	}
}

func TestAnalyzeUnknownRoleFallsBackToOther(t *testing.T) {
	provider := &fakeProvider{responses: []string{`{
  "role_type": "quant_wizard",
  "seniority": "staff",
  "explicit_topics": [{"name": "Options pricing", "keywords": ["black-scholes"], "context": ""}],
  "implicit_topics": []
}`}}
	analyzer := NewAnalyzer(provider)

	prof, err := analyzer.Analyze(context.Background(), description)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if prof.RoleType != "other" {
		t.Fatalf("expected role fallback to other, got %q", prof.RoleType)
	}
	if prof.Seniority != "unspecified" {
		t.Fatalf("expected seniority fallback, got %q", prof.Seniority)
	}
}

func TestAnalyzeRetriesOnceThenParsesSecondAttempt(t *testing.T) {
	provider := &fakeProvider{responses: []string{"not json at all", validResponse}}
	analyzer := NewAnalyzer(provider)

	prof, err := analyzer.Analyze(context.Background(), description)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
	if len(prof.Topics()) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(prof.Topics()))
	}
}

func TestAnalyzeReturnsParseErrorAfterRetry(t *testing.T) {
	provider := &fakeProvider{responses: []string{"garbage", "still garbage"}}
	analyzer := NewAnalyzer(provider)

	_, err := analyzer.Analyze(context.Background(), description)
	if !errors.Is(err, learn.ErrAnalysisParse) {
		t.Fatalf("expected ErrAnalysisParse, got %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
}

func TestAnalyzeRejectsShortDescription(t *testing.T) {
	analyzer := NewAnalyzer(&fakeProvider{})

	if _, err := analyzer.Analyze(context.Background(), "too short"); err == nil {
		t.Fatal("expected error for short description")
	}
}

func TestAnalyzeAllTopicsFilteredIsParseError(t *testing.T) {
	provider := &fakeProvider{responses: []string{`{
  "role_type": "data_analyst",
  "seniority": "mid",
  "explicit_topics": [{"name": "Teamwork", "keywords": [], "context": ""}],
  "implicit_topics": []
}`, `{
  "role_type": "data_analyst",
  "seniority": "mid",
  "explicit_topics": [{"name": "Soft skills", "keywords": [], "context": ""}],
  "implicit_topics": []
}`}}
	analyzer := NewAnalyzer(provider)

	_, err := analyzer.Analyze(context.Background(), description)
	if !errors.Is(err, learn.ErrAnalysisParse) {
		t.Fatalf("expected ErrAnalysisParse, got %v", err)
	}
}

func TestAnalyzeCustomRoleVocabulary(t *testing.T) {
	provider := &fakeProvider{responses: []string{`{
  "role_type": "quant_researcher",
  "seniority": "senior",
  "explicit_topics": [{"name": "Stochastic calculus", "keywords": ["ito", "brownian motion"], "context": ""}],
  "implicit_topics": []
}`}}
	analyzer := NewAnalyzer(provider, WithRoleVocabulary([]string{"quant_researcher", "data_analyst"}))

	prof, err := analyzer.Analyze(context.Background(), description)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if prof.RoleType != "quant_researcher" {
		t.Fatalf("catalog-supplied role should survive validation, got %q", prof.RoleType)
	}
	if !strings.Contains(provider.lastSystem, "quant_researcher") {
		t.Fatal("system prompt should offer the configured role vocabulary")
	}
	if !strings.Contains(provider.lastSystem, "other") {
		t.Fatal("system prompt should always offer the other role")
	}
}
