// File path: internal/profile/analyzer.go
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/llm"
)

// MinDescriptionLength is the smallest job description the analyzer accepts.
// Anything shorter carries too little signal to extract topics from.
const MinDescriptionLength = 20

// defaultRoleVocabulary mirrors the compiled catalog's template roles. Pass
// WithRoleVocabulary to keep the analyzer aligned with a catalog loaded from
// disk. "other" is always accepted.
var defaultRoleVocabulary = []string{
	"data_analyst",
	"data_engineer",
	"data_scientist",
	"software_engineer",
	"ml_engineer",
}

// genericTopicNames are categories the model sometimes emits that cannot be
// taught from a curriculum. They are dropped rather than resolved.
var genericTopicNames = map[string]struct{}{
	"market knowledge":     {},
	"data handling":        {},
	"communication skills": {},
	"problem solving":      {},
	"teamwork":             {},
	"attention to detail":  {},
	"analytical skills":    {},
	"business acumen":      {},
	"critical thinking":    {},
	"soft skills":          {},
}

// Analyzer extracts a structured job profile from free-form description text.
type Analyzer struct {
	provider     llm.Provider
	roles        map[string]struct{}
	systemPrompt string
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithRoleVocabulary replaces the role_type vocabulary offered to the model
// and accepted during validation. "other" is appended when absent.
func WithRoleVocabulary(roles []string) Option {
	return func(a *Analyzer) {
		if len(roles) == 0 {
			return
		}
		a.roles = roleSet(roles)
	}
}

func NewAnalyzer(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		roles:    roleSet(defaultRoleVocabulary),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.systemPrompt = analyzerSystemPrompt(roleList(a.roles))
	return a
}

func roleSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles)+1)
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			set[role] = struct{}{}
		}
	}
	set["other"] = struct{}{}
	return set
}

func roleList(set map[string]struct{}) []string {
	roles := make([]string, 0, len(set))
	for role := range set {
		if role != "other" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return append(roles, "other")
}

type rawTopic struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Context  string   `json:"context"`
}

type rawProfile struct {
	RoleType       string     `json:"role_type"`
	Seniority      string     `json:"seniority"`
	ExplicitTopics []rawTopic `json:"explicit_topics"`
	ImplicitTopics []rawTopic `json:"implicit_topics"`
}

// Analyze runs a cheap-tier completion over the description and validates the
// structured result. Responses that fail schema validation are retried once
// with the parse error echoed back; a second failure returns
// learn.ErrAnalysisParse.
func (a *Analyzer) Analyze(ctx context.Context, description string) (*learn.JobProfile, error) {
	if a == nil || a.provider == nil {
		return nil, fmt.Errorf("profile: analyzer not configured")
	}
	description = strings.TrimSpace(description)
	if len(description) < MinDescriptionLength {
		return nil, fmt.Errorf("profile: description too short (%d chars, need %d)", len(description), MinDescriptionLength)
	}
	logger := common.Logger()
	start := time.Now()

	prof, err := a.complete(ctx, analyzerUserPrompt(description))
	if err != nil {
		logger.Warn("profile: first analysis attempt failed, retrying", "error", err)
		prof, err = a.complete(ctx, retryUserPrompt(description, err))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", learn.ErrAnalysisParse, err)
		}
	}
	logger.Info("profile: analysis complete",
		"role_type", prof.RoleType,
		"explicit_topics", len(prof.ExplicitTopics),
		"implicit_topics", len(prof.ImplicitTopics),
		"duration", time.Since(start))
	return prof, nil
}

func (a *Analyzer) complete(ctx context.Context, userPrompt string) (*learn.JobProfile, error) {
	response, err := a.provider.Complete(ctx, llm.TierCheap, a.systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	doc, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}
	var raw rawProfile
	decoder := json.NewDecoder(strings.NewReader(doc))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return a.buildProfile(raw)
}

func (a *Analyzer) buildProfile(raw rawProfile) (*learn.JobProfile, error) {
	role := strings.ToLower(strings.TrimSpace(raw.RoleType))
	if _, ok := a.roles[role]; !ok {
		role = "other"
	}
	seniority := strings.ToLower(strings.TrimSpace(raw.Seniority))
	switch seniority {
	case "junior", "mid", "senior":
	default:
		seniority = "unspecified"
	}
	explicit := filterTopics(raw.ExplicitTopics)
	implicit := filterTopics(raw.ImplicitTopics)
	if len(explicit) == 0 && len(implicit) == 0 {
		return nil, fmt.Errorf("no usable topics after filtering")
	}
	return &learn.JobProfile{
		RoleType:       role,
		Seniority:      seniority,
		ExplicitTopics: explicit,
		ImplicitTopics: implicit,
	}, nil
}

func filterTopics(topics []rawTopic) []learn.Topic {
	seen := make(map[string]struct{}, len(topics))
	out := make([]learn.Topic, 0, len(topics))
	for _, t := range topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		normalized := strings.ToLower(name)
		if _, generic := genericTopicNames[normalized]; generic {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		keywords := make([]string, 0, len(t.Keywords))
		for _, kw := range t.Keywords {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		out = append(out, learn.Topic{
			Name:     name,
			Keywords: keywords,
			Context:  strings.TrimSpace(t.Context),
		})
	}
	return out
}
