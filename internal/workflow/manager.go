// File path: internal/workflow/manager.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nicodishanthj/pathlight/internal/cache"
	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/common/telemetry"
	"github.com/nicodishanthj/pathlight/internal/coverage"
	"github.com/nicodishanthj/pathlight/internal/curriculum"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/profile"
	"github.com/nicodishanthj/pathlight/internal/sqlite"
)

// maxConcurrentTopics bounds the coverage fan-out so a profile with many
// topics does not swamp the retrieval service.
const maxConcurrentTopics = 4

var ErrPathNotFound = errors.New("learning path not found")

// Manager runs the profile-to-path pipeline and serves the cached generation
// surfaces. All dependencies are injected.
type Manager struct {
	analyzer   *profile.Analyzer
	resolver   *coverage.Resolver
	sequencer  *curriculum.Sequencer
	structures *cache.StructureCache
	contents   *cache.ContentCache
	catalog    *sqlite.Store
}

func NewManager(
	analyzer *profile.Analyzer,
	resolver *coverage.Resolver,
	sequencer *curriculum.Sequencer,
	structures *cache.StructureCache,
	contents *cache.ContentCache,
	catalog *sqlite.Store,
) *Manager {
	return &Manager{
		analyzer:   analyzer,
		resolver:   resolver,
		sequencer:  sequencer,
		structures: structures,
		contents:   contents,
		catalog:    catalog,
	}
}

// ProfileRequest is the input to the full pipeline run.
type ProfileRequest struct {
	UserID         string
	JobTitle       string
	JobDescription string
	Seniority      string
	Firm           string
}

// UpdateProfile runs analysis, coverage resolution, structure warming, and
// path sequencing, then hard-replaces the user's stored path. Per-topic
// failures are isolated into the returned path rather than failing the run.
func (m *Manager) UpdateProfile(ctx context.Context, req ProfileRequest) (*learn.LearningPath, error) {
	if m == nil || m.analyzer == nil || m.resolver == nil || m.sequencer == nil {
		return nil, fmt.Errorf("workflow: manager not configured")
	}
	logger := common.Logger()
	ctx, done := telemetry.StartSpan(ctx, "workflow.update_profile")
	defer done()

	description := composeDescription(req)
	prof, err := m.analyzer.Analyze(ctx, description)
	if err != nil {
		return nil, err
	}
	if req.Seniority != "" && prof.Seniority == "unspecified" {
		prof.Seniority = strings.ToLower(strings.TrimSpace(req.Seniority))
	}

	topics := prof.Topics()
	results, err := m.resolveAll(ctx, topics)
	if err != nil {
		return nil, err
	}

	failures := m.warmStructures(ctx, prof.RoleType, topics, results)

	path, err := m.sequencer.BuildPath(ctx, prof, results)
	if err != nil {
		return nil, err
	}
	path.UserID = strings.TrimSpace(req.UserID)
	path.JobDescription = req.JobDescription
	path.FailedTopics = failures

	if m.catalog != nil && path.UserID != "" {
		if err := m.catalog.ReplacePath(ctx, path); err != nil {
			logger.Warn("workflow: path persist failed", "user_id", path.UserID, "error", err)
		}
	}
	logger.Info("workflow: profile updated",
		"user_id", path.UserID,
		"topics", len(topics),
		"coverage_pct", path.CoveragePercentage,
		"failed_topics", len(failures),
		"duration", telemetry.SpanDuration(ctx))
	return path, nil
}

// TopicCoverage resolves one topic on demand, attaching fallback resources
// when the corpus cannot cover it.
func (m *Manager) TopicCoverage(ctx context.Context, topic string) (*learn.CoverageResult, []learn.Resource, error) {
	result, err := m.resolver.Resolve(ctx, topic, nil)
	if err != nil {
		return nil, nil, err
	}
	var resources []learn.Resource
	if !result.Covered {
		resources = m.sequencer.Catalog().ResourcesFor(topic)
	}
	return result, resources, nil
}

// TopicStructure returns the cached or freshly generated outline for a topic.
// Grounding chunks come from the retained coverage resolution when available;
// otherwise one retrieval pass runs first.
func (m *Manager) TopicStructure(ctx context.Context, topic, roleType string, keywords []string) (*learn.StructureEntry, error) {
	chunks, ok := m.resolver.Retained(topic)
	if !ok {
		result, err := m.resolver.Resolve(ctx, topic, keywords)
		if err != nil {
			return nil, err
		}
		chunks = result.RetainedChunks()
	}
	return m.structures.GetOrGenerate(ctx, cache.StructureRequest{
		Topic:    topic,
		Keywords: keywords,
		RoleType: roleType,
		Chunks:   chunks,
	})
}

// SectionContent returns the cached or freshly generated long-form content
// for one outline section.
func (m *Manager) SectionContent(ctx context.Context, topic, sectionID, sectionTitle string) (*learn.ContentEntry, error) {
	chunks, _ := m.resolver.Retained(topic)
	return m.contents.GetOrGenerate(ctx, cache.ContentRequest{
		Topic:        topic,
		SectionID:    sectionID,
		SectionTitle: sectionTitle,
		Chunks:       chunks,
	})
}

// Path returns the stored learning path for a user.
func (m *Manager) Path(ctx context.Context, userID string) (*learn.LearningPath, error) {
	if m.catalog == nil {
		return nil, fmt.Errorf("workflow: no catalog configured")
	}
	path, err := m.catalog.GetPath(ctx, userID)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, fmt.Errorf("%w: user %s", ErrPathNotFound, userID)
	}
	return path, nil
}

// InvalidateBelow drops cache entries older than the given content version.
func (m *Manager) InvalidateBelow(ctx context.Context, version int) (int64, error) {
	if m.catalog == nil {
		return 0, fmt.Errorf("workflow: no catalog configured")
	}
	if version <= 0 {
		version = cache.CurrentContentVersion
	}
	dropped, err := m.catalog.DeleteBelowVersion(ctx, version)
	if err != nil {
		return 0, err
	}
	common.Logger().Info("workflow: cache invalidated", "below_version", version, "dropped", dropped)
	m.resolver.PurgeRetained()
	return dropped, nil
}

func (m *Manager) resolveAll(ctx context.Context, topics []learn.Topic) ([]learn.CoverageResult, error) {
	results := make([]learn.CoverageResult, len(topics))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentTopics)
	for i, topic := range topics {
		i, topic := i, topic
		group.Go(func() error {
			result, err := m.resolver.Resolve(groupCtx, topic.Name, topic.Keywords)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", topic.Name, err)
			}
			results[i] = *result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// warmStructures eagerly generates outlines for covered topics so the first
// path view renders instantly. A failed topic becomes a placeholder on the
// path instead of failing the pipeline.
func (m *Manager) warmStructures(ctx context.Context, roleType string, topics []learn.Topic, results []learn.CoverageResult) []learn.TopicFailure {
	if m.structures == nil {
		return nil
	}
	logger := common.Logger()
	var mu sync.Mutex
	var failures []learn.TopicFailure

	keywords := make(map[string][]string, len(topics))
	for _, topic := range topics {
		keywords[topic.Name] = topic.Keywords
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentTopics)
	for _, result := range results {
		if !result.Covered {
			continue
		}
		result := result
		group.Go(func() error {
			_, err := m.structures.GetOrGenerate(groupCtx, cache.StructureRequest{
				Topic:    result.TopicName,
				Keywords: keywords[result.TopicName],
				RoleType: roleType,
				Chunks:   result.RetainedChunks(),
			})
			if err != nil {
				logger.Warn("workflow: structure warm failed", "topic", result.TopicName, "error", err)
				mu.Lock()
				failures = append(failures, learn.TopicFailure{
					Topic:  result.TopicName,
					Reason: "content unavailable",
				})
				mu.Unlock()
			}
			return nil
		})
	}
	group.Wait()
	return failures
}

func composeDescription(req ProfileRequest) string {
	var b strings.Builder
	if title := strings.TrimSpace(req.JobTitle); title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if firm := strings.TrimSpace(req.Firm); firm != "" {
		fmt.Fprintf(&b, "Firm: %s\n", firm)
	}
	if seniority := strings.TrimSpace(req.Seniority); seniority != "" {
		fmt.Fprintf(&b, "Seniority: %s\n", seniority)
	}
	b.WriteString(req.JobDescription)
	return b.String()
}
