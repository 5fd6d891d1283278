// File path: internal/cache/structure.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/common/telemetry"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/llm"
)

const (
	// CurrentContentVersion stamps new cache entries. Bumping it lets an
	// operator invalidate older generations without expiring anything
	// automatically.
	CurrentContentVersion = 1

	defaultStructureTimeout = 60 * time.Second
	defaultContentTimeout   = 120 * time.Second
)

// StructureStore is the durable backing for topic outlines. Get returns nil
// without error on a miss and increments the entry's access count on a hit.
type StructureStore interface {
	GetStructure(ctx context.Context, key string) (*learn.StructureEntry, error)
	PutStructure(ctx context.Context, entry *learn.StructureEntry) error
}

// StructureRequest carries everything needed to fetch or generate an outline.
// Chunks are the grounding passages retained during coverage resolution.
type StructureRequest struct {
	Topic    string
	Keywords []string
	RoleType string
	Chunks   []learn.Chunk
}

// StructureCache fronts outline generation with the durable store. Identical
// concurrent misses collapse into one generation.
type StructureCache struct {
	store     StructureStore
	provider  llm.Provider
	templates TemplateChecker
	version   int
	timeout   time.Duration
	group     singleflight.Group
}

type StructureOption func(*StructureCache)

// WithStructureTimeout bounds a single generation attempt.
func WithStructureTimeout(timeout time.Duration) StructureOption {
	return func(c *StructureCache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithStructureVersion overrides the version stamped on new entries.
func WithStructureVersion(version int) StructureOption {
	return func(c *StructureCache) {
		if version > 0 {
			c.version = version
		}
	}
}

func NewStructureCache(store StructureStore, provider llm.Provider, templates TemplateChecker, opts ...StructureOption) *StructureCache {
	c := &StructureCache{
		store:     store,
		provider:  provider,
		templates: templates,
		version:   CurrentContentVersion,
		timeout:   defaultStructureTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetOrGenerate returns the cached outline for the request or generates,
// persists, and returns a fresh one. Generation runs on a detached context so
// an abandoned request still populates the cache for the next caller.
func (c *StructureCache) GetOrGenerate(ctx context.Context, req StructureRequest) (*learn.StructureEntry, error) {
	if c == nil || c.store == nil || c.provider == nil {
		return nil, fmt.Errorf("cache: structure cache not configured")
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("cache: empty topic")
	}
	req.Topic = topic
	key := StructureKey(c.templates, req.RoleType, topic, req.Keywords)
	logger := common.Logger()

	if entry := c.lookup(ctx, key); entry != nil {
		telemetry.RecordCacheLookup("structure", true)
		return entry, nil
	}
	telemetry.RecordCacheLookup("structure", false)

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have just persisted this key.
		if entry := c.lookup(ctx, key); entry != nil {
			return entry, nil
		}
		return c.generate(ctx, key, req)
	})
	if shared {
		telemetry.RecordSharedGeneration()
	}
	if err != nil {
		return nil, err
	}
	entry, ok := value.(*learn.StructureEntry)
	if !ok {
		return nil, fmt.Errorf("cache: unexpected flight result %T", value)
	}
	logger.Debug("cache: structure resolved", "topic", topic, "cached", entry.Cached, "shared", shared)
	return entry, nil
}

func (c *StructureCache) lookup(ctx context.Context, key string) *learn.StructureEntry {
	entry, err := c.store.GetStructure(ctx, key)
	if err != nil {
		common.Logger().Warn("cache: structure lookup failed, treating as miss", "error", err)
		return nil
	}
	if entry != nil {
		entry.Cached = true
	}
	return entry
}

func (c *StructureCache) generate(ctx context.Context, key string, req StructureRequest) (*learn.StructureEntry, error) {
	// Detach from the caller so an abandoned request still fills the cache.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	user := structureUserPrompt(req.Topic, req.Keywords, req.Chunks)
	entry, err := c.completeStructure(genCtx, user)
	if err != nil {
		common.Logger().Warn("cache: structure generation failed, retrying", "topic", req.Topic, "error", err)
		entry, err = c.completeStructure(genCtx, fmt.Sprintf("%s\n\nThe previous answer was invalid (%v). Respond with only the JSON object.", user, err))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", learn.ErrStructureGeneration, err)
		}
	}

	entry.CacheKey = key
	entry.Topic = req.Topic
	entry.GenerationModel = c.provider.Name()
	entry.ContentVersion = c.version
	entry.AccessCount = 1
	entry.Cached = false
	if err := c.store.PutStructure(genCtx, entry); err != nil {
		common.Logger().Warn("cache: structure persist failed", "topic", req.Topic, "error", err)
	}
	return entry, nil
}

type rawStructure struct {
	Weeks           []learn.StructureWeek `json:"weeks"`
	EstimatedHours  int                   `json:"estimated_hours"`
	DifficultyLevel string                `json:"difficulty_level"`
	SourceBooks     []string              `json:"source_books"`
}

func (c *StructureCache) completeStructure(ctx context.Context, user string) (*learn.StructureEntry, error) {
	response, err := c.provider.Complete(ctx, llm.TierCheap, structureSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	doc, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}
	var raw rawStructure
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	if err := validateWeeks(raw.Weeks); err != nil {
		return nil, err
	}
	return &learn.StructureEntry{
		Weeks:           raw.Weeks,
		EstimatedHours:  raw.EstimatedHours,
		DifficultyLevel: strings.ToLower(strings.TrimSpace(raw.DifficultyLevel)),
		SourceBooks:     raw.SourceBooks,
	}, nil
}

var genericTitlePrefixes = []string{"introduction to", "overview of"}

func validateWeeks(weeks []learn.StructureWeek) error {
	if len(weeks) == 0 {
		return fmt.Errorf("outline has no weeks")
	}
	for _, week := range weeks {
		if len(week.Sections) == 0 {
			return fmt.Errorf("week %d has no sections", week.Number)
		}
		for _, section := range week.Sections {
			title := strings.TrimSpace(section.Title)
			if section.ID == "" || title == "" {
				return fmt.Errorf("week %d has a section without id or title", week.Number)
			}
			lower := strings.ToLower(title)
			for _, prefix := range genericTitlePrefixes {
				if strings.HasPrefix(lower, prefix) {
					return fmt.Errorf("section title %q is generic", title)
				}
			}
		}
	}
	return nil
}
