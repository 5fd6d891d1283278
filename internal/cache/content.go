// File path: internal/cache/content.go
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

// ContentStore is the durable backing for section content. Get returns nil
// without error on a miss and increments the entry's access count on a hit.
type ContentStore interface {
	GetContent(ctx context.Context, key string) (*learn.ContentEntry, error)
	PutContent(ctx context.Context, entry *learn.ContentEntry) error
}

// ContentRequest identifies one outline section plus the grounding passages
// for its long-form content.
type ContentRequest struct {
	Topic        string
	SectionID    string
	SectionTitle string
	Chunks       []learn.Chunk
}

// ContentCache fronts premium-tier content generation with the durable store.
type ContentCache struct {
	store    ContentStore
	provider llm.Provider
	version  int
	timeout  time.Duration
	group    singleflight.Group
}

type ContentOption func(*ContentCache)

// WithContentTimeout bounds a single generation attempt.
func WithContentTimeout(timeout time.Duration) ContentOption {
	return func(c *ContentCache) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithContentVersion overrides the version stamped on new entries.
func WithContentVersion(version int) ContentOption {
	return func(c *ContentCache) {
		if version > 0 {
			c.version = version
		}
	}
}

func NewContentCache(store ContentStore, provider llm.Provider, opts ...ContentOption) *ContentCache {
	c := &ContentCache{
		store:    store,
		provider: provider,
		version:  CurrentContentVersion,
		timeout:  defaultContentTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetOrGenerate returns the cached content for the section or generates,
// persists, and returns a fresh document.
func (c *ContentCache) GetOrGenerate(ctx context.Context, req ContentRequest) (*learn.ContentEntry, error) {
	if c == nil || c.store == nil || c.provider == nil {
		return nil, fmt.Errorf("cache: content cache not configured")
	}
	req.Topic = strings.TrimSpace(req.Topic)
	req.SectionID = strings.TrimSpace(req.SectionID)
	req.SectionTitle = strings.TrimSpace(req.SectionTitle)
	if req.Topic == "" || req.SectionID == "" || req.SectionTitle == "" {
		return nil, fmt.Errorf("cache: topic, section id, and section title are required")
	}
	key := ContentKey(req.Topic, req.SectionID, req.SectionTitle)

	if entry := c.lookup(ctx, key); entry != nil {
		telemetry.RecordCacheLookup("content", true)
		return entry, nil
	}
	telemetry.RecordCacheLookup("content", false)

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
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
	entry, ok := value.(*learn.ContentEntry)
	if !ok {
		return nil, fmt.Errorf("cache: unexpected flight result %T", value)
	}
	return entry, nil
}

func (c *ContentCache) lookup(ctx context.Context, key string) *learn.ContentEntry {
	entry, err := c.store.GetContent(ctx, key)
	if err != nil {
		common.Logger().Warn("cache: content lookup failed, treating as miss", "error", err)
		return nil
	}
	if entry != nil {
		entry.Cached = true
	}
	return entry
}

func (c *ContentCache) generate(ctx context.Context, key string, req ContentRequest) (*learn.ContentEntry, error) {
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	user := contentUserPrompt(req.Topic, req.SectionTitle, req.Chunks)
	doc, err := c.completeContent(genCtx, user)
	if err != nil {
		common.Logger().Warn("cache: content generation failed, retrying",
			"topic", req.Topic, "section", req.SectionID, "error", err)
		doc, err = c.completeContent(genCtx, fmt.Sprintf("%s\n\nThe previous answer was invalid (%v). Respond with only the JSON object.", user, err))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", learn.ErrContentGeneration, err)
		}
	}

	entry := &learn.ContentEntry{
		CacheKey:        key,
		Topic:           req.Topic,
		SectionID:       req.SectionID,
		SectionTitle:    req.SectionTitle,
		Doc:             *doc,
		GenerationModel: c.provider.Name(),
		ContentVersion:  c.version,
		AccessCount:     1,
		Cached:          false,
	}
	if err := c.store.PutContent(genCtx, entry); err != nil {
		common.Logger().Warn("cache: content persist failed", "topic", req.Topic, "section", req.SectionID, "error", err)
	}
	return entry, nil
}

func (c *ContentCache) completeContent(ctx context.Context, user string) (*learn.ContentDoc, error) {
	response, err := c.provider.Complete(ctx, llm.TierPremium, contentSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	raw, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, err
	}
	var doc learn.ContentDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := validateContent(doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateContent(doc learn.ContentDoc) error {
	if strings.TrimSpace(doc.Introduction) == "" {
		return fmt.Errorf("content has no introduction")
	}
	if len(doc.Sections) < 2 || len(doc.Sections) > 4 {
		return fmt.Errorf("expected 2-4 sections, got %d", len(doc.Sections))
	}
	for i, section := range doc.Sections {
		if strings.TrimSpace(section.Title) == "" || strings.TrimSpace(section.Body) == "" {
			return fmt.Errorf("section %d lacks a title or body", i+1)
		}
	}
	return nil
}
