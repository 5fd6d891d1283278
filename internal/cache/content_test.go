// File path: internal/cache/content_test.go
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

type memoryContentStore struct {
	mu      sync.Mutex
	entries map[string]*learn.ContentEntry
}

func newMemoryContentStore() *memoryContentStore {
	return &memoryContentStore{entries: make(map[string]*learn.ContentEntry)}
}

func (s *memoryContentStore) GetContent(ctx context.Context, key string) (*learn.ContentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	entry.AccessCount++
	copied := *entry
	return &copied, nil
}

func (s *memoryContentStore) PutContent(ctx context.Context, entry *learn.ContentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries[entry.CacheKey] = &copied
	return nil
}

const validContent = `{
  "introduction": "Window functions compute values across row sets related to the current row.",
  "sections": [
    {"title": "Frames in practice", "body": "A frame bounds the rows visible to the function..."},
    {"title": "Ranking families", "body": "RANK, DENSE_RANK and ROW_NUMBER differ in tie handling...", "key_formula": "RANK() OVER (PARTITION BY g ORDER BY v)"}
  ],
  "key_takeaways": ["Frames default to RANGE UNBOUNDED PRECEDING"],
  "practical_tips": ["Name window definitions with the WINDOW clause"],
  "practice_problems": [{"question": "Rank trades per desk by notional.", "difficulty": "medium", "hint": "Partition by desk."}],
  "source_attributions": ["SQL Cookbook"]
}`

func contentRequest() ContentRequest {
	return ContentRequest{
		Topic:        "SQL window functions",
		SectionID:    "w1s1",
		SectionTitle: "Window frames and partitions",
		Chunks:       []learn.Chunk{{Text: "frames explained", Score: 0.8, Source: "SQL Cookbook"}},
	}
}

func TestContentMissGeneratesAndPersists(t *testing.T) {
	store := newMemoryContentStore()
	provider := &scriptedProvider{responses: []string{validContent}}
	cache := NewContentCache(store, provider)

	entry, err := cache.GetOrGenerate(context.Background(), contentRequest())
	if err != nil {
		t.Fatalf("get or generate: %v", err)
	}
	if entry.Cached {
		t.Fatal("fresh generation must report Cached=false")
	}
	if entry.AccessCount != 1 {
		t.Fatalf("fresh entry starts at access count 1, got %d", entry.AccessCount)
	}
	if len(entry.Doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(entry.Doc.Sections))
	}
}

func TestContentHitSkipsProvider(t *testing.T) {
	store := newMemoryContentStore()
	provider := &scriptedProvider{responses: []string{validContent}}
	cache := NewContentCache(store, provider)

	if _, err := cache.GetOrGenerate(context.Background(), contentRequest()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	entry, err := cache.GetOrGenerate(context.Background(), contentRequest())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !entry.Cached || entry.AccessCount != 2 {
		t.Fatalf("expected hit with access count 2, got cached=%v count=%d", entry.Cached, entry.AccessCount)
	}
	if atomic.LoadInt32(&provider.calls) != 1 {
		t.Fatalf("hit must not call the provider, got %d calls", provider.calls)
	}
}

func TestContentKeyIgnoresCaseAndSpacing(t *testing.T) {
	a := ContentKey("SQL window functions", "w1s1", "Window frames")
	b := ContentKey("sql  Window Functions", "W1S1", "window  frames")
	if a != b {
		t.Fatal("content keys must normalize case and spacing")
	}
	if a == ContentKey("SQL window functions", "w1s2", "Window frames") {
		t.Fatal("different sections must produce different keys")
	}
}

func TestContentValidationRejectsThinDocuments(t *testing.T) {
	store := newMemoryContentStore()
	thin := `{"introduction": "x", "sections": [{"title": "only one", "body": "b"}]}`
	provider := &scriptedProvider{responses: []string{thin, thin}}
	cache := NewContentCache(store, provider)

	_, err := cache.GetOrGenerate(context.Background(), contentRequest())
	if !errors.Is(err, learn.ErrContentGeneration) {
		t.Fatalf("expected ErrContentGeneration, got %v", err)
	}
	if atomic.LoadInt32(&provider.calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", provider.calls)
	}
}

func TestContentRejectsIncompleteRequests(t *testing.T) {
	cache := NewContentCache(newMemoryContentStore(), &scriptedProvider{})

	if _, err := cache.GetOrGenerate(context.Background(), ContentRequest{Topic: "t", SectionID: "s"}); err == nil {
		t.Fatal("expected error for missing section title")
	}
}
