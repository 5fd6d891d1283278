// File path: internal/coverage/resolver_test.go
package coverage

import (
	"context"
	"errors"
	"testing"

	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/vector"
)

type fakeStore struct {
	chunks     []learn.Chunk
	err        error
	available  bool
	namespaces []string
	lastQuery  string
	searches   int
}

func (f *fakeStore) Available() bool      { return f.available }
func (f *fakeStore) Namespaces() []string { return f.namespaces }

func (f *fakeStore) Search(ctx context.Context, query, namespace string, topK int) ([]learn.Chunk, error) {
	return f.SearchAll(ctx, query, []string{namespace}, topK)
}

func (f *fakeStore) SearchAll(ctx context.Context, query string, namespaces []string, topK int) ([]learn.Chunk, error) {
	f.searches++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

var _ vector.Store = (*fakeStore)(nil)

func newTestResolver(store *fakeStore, opts ...Option) *Resolver {
	if store.namespaces == nil {
		store.namespaces = []string{"default", "web_resources"}
	}
	return NewResolver(store, opts...)
}

func TestResolveCoveredAtThresholdBoundary(t *testing.T) {
	store := &fakeStore{available: true, chunks: []learn.Chunk{
		{Text: "window functions explained", Score: 0.60, Source: "SQL Cookbook", SourceType: learn.SourceTypeBook},
	}}
	resolver := newTestResolver(store)

	result, err := resolver.Resolve(context.Background(), "SQL window functions", []string{"sql"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !result.Covered {
		t.Fatal("score equal to the threshold must count as covered")
	}
	if result.BestSource == nil || result.BestSource.SourceName != "SQL Cookbook" {
		t.Fatalf("unexpected best source: %+v", result.BestSource)
	}
}

func TestResolveUncoveredJustBelowThreshold(t *testing.T) {
	store := &fakeStore{available: true, chunks: []learn.Chunk{
		{Text: "glossary entry", Score: 0.5999, Source: "SQL Cookbook", SourceType: learn.SourceTypeBook},
	}}
	resolver := newTestResolver(store)

	result, err := resolver.Resolve(context.Background(), "SQL window functions", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Covered {
		t.Fatal("score below the threshold must not count as covered")
	}
	if result.BestSource != nil {
		t.Fatalf("uncovered topic must have no best source, got %+v", result.BestSource)
	}
	if result.Confidence != 0.5999 {
		t.Fatalf("confidence should still report the best score, got %v", result.Confidence)
	}
}

func TestResolveTieBreakPrefersBookThenName(t *testing.T) {
	store := &fakeStore{available: true, chunks: []learn.Chunk{
		{Text: "a", Score: 0.8, Source: "stats.example.com", SourceType: learn.SourceTypeWeb},
		{Text: "b", Score: 0.8, Source: "Think Stats", SourceType: learn.SourceTypeBook},
		{Text: "c", Score: 0.8, Source: "All of Statistics", SourceType: learn.SourceTypeBook},
	}}
	resolver := newTestResolver(store)

	result, err := resolver.Resolve(context.Background(), "probability distributions", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.BestSource == nil {
		t.Fatal("expected a best source")
	}
	if result.BestSource.SourceName != "All of Statistics" {
		t.Fatalf("tie-break should prefer books then lexical order, got %q", result.BestSource.SourceName)
	}
	if result.AllSources[2].SourceName != "stats.example.com" {
		t.Fatalf("web source should rank last on ties, got %q", result.AllSources[2].SourceName)
	}
}

func TestResolveCountsChunksAboveFloor(t *testing.T) {
	store := &fakeStore{available: true, chunks: []learn.Chunk{
		{Text: "deep dive", Score: 0.85, Source: "Designing Data-Intensive Applications", SourceType: learn.SourceTypeBook},
		{Text: "sidebar", Score: 0.45, Source: "Designing Data-Intensive Applications", SourceType: learn.SourceTypeBook},
		{Text: "index entry", Score: 0.10, Source: "Designing Data-Intensive Applications", SourceType: learn.SourceTypeBook},
	}}
	resolver := newTestResolver(store)

	result, err := resolver.Resolve(context.Background(), "stream processing", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	src := result.AllSources[0]
	if src.ChunksAboveThreshold != 2 {
		t.Fatalf("expected 2 chunks above floor, got %d", src.ChunksAboveThreshold)
	}
	if len(src.ChunkRefs) != 3 {
		t.Fatalf("every retrieved chunk should be retained, got %d of 3", len(src.ChunkRefs))
	}
	last := src.ChunkRefs[len(src.ChunkRefs)-1]
	if last.Text != "index entry" || last.Score != 0.10 {
		t.Fatalf("low-scoring chunk missing from chunk refs: %+v", last)
	}
}

func TestResolveWrapsStoreErrors(t *testing.T) {
	store := &fakeStore{available: true, err: errors.New("connection refused")}
	resolver := newTestResolver(store)

	_, err := resolver.Resolve(context.Background(), "stream processing", nil)
	if !errors.Is(err, learn.ErrCoverageUnavailable) {
		t.Fatalf("expected ErrCoverageUnavailable, got %v", err)
	}
}

func TestResolveOfflineStore(t *testing.T) {
	resolver := newTestResolver(&fakeStore{available: false})

	_, err := resolver.Resolve(context.Background(), "stream processing", nil)
	if !errors.Is(err, learn.ErrCoverageUnavailable) {
		t.Fatalf("expected ErrCoverageUnavailable, got %v", err)
	}
}

func TestResolveRetainsChunksForReuse(t *testing.T) {
	store := &fakeStore{available: true, chunks: []learn.Chunk{
		{Text: "deep dive", Score: 0.85, Source: "Think Stats", SourceType: learn.SourceTypeBook},
	}}
	resolver := newTestResolver(store)

	if _, err := resolver.Resolve(context.Background(), "Hypothesis Testing", nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	chunks, ok := resolver.Retained("hypothesis  testing")
	if !ok {
		t.Fatal("retained lookup should normalize topic casing and spacing")
	}
	if len(chunks) != 1 || chunks[0].Text != "deep dive" {
		t.Fatalf("unexpected retained chunks: %+v", chunks)
	}
	resolver.PurgeRetained()
	if _, ok := resolver.Retained("hypothesis testing"); ok {
		t.Fatal("purge should drop retained chunks")
	}
}

func TestResolveQueryDeduplicatesKeywords(t *testing.T) {
	store := &fakeStore{available: true}
	resolver := newTestResolver(store)

	if _, err := resolver.Resolve(context.Background(), "SQL joins", []string{"sql joins", "inner join", "", "Inner Join"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if store.lastQuery != "SQL joins inner join" {
		t.Fatalf("unexpected query: %q", store.lastQuery)
	}
}
