// File path: internal/coverage/resolver.go
package coverage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/learn"
	"github.com/nicodishanthj/pathlight/internal/vector"
)

const (
	// defaultCoverageThreshold marks a topic covered when its best chunk
	// scores at or above this value. The boundary is inclusive.
	defaultCoverageThreshold = 0.60
	// defaultChunkThreshold is the per-chunk floor used when counting how
	// many passages of a source meaningfully discuss the topic.
	defaultChunkThreshold = 0.40
	defaultTopK           = 10
)

// Resolver decides, per topic, whether the indexed corpus covers it and which
// source covers it best.
type Resolver struct {
	store             vector.Store
	coverageThreshold float64
	chunkThreshold    float64
	topK              int
	retained          *retainedCache
}

type Option func(*Resolver)

// WithCoverageThreshold overrides the inclusive score boundary for marking a
// topic covered.
func WithCoverageThreshold(threshold float64) Option {
	return func(r *Resolver) {
		if threshold > 0 {
			r.coverageThreshold = threshold
		}
	}
}

// WithChunkThreshold overrides the per-chunk relevance floor.
func WithChunkThreshold(threshold float64) Option {
	return func(r *Resolver) {
		if threshold > 0 {
			r.chunkThreshold = threshold
		}
	}
}

// WithTopK controls how many chunks are requested per namespace.
func WithTopK(topK int) Option {
	return func(r *Resolver) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

// WithRetainedCapacity sizes the retained-chunk cache.
func WithRetainedCapacity(size int) Option {
	return func(r *Resolver) {
		r.retained = newRetainedCache(size)
	}
}

func NewResolver(store vector.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:             store,
		coverageThreshold: defaultCoverageThreshold,
		chunkThreshold:    defaultChunkThreshold,
		topK:              defaultTopK,
		retained:          newRetainedCache(128),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve searches every configured namespace for the topic, aggregates the
// matches per source, and returns the coverage verdict. All retrieval
// failures wrap learn.ErrCoverageUnavailable so callers can distinguish
// infrastructure trouble from a genuinely uncovered topic.
func (r *Resolver) Resolve(ctx context.Context, topic string, keywords []string) (*learn.CoverageResult, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("%w: no vector store configured", learn.ErrCoverageUnavailable)
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("coverage: empty topic")
	}
	if !r.store.Available() {
		return nil, fmt.Errorf("%w: vector store offline", learn.ErrCoverageUnavailable)
	}
	logger := common.Logger()
	start := time.Now()

	query := buildQuery(topic, keywords)
	chunks, err := r.store.SearchAll(ctx, query, r.store.Namespaces(), r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", learn.ErrCoverageUnavailable, err)
	}

	result := r.aggregate(topic, chunks)
	r.retained.Set(topic, result.RetainedChunks())
	logger.Debug("coverage: topic resolved",
		"topic", topic,
		"covered", result.Covered,
		"confidence", result.Confidence,
		"sources", len(result.AllSources),
		"duration", time.Since(start))
	return result, nil
}

// Retained returns the chunks stored by the most recent resolution of the
// topic, avoiding a second retrieval when generation follows coverage.
func (r *Resolver) Retained(topic string) ([]learn.Chunk, bool) {
	if r == nil {
		return nil, false
	}
	return r.retained.Get(topic)
}

// PurgeRetained drops all retained chunks, forcing fresh retrieval.
func (r *Resolver) PurgeRetained() {
	if r != nil {
		r.retained.Purge()
	}
}

func buildQuery(topic string, keywords []string) string {
	parts := []string{topic}
	seen := map[string]struct{}{strings.ToLower(topic): {}}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(kw)]; dup {
			continue
		}
		seen[strings.ToLower(kw)] = struct{}{}
		parts = append(parts, kw)
	}
	return strings.Join(parts, " ")
}

func (r *Resolver) aggregate(topic string, chunks []learn.Chunk) *learn.CoverageResult {
	result := &learn.CoverageResult{TopicName: topic}
	if len(chunks) == 0 {
		return result
	}

	grouped := make(map[string]*learn.CoverageSource)
	var order []string
	for _, chunk := range chunks {
		name := strings.TrimSpace(chunk.Source)
		if name == "" {
			name = "unknown"
		}
		src, ok := grouped[name]
		if !ok {
			src = &learn.CoverageSource{
				SourceName: name,
				SourceType: chunk.SourceType,
			}
			grouped[name] = src
			order = append(order, name)
		}
		if chunk.Score > src.Confidence {
			src.Confidence = chunk.Score
			src.URL = chunk.URL
			src.Chapter = chunk.Chapter
		}
		if chunk.Score >= r.chunkThreshold {
			src.ChunksAboveThreshold++
		}
		src.ChunkRefs = append(src.ChunkRefs, chunk)
	}

	sources := make([]learn.CoverageSource, 0, len(order))
	for _, name := range order {
		src := grouped[name]
		vector.SortChunks(src.ChunkRefs)
		sources = append(sources, *src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sourceLess(sources[i], sources[j])
	})
	result.AllSources = sources

	best := sources[0]
	result.Confidence = best.Confidence
	if best.Confidence >= r.coverageThreshold {
		result.Covered = true
		result.BestSource = &sources[0]
	}
	return result
}

// sourceLess ranks sources by confidence, preferring books over web material
// on ties and falling back to the source name for determinism.
func sourceLess(a, b learn.CoverageSource) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.SourceType != b.SourceType {
		return a.SourceType == learn.SourceTypeBook
	}
	return a.SourceName < b.SourceName
}
