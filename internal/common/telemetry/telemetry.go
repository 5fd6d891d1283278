// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/nicodishanthj/pathlight/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	retrievalSearchTotal     *expvar.Map
	retrievalSearchErrors    *expvar.Map
	retrievalSearchLatencyMS *expvar.Map

	generationTotal     *expvar.Map
	generationErrors    *expvar.Map
	generationLatencyMS *expvar.Map

	cacheHits   *expvar.Map
	cacheMisses *expvar.Map

	sharedGenerationWaits *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		retrievalSearchTotal = expvar.NewMap("pathlight_retrieval_search_total")
		retrievalSearchErrors = expvar.NewMap("pathlight_retrieval_search_errors")
		retrievalSearchLatencyMS = expvar.NewMap("pathlight_retrieval_search_latency_ms")

		generationTotal = expvar.NewMap("pathlight_generation_total")
		generationErrors = expvar.NewMap("pathlight_generation_errors")
		generationLatencyMS = expvar.NewMap("pathlight_generation_latency_ms")

		cacheHits = expvar.NewMap("pathlight_cache_hits")
		cacheMisses = expvar.NewMap("pathlight_cache_misses")

		sharedGenerationWaits = expvar.NewInt("pathlight_shared_generation_waits")
	})
}

// StartSpan records a debug-level trace span around an operation.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordRetrievalSearch tracks one namespace search against the vector index.
func RecordRetrievalSearch(namespace string, duration time.Duration, err error) {
	ensureInit()
	key := mapKey(namespace)
	retrievalSearchTotal.Add(key, 1)
	if err != nil {
		retrievalSearchErrors.Add(key, 1)
	}
	if duration > 0 {
		retrievalSearchLatencyMS.Add(key, duration.Milliseconds())
	}
}

// RecordGeneration tracks one generative call on the given tier.
func RecordGeneration(tier string, duration time.Duration, err error) {
	ensureInit()
	key := mapKey(tier)
	generationTotal.Add(key, 1)
	if err != nil {
		generationErrors.Add(key, 1)
	}
	if duration > 0 {
		generationLatencyMS.Add(key, duration.Milliseconds())
	}
}

// RecordCacheLookup tracks a hit or miss against one of the content caches.
func RecordCacheLookup(cache string, hit bool) {
	ensureInit()
	key := mapKey(cache)
	if hit {
		cacheHits.Add(key, 1)
	} else {
		cacheMisses.Add(key, 1)
	}
}

// RecordSharedGeneration tracks a request that waited on another request's
// in-flight generation instead of issuing its own.
func RecordSharedGeneration() {
	ensureInit()
	sharedGenerationWaits.Add(1)
}

// SpanDuration reports the elapsed time of the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

func mapKey(value string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return "unknown"
	}
	return key
}
