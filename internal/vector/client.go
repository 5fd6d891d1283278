// File path: internal/vector/client.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/common/telemetry"
	"github.com/nicodishanthj/pathlight/internal/learn"
)

// Store is the retrieval contract the engine depends on. The production
// implementation talks to the external vector search service over HTTP;
// tests substitute fakes.
type Store interface {
	Available() bool
	Namespaces() []string
	Search(ctx context.Context, query, namespace string, topK int) ([]learn.Chunk, error)
	SearchAll(ctx context.Context, query string, namespaces []string, topK int) ([]learn.Chunk, error)
}

// Client queries the vector search service. The service embeds the query
// itself; this client only ships text and namespace.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL    string
	namespaces []string
	available  bool
	apiKey     string

	cfg Config

	mu sync.RWMutex
}

func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. Failure to reach
// the service is logged rather than fatal; the client reports unavailable
// until a health probe succeeds.
func New(ctx context.Context, cfg Config) (*Client, error) {
	baseURL := fmt.Sprintf("%s://%s:%s/api/v1", cfg.Scheme, cfg.Host, cfg.Port)
	logger := common.Logger()
	logger.Info(
		"vector: initializing retrieval client",
		"host", cfg.Host,
		"port", cfg.Port,
		"namespaces", strings.Join(cfg.Namespaces, ","),
		"timeout", cfg.Timeout,
	)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(baseURL, "/"),
		namespaces: append([]string(nil), cfg.Namespaces...),
		apiKey:     cfg.APIKey,
		cfg:        cfg,
	}

	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("vector: retrieval service initialization failed", "error", err)
		return client, nil
	}
	logger.Info("vector: retrieval service connection established")
	return client, nil
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) Namespaces() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.namespaces...)
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return errors.New("retrieval client not configured")
	}
	c.mu.RLock()
	available := c.available
	c.mu.RUnlock()
	if available {
		return nil
	}
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.health(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	if err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.available = true
	c.mu.Unlock()
	return nil
}

// Search queries a single namespace and returns chunks sorted by score
// descending.
func (c *Client) Search(ctx context.Context, query, namespace string, topK int) ([]learn.Chunk, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = c.cfg.TopK
	}
	body := map[string]interface{}{
		"query":     query,
		"namespace": namespace,
		"top_k":     topK,
	}
	var resp struct {
		Results []struct {
			Text     string  `json:"text"`
			Score    float64 `json:"score"`
			Metadata struct {
				Source     string `json:"source"`
				SourceType string `json:"source_type"`
				URL        string `json:"url"`
				Chapter    string `json:"chapter"`
				Topic      string `json:"topic"`
			} `json:"metadata"`
		} `json:"results"`
	}
	endpoint := c.baseURL + "/search"
	start := time.Now()
	err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp)
	telemetry.RecordRetrievalSearch(namespace, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	chunks := make([]learn.Chunk, 0, len(resp.Results))
	for _, res := range resp.Results {
		chunks = append(chunks, learn.Chunk{
			Text:       res.Text,
			Score:      res.Score,
			Source:     res.Metadata.Source,
			SourceType: normalizeSourceType(res.Metadata.SourceType, namespace),
			URL:        res.Metadata.URL,
			Chapter:    res.Metadata.Chapter,
			Topic:      res.Metadata.Topic,
			Namespace:  namespace,
		})
	}
	SortChunks(chunks)
	return chunks, nil
}

// SearchAll fans out over the given namespaces in parallel and merges the
// results into one deterministically ordered list. Namespaces are independent
// reads, so arrival order never influences the merge.
func (c *Client) SearchAll(ctx context.Context, query string, namespaces []string, topK int) ([]learn.Chunk, error) {
	if len(namespaces) == 0 {
		namespaces = c.Namespaces()
	}
	results := make([][]learn.Chunk, len(namespaces))
	g, gctx := errgroup.WithContext(ctx)
	for idx, namespace := range namespaces {
		idx, namespace := idx, namespace
		g.Go(func() error {
			chunks, err := c.Search(gctx, query, namespace, topK)
			if err != nil {
				return fmt.Errorf("namespace %q: %w", namespace, err)
			}
			results[idx] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var merged []learn.Chunk
	for _, chunks := range results {
		merged = append(merged, chunks...)
	}
	SortChunks(merged)
	return merged, nil
}

// SortChunks orders chunks by score descending with source name, then text,
// as tie-breaks so repeated searches produce identical orderings.
func SortChunks(chunks []learn.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].Text < chunks[j].Text
	})
}

func normalizeSourceType(value, namespace string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case learn.SourceTypeBook:
		return learn.SourceTypeBook
	case learn.SourceTypeWeb:
		return learn.SourceTypeWeb
	}
	if strings.Contains(strings.ToLower(namespace), "web") {
		return learn.SourceTypeWeb
	}
	return learn.SourceTypeBook
}

var _ Store = (*Client)(nil)

func (c *Client) health(ctx context.Context) error {
	endpoint := c.baseURL + "/healthz"
	return c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("retrieval client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("retrieval %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Close releases pooled resources associated with the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}
