// File path: internal/vector/client_test.go
package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

type searchResult struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

func newTestService(t *testing.T, byNamespace map[string][]searchResult) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string `json:"query"`
			Namespace string `json:"namespace"`
			TopK      int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.TopK <= 0 {
			http.Error(w, "top_k required", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": byNamespace[req.Namespace],
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, namespaces []string) *Client {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	cfg := Config{
		Host:       parsed.Hostname(),
		Port:       parsed.Port(),
		Scheme:     parsed.Scheme,
		Namespaces: namespaces,
	}
	cfg.applyDefaults()
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	if !client.Available() {
		t.Fatal("client should be available after health probe")
	}
	return client
}

func TestSearchMapsMetadata(t *testing.T) {
	server := newTestService(t, map[string][]searchResult{
		"default": {
			{Text: "frames", Score: 0.9, Metadata: map[string]string{
				"source": "SQL Cookbook", "source_type": "book", "chapter": "Ch. 12",
			}},
		},
	})
	client := newTestClient(t, server, []string{"default"})

	chunks, err := client.Search(context.Background(), "window functions", "default", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	chunk := chunks[0]
	if chunk.Source != "SQL Cookbook" || chunk.SourceType != learn.SourceTypeBook || chunk.Chapter != "Ch. 12" {
		t.Fatalf("unexpected chunk: %+v", chunk)
	}
	if chunk.Namespace != "default" {
		t.Fatalf("chunk must carry its namespace, got %q", chunk.Namespace)
	}
}

func TestSearchAllMergesDeterministically(t *testing.T) {
	server := newTestService(t, map[string][]searchResult{
		"default": {
			{Text: "b", Score: 0.7, Metadata: map[string]string{"source": "Book B"}},
		},
		"web_resources": {
			{Text: "a", Score: 0.9, Metadata: map[string]string{"source": "site.example.com"}},
			{Text: "c", Score: 0.7, Metadata: map[string]string{"source": "Book A"}},
		},
	})
	client := newTestClient(t, server, []string{"default", "web_resources"})

	chunks, err := client.SearchAll(context.Background(), "anything", nil, 5)
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Score != 0.9 {
		t.Fatalf("highest score first, got %+v", chunks[0])
	}
	// Equal scores break ties on source name.
	if chunks[1].Source != "Book A" || chunks[2].Source != "Book B" {
		t.Fatalf("tie-break ordering wrong: %q then %q", chunks[1].Source, chunks[2].Source)
	}
}

func TestNamespaceHeuristicForSourceType(t *testing.T) {
	server := newTestService(t, map[string][]searchResult{
		"web_resources": {
			{Text: "untyped", Score: 0.5, Metadata: map[string]string{"source": "site.example.com"}},
		},
	})
	client := newTestClient(t, server, []string{"web_resources"})

	chunks, err := client.Search(context.Background(), "anything", "web_resources", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if chunks[0].SourceType != learn.SourceTypeWeb {
		t.Fatalf("web namespace should imply web source type, got %q", chunks[0].SourceType)
	}
}

func TestClientUnavailableService(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: "1", Scheme: "http", Namespaces: []string{"default"}}
	cfg.applyDefaults()
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client should not fail hard: %v", err)
	}
	defer client.Close()
	if client.Available() {
		t.Fatal("client must report unavailable when probes fail")
	}
}
