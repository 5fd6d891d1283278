// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/nicodishanthj/pathlight/internal/cache"
	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/coverage"
	"github.com/nicodishanthj/pathlight/internal/curriculum"
	"github.com/nicodishanthj/pathlight/internal/data/orchestrator"
	"github.com/nicodishanthj/pathlight/internal/llm"
	"github.com/nicodishanthj/pathlight/internal/profile"
	"github.com/nicodishanthj/pathlight/internal/workflow"
)

type Server struct {
	router   chi.Router
	provider llm.Provider
	workflow *workflow.Manager

	orchestrator *orchestrator.Orchestrator
}

func NewServer(ctx context.Context, orch *orchestrator.Orchestrator, provider llm.Provider) (*Server, error) {
	logger := common.Logger()
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	catalogStore := orch.Catalog()
	if catalogStore == nil {
		return nil, fmt.Errorf("catalog store unavailable")
	}
	vectorClient := orch.Vector()
	providerName := "unknown"
	if provider != nil {
		providerName = provider.Name()
	}
	logger.Info(
		"api: building server",
		"provider", providerName,
		"retrieval_available", vectorClient != nil && vectorClient.Available(),
	)

	resourceCatalog, err := curriculum.LoadCatalog(orch.Config().CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load resource catalog: %w", err)
	}

	analyzer := profile.NewAnalyzer(provider, profile.WithRoleVocabulary(resourceCatalog.TemplateRoles))
	resolver := coverage.NewResolver(vectorClient)
	sequencer := curriculum.NewSequencer(provider, resourceCatalog)
	structures := cache.NewStructureCache(catalogStore, provider, resourceCatalog)
	contents := cache.NewContentCache(catalogStore, provider)
	manager := workflow.NewManager(analyzer, resolver, sequencer, structures, contents, catalogStore)

	srv := &Server{
		router:       chi.NewRouter(),
		provider:     provider,
		workflow:     manager,
		orchestrator: orch,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

// NewServerWithManager wires a prepared workflow manager. Used in tests.
func NewServerWithManager(manager *workflow.Manager) *Server {
	srv := &Server{
		router:   chi.NewRouter(),
		workflow: manager,
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/profile", s.handleProfile)
	s.router.Get("/v1/coverage", s.handleCoverage)
	s.router.Post("/v1/structure", s.handleStructure)
	s.router.Post("/v1/content", s.handleContent)
	s.router.Get("/v1/path", s.handlePath)
	s.router.Delete("/v1/cache", s.handleCacheInvalidate)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Handle("/debug/vars", expvar.Handler())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
