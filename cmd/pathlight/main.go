// File path: cmd/pathlight/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nicodishanthj/pathlight/internal/api"
	"github.com/nicodishanthj/pathlight/internal/common"
	"github.com/nicodishanthj/pathlight/internal/data/orchestrator"
	"github.com/nicodishanthj/pathlight/internal/llm"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("pathlight: .env file not loaded", "error", err)
	} else {
		logger.Info("pathlight: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite cache database")
	catalogFile := flag.String("catalog", "", "path to the JSON role-template and fallback-resource catalog")
	flag.Parse()

	logger.Info("pathlight: startup initiated", "addr", *addr, "db", *dbPath)

	orchCfg, err := orchestrator.LoadConfig()
	if err != nil {
		logger.Error("pathlight: orchestrator config load failed", "error", err)
		fmt.Println("orchestrator config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		orchCfg.SQLitePath = trimmed
	}
	if trimmed := strings.TrimSpace(*catalogFile); trimmed != "" {
		orchCfg.CatalogFile = trimmed
	}
	if dir := filepath.Dir(orchCfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("pathlight: create data directory failed", "dir", dir, "error", err)
			fmt.Println("data directory error:", err)
			os.Exit(1)
		}
	}

	orch, err := orchestrator.New(ctx, orchCfg)
	if err != nil {
		logger.Error("pathlight: orchestrator initialization failed", "error", err)
		fmt.Println("orchestrator error:", err)
		os.Exit(1)
	}
	defer orch.Close()

	provider := llm.NewProvider()
	logger.Info("pathlight: llm provider ready", "provider", provider.Name())

	vectorClient := orch.Vector()
	if vectorClient != nil {
		if vectorClient.Available() {
			logger.Info("pathlight: retrieval service available", "namespaces", vectorClient.Namespaces())
		} else {
			logger.Warn("pathlight: retrieval service unreachable", "namespaces", vectorClient.Namespaces())
		}
	} else {
		logger.Warn("pathlight: retrieval service not configured, coverage checks will fail")
	}

	server, err := api.NewServer(ctx, orch, provider)
	if err != nil {
		logger.Error("pathlight: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("pathlight: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("pathlight: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultDBPath() string {
	return filepath.Join("data", "pathlight.db")
}
