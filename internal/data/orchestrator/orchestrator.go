// File path: internal/data/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/sqlite"
	"github.com/nicodishanthj/pathlight/internal/vector"
)

type closer interface {
	Close() error
}

// Orchestrator wires together the persistent stores that back the server and
// exposes convenience accessors for the workflow and API layers.
type Orchestrator struct {
	cfg Config

	catalog *sqlite.Store
	vector  vector.Store

	closers []closer
}

// New constructs an orchestrator from the provided configuration and optional
// overrides.
func New(ctx context.Context, cfg Config, opts ...Option) (*Orchestrator, error) {
	cfg = applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	catalog := settings.catalog
	if catalog == nil {
		opened, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		catalog = opened
	}

	var vec vector.Store
	switch {
	case settings.vector != nil:
		vec = settings.vector
	case shouldEnableVector():
		client, err := vector.NewFromEnv(ctx)
		if err != nil {
			catalog.Close()
			return nil, fmt.Errorf("init retrieval client: %w", err)
		}
		vec = client
	}

	orch := &Orchestrator{
		cfg:     cfg,
		catalog: catalog,
		vector:  vec,
	}
	orch.closers = append(orch.closers, catalog)
	if c, ok := vec.(closer); ok {
		orch.closers = append(orch.closers, c)
	}
	return orch, nil
}

// Catalog exposes the SQLite store backing the caches and paths.
func (o *Orchestrator) Catalog() *sqlite.Store {
	if o == nil {
		return nil
	}
	return o.catalog
}

// Vector exposes the optional retrieval store.
func (o *Orchestrator) Vector() vector.Store {
	if o == nil {
		return nil
	}
	return o.vector
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	if o == nil {
		return Config{}
	}
	return o.cfg
}

// Close releases any resources associated with the orchestrator.
func (o *Orchestrator) Close() error {
	if o == nil {
		return nil
	}
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		closer := o.closers[i]
		if closer == nil {
			continue
		}
		if cerr := closer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func shouldEnableVector() bool {
	keys := []string{
		"RETRIEVAL_CONFIG_FILE",
		"RETRIEVAL_HOST",
		"RETRIEVAL_PORT",
		"RETRIEVAL_SCHEME",
		"RETRIEVAL_NAMESPACES",
		"RETRIEVAL_API_KEY",
		"RETRIEVAL_TOP_K",
		"RETRIEVAL_TIMEOUT",
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}
