// File path: internal/data/orchestrator/options.go
package orchestrator

import (
	"github.com/nicodishanthj/pathlight/internal/sqlite"
	"github.com/nicodishanthj/pathlight/internal/vector"
)

type Option func(*options)

type options struct {
	vector  vector.Store
	catalog *sqlite.Store
}

// WithVectorStore injects a retrieval store implementation. Primarily used in
// tests.
func WithVectorStore(store vector.Store) Option {
	return func(o *options) {
		o.vector = store
	}
}

// WithCatalog injects an already opened SQLite catalog.
func WithCatalog(store *sqlite.Store) Option {
	return func(o *options) {
		o.catalog = store
	}
}
