// File path: internal/data/orchestrator/config.go
package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config controls the construction of the orchestrator.
type Config struct {
	SQLitePath  string
	CatalogFile string
}

// DefaultConfig returns the baseline configuration used when no overrides are
// supplied.
func DefaultConfig() Config {
	return Config{
		SQLitePath: filepath.Join("data", "pathlight.db"),
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("PATHLIGHT_DB_PATH")); value != "" {
		cfg.SQLitePath = value
	}
	if value := strings.TrimSpace(os.Getenv("PATHLIGHT_CATALOG_FILE")); value != "" {
		cfg.CatalogFile = value
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		cfg.SQLitePath = defaults.SQLitePath
	}
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.SQLitePath) == "" {
		return errors.New("orchestrator: sqlite path required")
	}
	return nil
}
