// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Tier selects the cost/quality point of the generative capability. The
// engine, not the caller, decides which tier a task deserves: structural
// outlines run cheap, leaf-level user-visible content runs premium.
type Tier string

const (
	TierCheap   Tier = "cheap"
	TierPremium Tier = "premium"
)

type Provider interface {
	// Complete sends a system/user prompt pair to the model behind the
	// given tier and returns the raw text of the first choice. Callers
	// own schema validation of structured responses.
	Complete(ctx context.Context, tier Tier, system, user string) (string, error)
	Name() string
}

// LocalProvider is the no-credentials fallback. Its output never parses as a
// structured document, so pipelines running against it surface their
// generation errors instead of fabricating content.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Complete(ctx context.Context, tier Tier, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", fmt.Errorf("no prompt provided")
	}
	return "[local-stub:" + string(tier) + "] " + strings.TrimSpace(user), nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
