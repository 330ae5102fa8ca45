package types

import (
	"fmt"
	"sort"
	"time"
)

// ProviderSpec configures one summarization backend in the fallback chain.
type ProviderSpec struct {
	Provider    string        // adapter name: "openai", "anthropic", "perplexity"
	Model       string        // model identifier passed through to the API
	APIKeyEnv   string        // environment variable holding the credential
	BaseURL     string        // endpoint override; empty = the provider's public API
	Priority    int           // lower = tried first; total order within a chain
	MaxTokens   int           // response token cap
	Temperature float64
	Timeout     time.Duration // per-call timeout
	RateLimit   int           // calls per minute, 0 = unlimited
}

// Validate checks a single spec for required fields.
func (s *ProviderSpec) Validate() error {
	if s.Provider == "" {
		return fmt.Errorf("provider name is required")
	}
	if s.Model == "" {
		return fmt.Errorf("provider %s: model name is required", s.Provider)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("provider %s: max_tokens must be > 0", s.Provider)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("provider %s: timeout must be > 0", s.Provider)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("provider %s: rate limit must be >= 0", s.Provider)
	}
	return nil
}

// SortChain orders specs by ascending priority and verifies the order is
// total. Ties would make the fallback order ambiguous, so they are rejected.
func SortChain(specs []ProviderSpec) ([]ProviderSpec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	chain := make([]ProviderSpec, len(specs))
	copy(chain, specs)
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Priority < chain[j].Priority
	})
	for i := 1; i < len(chain); i++ {
		if chain[i].Priority == chain[i-1].Priority {
			return nil, fmt.Errorf("providers %s and %s share priority %d",
				chain[i-1].Provider, chain[i].Provider, chain[i].Priority)
		}
	}
	return chain, nil
}
