package provider

import (
	"fmt"
	"os"

	"codexsum/pkg/types"
)

// defaultKeyEnv maps a provider name to its conventional credential
// variable, used when the spec does not name one.
var defaultKeyEnv = map[string]string{
	"openai":     EnvOpenAIAPIKey,
	"anthropic":  EnvAnthropicAPIKey,
	"perplexity": EnvPerplexityAPIKey,
}

// New constructs the adapter for one spec. A missing credential is a
// construction error: it surfaces at startup, never as a runtime chunk
// failure.
func New(spec types.ProviderSpec) (Provider, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	envVar := spec.APIKeyEnv
	if envVar == "" {
		envVar = defaultKeyEnv[spec.Provider]
	}
	if envVar == "" {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, spec.Provider)
	}
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set for provider %s", ErrMissingAPIKey, envVar, spec.Provider)
	}

	switch spec.Provider {
	case "openai":
		return NewOpenAI(spec, apiKey), nil
	case "anthropic":
		return NewAnthropic(spec, apiKey), nil
	case "perplexity":
		return NewPerplexity(spec, apiKey), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, spec.Provider)
	}
}

// NewChain constructs adapters for a priority-sorted spec list. Specs are
// validated and sorted here so a misconfigured chain fails before any work
// is dispatched.
func NewChain(specs []types.ProviderSpec) ([]Provider, []types.ProviderSpec, error) {
	chain, err := types.SortChain(specs)
	if err != nil {
		return nil, nil, err
	}
	providers := make([]Provider, 0, len(chain))
	for _, spec := range chain {
		p, err := New(spec)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, p)
	}
	return providers, chain, nil
}
