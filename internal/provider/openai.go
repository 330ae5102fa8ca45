package provider

import (
	"net/http"

	"codexsum/pkg/types"
)

const (
	openaiBaseURL     = "https://api.openai.com/v1"
	perplexityBaseURL = "https://api.perplexity.ai"

	// EnvOpenAIAPIKey and friends are the default credential variables,
	// used when the spec names none.
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvPerplexityAPIKey = "PERPLEXITY_API_KEY"
)

// NewOpenAI creates an adapter for the OpenAI chat completions API. A
// spec.BaseURL override points the adapter at a compatible endpoint such as
// a proxy or a local server.
func NewOpenAI(spec types.ProviderSpec, apiKey string) Provider {
	return &chatClient{
		name:       "openai",
		baseURL:    baseURLOr(spec, openaiBaseURL),
		apiKey:     apiKey,
		spec:       spec,
		httpClient: &http.Client{},
	}
}

// NewPerplexity creates an adapter for the Perplexity API, which speaks the
// OpenAI-compatible wire format.
func NewPerplexity(spec types.ProviderSpec, apiKey string) Provider {
	return &chatClient{
		name:       "perplexity",
		baseURL:    baseURLOr(spec, perplexityBaseURL),
		apiKey:     apiKey,
		spec:       spec,
		httpClient: &http.Client{},
	}
}

func baseURLOr(spec types.ProviderSpec, def string) string {
	if spec.BaseURL != "" {
		return spec.BaseURL
	}
	return def
}
