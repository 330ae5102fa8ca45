// Package config loads and validates the YAML run configuration.
// Credentials never appear in the file; each model names the environment
// variable holding its API key and the provider layer resolves it at
// startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"codexsum/pkg/types"
)

// Defaults applied by Load for omitted fields.
const (
	DefaultChunkSize      = 2000
	DefaultChunkOverlap   = 400
	DefaultMaxWorkers     = 4
	DefaultRetryAttempts  = 3
	DefaultTimeoutSeconds = 30
	DefaultMaxTokens      = 1000
	DefaultMaxFileSize    = 1 << 20 // 1 MiB
	DefaultOutputPath     = "codebase_summary.md"
	DefaultCachePath      = ".codexsum-cache.db"
)

// ErrNoModels is returned when the config lists no providers.
var ErrNoModels = errors.New("config: at least one model must be configured")

// Model is one fallback chain entry as written in YAML.
type Model struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	BaseURL        string  `yaml:"base_url"` // endpoint override, e.g. a proxy
	Priority       int     `yaml:"priority"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	RateLimit      int     `yaml:"rate_limit"` // calls per minute, 0 = unlimited
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Output controls rendering and destination of the final document.
type Output struct {
	Format string `yaml:"format"` // markdown, json, text
	Path   string `yaml:"path"`
}

// Cache controls the summary cache tiers.
type Cache struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"` // sqlite file; empty = memory only
	MaxEntries int    `yaml:"max_entries"`
}

// Config is the full run configuration.
type Config struct {
	ChunkSize        int      `yaml:"chunk_size"`
	ChunkOverlap     int      `yaml:"chunk_overlap"`
	SemanticChunking *bool    `yaml:"semantic_chunking"` // nil = enabled
	MaxWorkers       int      `yaml:"max_workers"`
	Models           []Model  `yaml:"models"`
	FallbackEnabled  *bool    `yaml:"fallback_enabled"` // nil = enabled
	RetryAttempts    int      `yaml:"retry_attempts"`
	TimeoutSeconds   int      `yaml:"timeout_seconds"`
	IncludePatterns  []string `yaml:"include_patterns"`
	ExcludePatterns  []string `yaml:"exclude_patterns"`
	MaxFileSize      int64    `yaml:"max_file_size"`
	Overview         *bool    `yaml:"overview"` // nil = enabled
	Output           Output   `yaml:"output"`
	Cache            Cache    `yaml:"cache"`
}

// Load reads, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a ready-to-validate config with no models.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutputPath
	}
	if c.Output.Format == "" {
		c.Output.Format = "markdown"
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
	for i := range c.Models {
		m := &c.Models[i]
		if m.TimeoutSeconds <= 0 {
			m.TimeoutSeconds = c.TimeoutSeconds
		}
		if m.MaxTokens <= 0 {
			m.MaxTokens = DefaultMaxTokens
		}
	}
}

// Validate rejects configurations the run cannot start with. Priority ties
// and malformed specs are caught here, before any provider is constructed.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return ErrNoModels
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: chunk_overlap %d must be smaller than chunk_size %d",
			c.ChunkOverlap, c.ChunkSize)
	}
	specs := c.ProviderSpecs()
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("config: models[%d]: %w", i, err)
		}
	}
	if _, err := types.SortChain(specs); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Output.Format {
	case "markdown", "json", "text":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Output.Format)
	}
	return nil
}

// ProviderSpecs converts the YAML model list into the domain type.
func (c *Config) ProviderSpecs() []types.ProviderSpec {
	specs := make([]types.ProviderSpec, len(c.Models))
	for i, m := range c.Models {
		specs[i] = types.ProviderSpec{
			Provider:    m.Provider,
			Model:       m.Model,
			APIKeyEnv:   m.APIKeyEnv,
			BaseURL:     m.BaseURL,
			Priority:    m.Priority,
			MaxTokens:   m.MaxTokens,
			Temperature: m.Temperature,
			Timeout:     time.Duration(m.TimeoutSeconds) * time.Second,
			RateLimit:   m.RateLimit,
		}
	}
	return specs
}

// SemanticEnabled reports whether language-aware chunking is on.
func (c *Config) SemanticEnabled() bool {
	return c.SemanticChunking == nil || *c.SemanticChunking
}

// FallbackOn reports whether the chain may continue past the first provider.
func (c *Config) FallbackOn() bool {
	return c.FallbackEnabled == nil || *c.FallbackEnabled
}

// OverviewEnabled reports whether the AI project overview is generated.
func (c *Config) OverviewEnabled() bool {
	return c.Overview == nil || *c.Overview
}
