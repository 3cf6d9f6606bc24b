// Package embedders provides text embedding providers for indexing
// and retrieval.
package embedders

import (
	"context"
	"fmt"
)

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	GetDimension() int

	GetModelName() string

	Close() error
}

// Config configures an embedding provider.
type Config struct {
	// Provider is one of "openai", "ollama", "cohere".
	Provider string `yaml:"provider,omitempty"`

	// Model is the embedding model name. Each provider has its own
	// default.
	Model string `yaml:"model,omitempty"`

	// APIKey authenticates hosted providers. OpenAI falls back to the
	// OPENAI_API_KEY environment variable, Cohere to COHERE_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// Host overrides the provider endpoint.
	Host string `yaml:"host,omitempty"`

	// Dimension overrides the vector dimension when the model is not
	// in the built-in table.
	Dimension int `yaml:"dimension,omitempty"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries bounds attempts per request.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// BatchSize caps how many texts go into one request.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "ollama", "cohere":
	default:
		return fmt.Errorf("unsupported embedder provider: %s", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries)
	}
	return nil
}

// New creates an embedder from config.
func New(cfg Config) (Embedder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "cohere":
		return NewCohereEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}
}
