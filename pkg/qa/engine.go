// Package qa answers questions against a built index: it embeds the
// query, retrieves similar chunks from the vector store, filters them
// by score, and assembles the answer payload with citations.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/argos/pkg/embedders"
	"github.com/kadirpekel/argos/pkg/tokens"
	"github.com/kadirpekel/argos/pkg/vector"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// MaxTopK caps the retrieval size regardless of configuration.
	MaxTopK = 100

	// DefaultThreshold is the minimum similarity score a chunk needs
	// to be retained.
	DefaultThreshold = 0.7

	// DefaultMaxContextTokens bounds the prompt context.
	DefaultMaxContextTokens = 4000

	// DefaultQueryTimeout bounds one embed+search round trip.
	DefaultQueryTimeout = 30 * time.Second

	MinQueryLength = 1

	MaxQueryLength = 10000
)

// QueryError describes a failed question-answering operation.
type QueryError struct {
	Op      string
	Message string
	Query   string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[qa:%s] %s (query: %q): %v", e.Op, e.Message, e.Query, e.Err)
	}
	return fmt.Sprintf("[qa:%s] %s (query: %q)", e.Op, e.Message, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func NewQueryError(op, message, query string, err error) *QueryError {
	return &QueryError{
		Op:      op,
		Message: message,
		Query:   query,
		Err:     err,
	}
}

// Config holds the retrieval settings.
type Config struct {
	// Collection names the vector store collection to search.
	Collection string `yaml:"collection,omitempty"`

	// TopK is the number of chunks retrieved per question.
	TopK int `yaml:"top_k,omitempty"`

	// Threshold drops results scoring below it. Zero disables the
	// filter; the default comes from DefaultConfig.
	Threshold float32 `yaml:"similarity_threshold,omitempty"`

	// MaxContextTokens bounds the prompt context. Zero disables the
	// budget; the default comes from DefaultConfig.
	MaxContextTokens int `yaml:"max_context_tokens,omitempty"`
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		Collection:       vector.DefaultCollection,
		TopK:             DefaultTopK,
		Threshold:        DefaultThreshold,
		MaxContextTokens: DefaultMaxContextTokens,
	}
}

// SetDefaults applies default values for unset fields. Threshold and
// MaxContextTokens are left alone: zero is a valid setting for both,
// so their defaults come from DefaultConfig.
func (c *Config) SetDefaults() {
	if c.Collection == "" {
		c.Collection = vector.DefaultCollection
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.TopK > MaxTopK {
		return fmt.Errorf("top_k %d exceeds the maximum %d", c.TopK, MaxTopK)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("similarity_threshold must be within [0, 1], got %v", c.Threshold)
	}
	if c.MaxContextTokens < 0 {
		return fmt.Errorf("max_context_tokens cannot be negative")
	}
	return nil
}

// Answer is the result of one question.
type Answer struct {
	// Question is the normalized query the answer responds to.
	Question string

	// Text is the answer body. Until generation is wired to a
	// language model this is PlaceholderAnswer.
	Text string

	// Prompt is the fully assembled QA prompt, ready for a model.
	Prompt string

	// Citations are the distinct source paths of the retained chunks,
	// in rank order.
	Citations []string

	// Chunks are the retained context chunks, best first.
	Chunks []vector.Result
}

// Engine answers questions over one collection.
type Engine struct {
	embedder   embedders.Embedder
	store      vector.Store
	collection string
	topK       int
	threshold  float32
	maxTokens  int
	counter    *tokens.Counter
}

// NewEngine creates an engine from wired providers and retrieval
// settings.
func NewEngine(embedder embedders.Embedder, store vector.Store, cfg Config) (*Engine, error) {
	if embedder == nil {
		return nil, NewQueryError("new", "embedder is required", "", nil)
	}
	if store == nil {
		return nil, NewQueryError("new", "vector store is required", "", nil)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval configuration: %w", err)
	}

	// The counter degrades to estimation for unknown models, so a
	// resolution failure is not fatal.
	counter, err := tokens.NewCounter(embedder.GetModelName())
	if err != nil {
		counter = nil
	}

	return &Engine{
		embedder:   embedder,
		store:      store,
		collection: cfg.Collection,
		topK:       cfg.TopK,
		threshold:  cfg.Threshold,
		maxTokens:  cfg.MaxContextTokens,
		counter:    counter,
	}, nil
}

// Retrieve returns the chunks most similar to the query, best first,
// with sub-threshold results dropped. A non-positive topK selects the
// configured default.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]vector.Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	processed := processQuery(query)

	if topK <= 0 {
		topK = e.topK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	queryCtx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	vec, err := e.embedder.Embed(queryCtx, processed)
	if err != nil {
		return nil, NewQueryError("embed", "failed to embed query", processed, err)
	}

	results, err := e.store.Search(queryCtx, e.collection, vec, topK)
	if err != nil {
		return nil, NewQueryError("search", "vector search failed", processed, err)
	}

	if e.threshold > 0 {
		filtered := make([]vector.Result, 0, len(results))
		for _, result := range results {
			if result.Score >= e.threshold {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	return e.rerank(processed, results), nil
}

// Ask retrieves context for the question and assembles the answer
// payload. A non-positive topK selects the configured default. The
// answer text is a fixed placeholder until generation is wired to a
// language model; the prompt is fully built so that step is a drop-in.
func (e *Engine) Ask(ctx context.Context, question string, topK int) (*Answer, error) {
	chunks, err := e.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	processed := processQuery(question)
	chunks = e.fitContext(chunks)

	return &Answer{
		Question:  processed,
		Text:      PlaceholderAnswer,
		Prompt:    BuildPrompt(processed, chunks),
		Citations: Citations(chunks),
		Chunks:    chunks,
	}, nil
}

// rerank orders retrieved chunks for relevance. The current
// implementation returns them unchanged; a reranking model slots in
// here.
func (e *Engine) rerank(query string, results []vector.Result) []vector.Result {
	return results
}

// fitContext keeps the longest prefix of chunks whose rendered context
// blocks stay inside the token budget.
func (e *Engine) fitContext(chunks []vector.Result) []vector.Result {
	if e.maxTokens <= 0 || len(chunks) == 0 {
		return chunks
	}
	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = contextBlock(chunk)
	}
	kept := e.counter.Fit(blocks, e.maxTokens)
	return chunks[:len(kept)]
}

func validateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return NewQueryError("validate", "query cannot be empty", query, nil)
	}
	if len(trimmed) < MinQueryLength {
		return NewQueryError("validate", "query too short", query, nil)
	}
	if len(trimmed) > MaxQueryLength {
		return NewQueryError("validate", "query too long", "", nil)
	}
	return nil
}

// processQuery normalizes whitespace. Case is preserved: identifiers
// in technical questions carry signal.
func processQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
