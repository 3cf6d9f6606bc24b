// Package tokens counts model tokens for context budgeting.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the encoding of a specific model. The
// zero value counts nothing exactly and falls back to estimation.
type Counter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	// Encodings are expensive to initialize, cache them per model.
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewCounter creates a counter for the given model, falling back to
// the cl100k_base encoding when the model is unknown.
func NewCounter(model string) (*Counter, error) {
	cacheMu.RLock()
	cached, ok := encodingCache[model]
	cacheMu.RUnlock()
	if ok {
		return &Counter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &Counter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text. Without an encoding it
// estimates at four characters per token.
func (c *Counter) Count(text string) int {
	if c == nil || c.encoding == nil {
		return Estimate(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Fit keeps the longest prefix of texts, taken in the given priority
// order, whose total token count stays within budget.
func (c *Counter) Fit(texts []string, budget int) []string {
	total := 0
	for i, text := range texts {
		total += c.Count(text)
		if total > budget {
			return texts[:i]
		}
	}
	return texts
}

// Model returns the model name this counter was built for.
func (c *Counter) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Estimate roughly approximates a token count at four characters per
// token, for when no encoding is available.
func Estimate(text string) int {
	return len(text) / 4
}
