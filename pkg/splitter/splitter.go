// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package splitter divides document text into overlapping chunks
// sized for embedding.
//
// Splitting is deterministic and loss-free: every chunk is a literal
// slice of the input, and concatenating the chunks with overlaps
// removed reproduces the input exactly.
package splitter

import (
	"fmt"
	"maps"

	"github.com/kadirpekel/argos/pkg/loader"
)

// Strategy selects a splitting implementation.
type Strategy string

const (
	// StrategyRecursive splits on a separator cascade (blank line,
	// newline, space, then raw characters), accumulating segments
	// greedily. The default.
	StrategyRecursive Strategy = "recursive"

	// StrategyWindow slices fixed-size character windows with a fixed
	// overlap, ignoring separators.
	StrategyWindow Strategy = "window"
)

// Default chunking parameters, measured in characters (runes).
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators is the recursive cascade order. The empty string
// means raw character windows and guarantees no chunk exceeds the
// target size.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}

// Config controls how documents are split.
type Config struct {
	// Strategy selects the splitter implementation.
	Strategy Strategy `yaml:"strategy,omitempty"`

	// ChunkSize is the soft target chunk length in characters.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// ChunkOverlap is the maximum shared content between consecutive
	// chunks, in characters. Zero means no overlap; DefaultConfig
	// starts it at DefaultChunkOverlap.
	ChunkOverlap int `yaml:"chunk_overlap,omitempty"`

	// Separators overrides the recursive cascade order.
	Separators []string `yaml:"separators,omitempty"`
}

// DefaultConfig returns the default splitting configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:     StrategyRecursive,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   DefaultSeparators(),
	}
}

// SetDefaults applies default values for unset fields. ChunkOverlap
// is left alone: zero is a valid setting, so its default comes from
// DefaultConfig.
func (c *Config) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyRecursive
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if len(c.Separators) == 0 {
		c.Separators = DefaultSeparators()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.ChunkOverlap, c.ChunkSize)
	}
	switch c.Strategy {
	case StrategyRecursive, StrategyWindow:
	default:
		return fmt.Errorf("unknown strategy: %q", c.Strategy)
	}
	return nil
}

// Chunk is one windowed slice of a text. StartByte/EndByte locate the
// slice in the original: Content == text[StartByte:EndByte].
type Chunk struct {
	Content   string
	StartByte int
	EndByte   int
	Index     int
	Total     int
}

// DocumentChunk is a chunk bound to its parent document, carrying the
// metadata the indexing stage persists.
type DocumentChunk struct {
	// ID is "{document_id}_{chunk_index}".
	ID string

	Content string

	// Source is the parent document's relative path.
	Source string

	Index int
	Total int

	StartByte int
	EndByte   int

	// Metadata merges the parent document's metadata with source,
	// chunk_index and total_chunks.
	Metadata map[string]any
}

// Splitter produces deterministic chunk sequences from text. Empty
// text yields no chunks; text no longer than the chunk size yields a
// single chunk equal to the text.
type Splitter interface {
	Split(text string) []Chunk
}

// New creates a splitter from config.
func New(cfg Config) (Splitter, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyRecursive:
		return newRecursiveSplitter(cfg), nil
	case StrategyWindow:
		return newWindowSplitter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", cfg.Strategy)
	}
}

// SplitDocument splits one document and attaches per-chunk identity
// and metadata.
func SplitDocument(s Splitter, doc *loader.Document) []DocumentChunk {
	chunks := s.Split(doc.Content)
	out := make([]DocumentChunk, 0, len(chunks))
	for _, ch := range chunks {
		metadata := make(map[string]any, len(doc.Metadata)+3)
		maps.Copy(metadata, doc.Metadata)
		metadata["source"] = doc.RelativePath
		metadata["chunk_index"] = ch.Index
		metadata["total_chunks"] = ch.Total

		out = append(out, DocumentChunk{
			ID:        fmt.Sprintf("%s_%d", doc.ID, ch.Index),
			Content:   ch.Content,
			Source:    doc.RelativePath,
			Index:     ch.Index,
			Total:     ch.Total,
			StartByte: ch.StartByte,
			EndByte:   ch.EndByte,
			Metadata:  metadata,
		})
	}
	return out
}

// SplitDocuments splits a batch of documents in order.
func SplitDocuments(s Splitter, docs []*loader.Document) []DocumentChunk {
	var out []DocumentChunk
	for _, doc := range docs {
		out = append(out, SplitDocument(s, doc)...)
	}
	return out
}
