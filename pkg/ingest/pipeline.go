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

// Package ingest orchestrates the indexing pipeline: collect files,
// load documents, split them into chunks, embed, and upsert into the
// vector store, recording each pass in the catalog.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/argos/pkg/catalog"
	"github.com/kadirpekel/argos/pkg/embedders"
	"github.com/kadirpekel/argos/pkg/ignore"
	"github.com/kadirpekel/argos/pkg/loader"
	"github.com/kadirpekel/argos/pkg/scan"
	"github.com/kadirpekel/argos/pkg/splitter"
	"github.com/kadirpekel/argos/pkg/vector"
)

const (
	// IndexDirName is the index directory created inside the ingested
	// folder.
	IndexDirName = ".argos"

	// CatalogFileName is the catalog database file inside the index
	// directory.
	CatalogFileName = "catalog.db"

	// VectorsDirName is the vector store directory inside the index
	// directory.
	VectorsDirName = "vectors"

	// DefaultSampleSize caps Summary.SamplePaths.
	DefaultSampleSize = 5

	// DefaultBatchSize is the number of chunks embedded and upserted
	// per worker batch.
	DefaultBatchSize = 64
)

// IndexDir returns the index directory inside root.
func IndexDir(root string) string {
	return filepath.Join(root, IndexDirName)
}

// CatalogPath returns the catalog database path inside root.
func CatalogPath(root string) string {
	return filepath.Join(IndexDir(root), CatalogFileName)
}

// VectorsPath returns the vector store directory inside root.
func VectorsPath(root string) string {
	return filepath.Join(IndexDir(root), VectorsDirName)
}

// IndexExists reports whether root carries a built index.
func IndexExists(root string) bool {
	info, err := os.Stat(IndexDir(root))
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(CatalogPath(root))
	return err == nil
}

// Summary is the aggregate result of one ingestion or dry-run pass.
// Discovered == Loaded + Ignored always holds: entries skipped during
// traversal and documents rejected after reading both count as ignored.
type Summary struct {
	Discovered  int
	Ignored     int
	Loaded      int
	Chunks      int
	SamplePaths []string
	Duration    time.Duration
}

// Config holds the ingestion settings.
type Config struct {
	// Collection names the vector store collection.
	Collection string `yaml:"collection,omitempty"`

	// SampleSize caps the sample paths reported per pass.
	SampleSize int `yaml:"sample_size,omitempty"`

	// Concurrency bounds parallel embed+upsert workers. Zero selects
	// the number of CPUs.
	Concurrency int `yaml:"concurrency,omitempty"`

	// BatchSize is the number of chunks per worker batch.
	BatchSize int `yaml:"batch_size,omitempty"`

	// MaxFileSize is the per-file byte cutoff. Zero selects the loader
	// default.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`

	// IgnorePatterns are applied on top of the built-in defaults and
	// the root's .gitignore.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Collection == "" {
		c.Collection = vector.DefaultCollection
	}
	if c.SampleSize <= 0 {
		c.SampleSize = DefaultSampleSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative")
	}
	return nil
}

// PipelineConfig assembles a pipeline from settings and wired
// components. Chunking normally starts from splitter.DefaultConfig so
// the default overlap applies.
type PipelineConfig struct {
	Ingest   Config
	Chunking splitter.Config

	Embedder embedders.Embedder
	Store    vector.Store

	// Catalog is optional; nil skips run recording.
	Catalog *catalog.Catalog
}

// Pipeline runs ingestion passes over a directory tree.
type Pipeline struct {
	collection  string
	sampleSize  int
	concurrency int
	batchSize   int
	patterns    []string

	splitter splitter.Splitter
	loader   *loader.Loader
	embedder embedders.Embedder
	store    vector.Store
	catalog  *catalog.Catalog

	metrics *Metrics
	logger  *slog.Logger
}

// NewPipeline creates a pipeline from configuration.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("vector store is required")
	}

	cfg.Ingest.SetDefaults()
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest configuration: %w", err)
	}

	split, err := splitter.New(cfg.Chunking)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking configuration: %w", err)
	}

	return &Pipeline{
		collection:  cfg.Ingest.Collection,
		sampleSize:  cfg.Ingest.SampleSize,
		concurrency: cfg.Ingest.Concurrency,
		batchSize:   cfg.Ingest.BatchSize,
		patterns:    cfg.Ingest.IgnorePatterns,
		splitter:    split,
		loader:      loader.NewLoader(loader.Config{MaxFileSize: cfg.Ingest.MaxFileSize}),
		embedder:    cfg.Embedder,
		store:       cfg.Store,
		catalog:     cfg.Catalog,
		metrics:     NewMetrics(),
		logger:      slog.Default(),
	}, nil
}

// Metrics returns the pipeline's metrics tracker.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Ingest runs a full pass: discover, load, split, embed, upsert, and
// record the run. An existing collection is replaced. A tree with no
// loadable documents yields a zero-chunk summary and writes nothing.
func (p *Pipeline) Ingest(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	p.metrics.Reset()
	p.metrics.SetStartTime(start)

	root, docs, discovered, ignored, err := p.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Discovered:  discovered,
		Ignored:     ignored,
		Loaded:      len(docs),
		SamplePaths: samplePaths(docs, p.sampleSize),
	}

	if len(docs) == 0 {
		p.metrics.SetEndTime(time.Now())
		summary.Duration = time.Since(start)
		p.logger.Info("Nothing to index",
			"root", root, "discovered", discovered, "ignored", ignored)
		return summary, nil
	}

	chunks := splitter.SplitDocuments(p.splitter, docs)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	summary.Chunks = len(chunks)
	p.metrics.AddChunks(int64(len(chunks)))

	// A full pass rebuilds the collection from scratch.
	if n, err := p.store.Count(ctx, p.collection); err == nil && n > 0 {
		if err := p.store.DeleteCollection(ctx, p.collection); err != nil {
			return nil, NewStoreError(p.store.Name(), "delete collection", p.collection, err)
		}
	}

	if err := p.indexChunks(ctx, chunks); err != nil {
		return nil, err
	}

	finished := time.Now()
	p.metrics.SetEndTime(finished)
	summary.Duration = finished.Sub(start)

	if p.catalog != nil {
		p.recordRun(ctx, summary, docs, chunks, start, finished)
	}

	snap := p.metrics.Snapshot()
	p.logger.Info("Ingestion complete",
		"root", root,
		"discovered", summary.Discovered,
		"ignored", summary.Ignored,
		"loaded", summary.Loaded,
		"chunks", summary.Chunks,
		"elapsed", summary.Duration,
		"chunks_per_sec", snap.ChunksPerSecond)

	return summary, nil
}

// DryRun discovers and loads without chunking, embedding, or writing
// anything.
func (p *Pipeline) DryRun(ctx context.Context, root string) (*Summary, error) {
	start := time.Now()
	p.metrics.Reset()
	p.metrics.SetStartTime(start)

	root, docs, discovered, ignored, err := p.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	p.metrics.SetEndTime(time.Now())
	p.logger.Info("Dry run complete",
		"root", root, "discovered", discovered, "ignored", ignored, "loaded", len(docs))

	return &Summary{
		Discovered:  discovered,
		Ignored:     ignored,
		Loaded:      len(docs),
		SamplePaths: samplePaths(docs, p.sampleSize),
		Duration:    time.Since(start),
	}, nil
}

// discover collects and loads the tree, returning the resolved root,
// the loaded documents, and the merged discovered/ignored counts.
func (p *Pipeline) discover(ctx context.Context, root string) (string, []*loader.Document, int, int, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", nil, 0, 0, NewIngestError("resolve", root, "failed to resolve path", err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", nil, 0, 0, fmt.Errorf("%w: %s", ErrPathMissing, abs)
	}
	if err != nil {
		return "", nil, 0, 0, NewIngestError("stat", abs, "failed to stat path", err)
	}
	if !info.IsDir() {
		return "", nil, 0, 0, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	spec := ignore.BuildSpec(abs, p.patterns)
	records, skipped, err := scan.NewCollector(abs, spec).Collect(ctx)
	if err != nil {
		return "", nil, 0, 0, NewIngestError("collect", abs, "failed to collect files", err)
	}

	docs, rejected, err := p.loader.LoadAll(ctx, records)
	if err != nil {
		return "", nil, 0, 0, NewIngestError("load", abs, "failed to load documents", err)
	}

	discovered := len(records) + skipped
	ignored := skipped + rejected

	p.metrics.AddDiscovered(int64(discovered))
	p.metrics.AddIgnored(int64(ignored))
	p.metrics.AddLoaded(int64(len(docs)))

	return abs, docs, discovered, ignored, nil
}

// indexChunks embeds and upserts chunks in bounded parallel batches.
// Chunk IDs key the upserts, so batch completion order does not affect
// the resulting index.
func (p *Pipeline) indexChunks(ctx context.Context, chunks []splitter.DocumentChunk) error {
	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, p.concurrency)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return p.indexBatch(gctx, batch)
		})
	}

	return g.Wait()
}

// indexBatch embeds one batch of chunks and upserts the results.
func (p *Pipeline) indexBatch(ctx context.Context, batch []splitter.DocumentChunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		p.metrics.IncrementErrors()
		return NewIngestError("embed", "", "failed to embed chunk batch", err)
	}

	docs := make([]vector.Document, len(batch))
	for i, chunk := range batch {
		docs[i] = vector.Document{
			ID:       chunk.ID,
			Content:  chunk.Content,
			Vector:   vectors[i],
			Metadata: chunk.Metadata,
		}
	}

	if err := p.store.Upsert(ctx, p.collection, docs); err != nil {
		p.metrics.IncrementErrors()
		return NewStoreError(p.store.Name(), "upsert", p.collection, err)
	}

	p.metrics.AddIndexed(int64(len(batch)))
	return nil
}

// recordRun writes the run and its document rows to the catalog. A
// catalog failure does not fail the pass: the index itself is already
// persisted.
func (p *Pipeline) recordRun(ctx context.Context, summary *Summary, docs []*loader.Document, chunks []splitter.DocumentChunk, started, finished time.Time) {
	perSource := make(map[string]int, len(docs))
	for _, chunk := range chunks {
		perSource[chunk.Source]++
	}

	run := catalog.Run{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: finished,
		Discovered: summary.Discovered,
		Ignored:    summary.Ignored,
		Loaded:     summary.Loaded,
		Chunks:     summary.Chunks,
	}

	rows := make([]catalog.Document, 0, len(docs))
	for _, doc := range docs {
		size, _ := doc.Metadata["size_bytes"].(int64)
		ext, _ := doc.Metadata["extension"].(string)
		rows = append(rows, catalog.Document{
			ID:        doc.ID,
			Source:    doc.RelativePath,
			SizeBytes: size,
			Extension: ext,
			Chunks:    perSource[doc.RelativePath],
			RunID:     run.ID,
			IndexedAt: finished,
		})
	}

	if err := p.catalog.RecordRun(ctx, run, rows); err != nil {
		p.logger.Warn("Failed to record run in catalog", "run", run.ID, "error", err)
	}
}

func samplePaths(docs []*loader.Document, n int) []string {
	if n > len(docs) {
		n = len(docs)
	}
	paths := make([]string, 0, n)
	for _, doc := range docs[:n] {
		paths = append(paths, doc.RelativePath)
	}
	return paths
}
