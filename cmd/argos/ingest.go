package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/argos/pkg/catalog"
	"github.com/kadirpekel/argos/pkg/embedders"
	"github.com/kadirpekel/argos/pkg/ingest"
	"github.com/kadirpekel/argos/pkg/output"
	"github.com/kadirpekel/argos/pkg/splitter"
	"github.com/kadirpekel/argos/pkg/vector"
)

// IngestCmd indexes a folder.
type IngestCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Folder to index." type:"path"`

	DryRun       bool `name:"dry-run" help:"Discover and load only; skip chunking, embedding, and persistence."`
	SampleSize   int  `name:"sample-size" help:"Number of sample paths reported." default:"5"`
	ChunkSize    int  `name:"chunk-size" help:"Target chunk size in characters." default:"1000"`
	ChunkOverlap int  `name:"chunk-overlap" help:"Overlap between consecutive chunks in characters." default:"200"`
	Watch        bool `help:"Keep watching the folder and re-index on changes."`
}

func (c *IngestCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Path)
	if err != nil {
		return err
	}

	// Flags beat the config file when they differ from their defaults.
	if c.SampleSize > 0 && c.SampleSize != ingest.DefaultSampleSize {
		cfg.Ingest.SampleSize = c.SampleSize
	}
	chunking := cfg.Chunking
	if c.ChunkSize > 0 && c.ChunkSize != splitter.DefaultChunkSize {
		chunking.ChunkSize = c.ChunkSize
	}
	if c.ChunkOverlap != splitter.DefaultChunkOverlap {
		chunking.ChunkOverlap = c.ChunkOverlap
	}

	ctx, cancel := signalContext()
	defer cancel()

	if c.DryRun {
		pipeline, err := ingest.NewPipeline(ingest.PipelineConfig{
			Ingest:   cfg.Ingest,
			Chunking: chunking,
			Embedder: nopEmbedder{},
			Store:    vector.NilStore{},
		})
		if err != nil {
			return err
		}
		summary, err := pipeline.DryRun(ctx, root)
		if err != nil {
			return err
		}
		printSummary(summary, true)
		return nil
	}

	embedder, err := embedders.New(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	store, err := openStore(cfg, root)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	cat, err := catalog.Open(ingest.CatalogPath(root))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	pipeline, err := ingest.NewPipeline(ingest.PipelineConfig{
		Ingest:   cfg.Ingest,
		Chunking: chunking,
		Embedder: embedder,
		Store:    store,
		Catalog:  cat,
	})
	if err != nil {
		return err
	}

	summary, err := pipeline.Ingest(ctx, root)
	if err != nil {
		return err
	}
	printSummary(summary, false)

	if c.Watch {
		watcher, err := ingest.NewWatcher(pipeline, root, 0)
		if err != nil {
			return err
		}
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
		return watcher.Run(ctx)
	}
	return nil
}

// printSummary renders one pass's counts and sample paths in a panel.
func printSummary(summary *ingest.Summary, dryRun bool) {
	width := output.TerminalWidth()

	var b strings.Builder
	b.WriteString(output.KeyValue("Files discovered", strconv.Itoa(summary.Discovered), 0))
	b.WriteString("\n")
	b.WriteString(output.KeyValue("Files ignored", strconv.Itoa(summary.Ignored), 0))
	b.WriteString("\n")
	b.WriteString(output.KeyValue("Files loaded", strconv.Itoa(summary.Loaded), 0))
	if !dryRun {
		b.WriteString("\n")
		b.WriteString(output.KeyValue("Chunks indexed", strconv.Itoa(summary.Chunks), 0))
	}
	b.WriteString("\n")
	b.WriteString(output.KeyValue("Duration", summary.Duration.Round(time.Millisecond).String(), 0))
	if len(summary.SamplePaths) > 0 {
		b.WriteString("\n\nSample files:\n")
		b.WriteString(output.List(summary.SamplePaths, false, 2))
	}

	title := "Ingest Summary"
	if dryRun {
		title = "Dry Run Summary"
	}
	fmt.Println(output.Panel(title, b.String(), width))
}

// nopEmbedder satisfies the pipeline's embedder requirement for dry
// runs, which never embed.
type nopEmbedder struct{}

func (nopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("dry run does not embed")
}

func (nopEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("dry run does not embed")
}

func (nopEmbedder) GetDimension() int    { return 0 }
func (nopEmbedder) GetModelName() string { return "none" }
func (nopEmbedder) Close() error         { return nil }
