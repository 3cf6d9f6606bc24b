package main

import (
	"context"
	"fmt"

	"github.com/kadirpekel/argos/pkg/catalog"
	"github.com/kadirpekel/argos/pkg/ignore"
	"github.com/kadirpekel/argos/pkg/ingest"
	"github.com/kadirpekel/argos/pkg/output"
	"github.com/kadirpekel/argos/pkg/scan"
)

// ListCmd lists indexed documents, run history, or the file tree.
type ListCmd struct {
	Path string `short:"p" default:"." help:"Indexed folder." type:"path"`

	Runs     bool `help:"Show ingest run history instead of documents."`
	Tree     bool `help:"Render the file tree ingestion would index."`
	MaxDepth int  `name:"max-depth" default:"0" help:"Limit tree depth (0 = unlimited)."`
}

func (c *ListCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Path)
	if err != nil {
		return err
	}

	if c.Tree {
		spec := ignore.BuildSpec(root, cfg.Ingest.IgnorePatterns)
		tree, err := scan.RenderTree(root, spec, c.MaxDepth)
		if err != nil {
			return err
		}
		fmt.Println(tree)
		return nil
	}

	if !ingest.IndexExists(root) {
		return fmt.Errorf("%w at %s. Run `argos ingest %s` first",
			ingest.ErrNoIndex, ingest.IndexDir(root), root)
	}

	cat, err := catalog.Open(ingest.CatalogPath(root))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	if c.Runs {
		return printRuns(ctx, cat)
	}
	return printDocuments(ctx, cat)
}

func printRuns(ctx context.Context, cat *catalog.Catalog) error {
	runs, err := cat.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No ingest runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", run.Discovered),
			fmt.Sprintf("%d", run.Ignored),
			fmt.Sprintf("%d", run.Loaded),
			fmt.Sprintf("%d", run.Chunks),
			run.FinishedAt.Sub(run.StartedAt).String(),
		})
	}
	headers := []string{"Run", "Started", "Discovered", "Ignored", "Loaded", "Chunks", "Duration"}
	fmt.Println(output.Table(headers, rows, nil))
	return nil
}

func printDocuments(ctx context.Context, cat *catalog.Catalog) error {
	docs, err := cat.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	totalChunks := 0
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		totalChunks += doc.Chunks
		rows = append(rows, []string{
			doc.Source,
			formatSize(doc.SizeBytes),
			fmt.Sprintf("%d", doc.Chunks),
			doc.IndexedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	headers := []string{"Source", "Size", "Chunks", "Indexed"}
	fmt.Println(output.Table(headers, rows, nil))
	fmt.Printf("\n%d documents, %d chunks\n", len(docs), totalChunks)
	return nil
}

// shortID abbreviates a run ID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatSize renders a byte count with a binary unit.
func formatSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KiB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
