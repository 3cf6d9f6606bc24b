// Package catalog records ingestion runs and the documents they indexed
// in a local SQLite database. It is the source of truth for `argos list`
// and for checking whether an index exists at all.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded ingestion pass over a root directory.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Ignored    int
	Loaded     int
	Chunks     int
}

// Document is one indexed file as of its most recent ingestion.
type Document struct {
	ID        string
	Source    string
	SizeBytes int64
	Extension string
	Chunks    int
	RunID     string
	IndexedAt time.Time
}

// Separate statements for tables and indexes to ensure SQLite compatibility.
const (
	createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id VARCHAR(64) PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    discovered INTEGER NOT NULL,
    ignored INTEGER NOT NULL,
    loaded INTEGER NOT NULL,
    chunks INTEGER NOT NULL
)`

	createDocumentsTableSQL = `
CREATE TABLE IF NOT EXISTS documents (
    id VARCHAR(64) PRIMARY KEY,
    source TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    extension VARCHAR(32) NOT NULL,
    chunks INTEGER NOT NULL,
    run_id VARCHAR(64) NOT NULL,
    indexed_at TIMESTAMP NOT NULL
)`

	createDocumentsSourceIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`

	createRunsStartedAtIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`
)

// Catalog is a SQLite-backed record of runs and documents.
type Catalog struct {
	db *sql.DB
}

// Open opens the catalog database at path, creating the file and its
// parent directory when missing.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection prevents SQLite "database is locked" errors.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return c, nil
}

func (c *Catalog) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		createRunsTableSQL,
		createDocumentsTableSQL,
		createDocumentsSourceIndexSQL,
		createRunsStartedAtIndexSQL,
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores a finished run and upserts the documents it indexed,
// in one transaction. Re-ingested documents keep their id and take the
// new run's values.
func (c *Catalog) RecordRun(ctx context.Context, run Run, docs []Document) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertRun := `
INSERT INTO runs (id, started_at, finished_at, discovered, ignored, loaded, chunks)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID, run.StartedAt, run.FinishedAt,
		run.Discovered, run.Ignored, run.Loaded, run.Chunks,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	upsertDoc := `
INSERT INTO documents (id, source, size_bytes, extension, chunks, run_id, indexed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    source = excluded.source,
    size_bytes = excluded.size_bytes,
    extension = excluded.extension,
    chunks = excluded.chunks,
    run_id = excluded.run_id,
    indexed_at = excluded.indexed_at`
	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, upsertDoc,
			doc.ID, doc.Source, doc.SizeBytes, doc.Extension,
			doc.Chunks, doc.RunID, doc.IndexedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListDocuments returns all cataloged documents ordered by source path.
func (c *Catalog) ListDocuments(ctx context.Context) ([]Document, error) {
	query := `
SELECT id, source, size_bytes, extension, chunks, run_id, indexed_at
FROM documents
ORDER BY source`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID, &doc.Source, &doc.SizeBytes, &doc.Extension,
			&doc.Chunks, &doc.RunID, &doc.IndexedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListRuns returns recorded runs, newest first.
func (c *Catalog) ListRuns(ctx context.Context) ([]Run, error) {
	query := `
SELECT id, started_at, finished_at, discovered, ignored, loaded, chunks
FROM runs
ORDER BY started_at DESC`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.Discovered, &run.Ignored, &run.Loaded, &run.Chunks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run, or nil when none is recorded.
func (c *Catalog) LatestRun(ctx context.Context) (*Run, error) {
	query := `
SELECT id, started_at, finished_at, discovered, ignored, loaded, chunks
FROM runs
ORDER BY started_at DESC
LIMIT 1`

	var run Run
	err := c.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt,
		&run.Discovered, &run.Ignored, &run.Loaded, &run.Chunks,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &run, nil
}

// DeleteBySource removes the catalog rows for one source path. Used when
// a watched file disappears.
func (c *Catalog) DeleteBySource(ctx context.Context, source string) error {
	query := `DELETE FROM documents WHERE source = ?`
	if _, err := c.db.ExecContext(ctx, query, source); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", source, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
