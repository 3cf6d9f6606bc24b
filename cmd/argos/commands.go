package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kadirpekel/argos/pkg/config"
	"github.com/kadirpekel/argos/pkg/embedders"
	"github.com/kadirpekel/argos/pkg/ingest"
	"github.com/kadirpekel/argos/pkg/qa"
	"github.com/kadirpekel/argos/pkg/vector"
)

// loadConfig loads the tool configuration from the optional file given
// by the global --config flag.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cli.Config != "" {
		slog.Info("Loaded configuration", "path", cli.Config)
	}
	return cfg, nil
}

// resolveRoot makes path absolute and requires an existing directory.
// An empty path means the current directory.
func resolveRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ingest.ErrPathMissing, abs)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ingest.ErrNotDirectory, abs)
	}
	return abs, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()
	return ctx, cancel
}

// openStore opens the vector store for root. The embedded store
// persists inside the root's index directory unless the config names
// another path.
func openStore(cfg *config.Config, root string) (vector.Store, error) {
	storeCfg := cfg.Store
	if storeCfg.Provider == "" || storeCfg.Provider == vector.ProviderChromem {
		if storeCfg.Path == "" {
			storeCfg.Path = ingest.VectorsPath(root)
		}
	}
	return vector.New(&storeCfg)
}

// buildEngine wires the QA engine over an existing index at root. The
// returned cleanup closes the store and the embedder.
func buildEngine(cfg *config.Config, root string) (*qa.Engine, func(), error) {
	if !ingest.IndexExists(root) {
		return nil, nil, fmt.Errorf("%w at %s. Run `argos ingest %s` first",
			ingest.ErrNoIndex, ingest.IndexDir(root), root)
	}

	embedder, err := embedders.New(cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := openStore(cfg, root)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	engine, err := qa.NewEngine(embedder, store, cfg.Retrieval)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
		_ = embedder.Close()
	}
	return engine, cleanup, nil
}
