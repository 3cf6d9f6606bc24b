package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kadirpekel/argos/pkg/qa"
	"github.com/kadirpekel/argos/pkg/splitter"
	"github.com/kadirpekel/argos/pkg/vector"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argos.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logger.Level != "info" || cfg.Logger.Format != "simple" {
		t.Errorf("logger defaults = %+v", cfg.Logger)
	}
	if cfg.Chunking.ChunkSize != splitter.DefaultChunkSize {
		t.Errorf("chunk size = %d, want %d", cfg.Chunking.ChunkSize, splitter.DefaultChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != splitter.DefaultChunkOverlap {
		t.Errorf("chunk overlap = %d, want %d", cfg.Chunking.ChunkOverlap, splitter.DefaultChunkOverlap)
	}
	if cfg.Retrieval.TopK != qa.DefaultTopK {
		t.Errorf("top_k = %d, want %d", cfg.Retrieval.TopK, qa.DefaultTopK)
	}
	if cfg.Retrieval.Threshold != qa.DefaultThreshold {
		t.Errorf("threshold = %v, want %v", cfg.Retrieval.Threshold, qa.DefaultThreshold)
	}
	if cfg.Ingest.Collection != vector.DefaultCollection {
		t.Errorf("collection = %q, want %q", cfg.Ingest.Collection, vector.DefaultCollection)
	}
	if cfg.Embedder.Provider != "openai" {
		t.Errorf("embedder provider = %q, want openai", cfg.Embedder.Provider)
	}
	if cfg.Store.Provider != vector.ProviderChromem {
		t.Errorf("store provider = %q, want chromem", cfg.Store.Provider)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("server addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := writeConfig(t, `
chunking:
  chunk_size: 500
embedder:
  provider: ollama
  model: nomic-embed-text
retrieval:
  top_k: 8
server:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("chunk size = %d, want 500", cfg.Chunking.ChunkSize)
	}
	// Untouched fields keep their defaults.
	if cfg.Chunking.ChunkOverlap != splitter.DefaultChunkOverlap {
		t.Errorf("chunk overlap = %d, want default %d", cfg.Chunking.ChunkOverlap, splitter.DefaultChunkOverlap)
	}
	if cfg.Embedder.Provider != "ollama" || cfg.Embedder.Model != "nomic-embed-text" {
		t.Errorf("embedder = %+v", cfg.Embedder)
	}
	if cfg.Retrieval.TopK != 8 {
		t.Errorf("top_k = %d, want 8", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.Threshold != qa.DefaultThreshold {
		t.Errorf("threshold = %v, want default %v", cfg.Retrieval.Threshold, qa.DefaultThreshold)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadExplicitZeroSurvives(t *testing.T) {
	path := writeConfig(t, `
chunking:
  chunk_overlap: 0
retrieval:
  similarity_threshold: 0
  max_context_tokens: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chunking.ChunkOverlap != 0 {
		t.Errorf("chunk overlap = %d, want explicit 0", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Retrieval.Threshold != 0 {
		t.Errorf("threshold = %v, want explicit 0", cfg.Retrieval.Threshold)
	}
	if cfg.Retrieval.MaxContextTokens != 0 {
		t.Errorf("max_context_tokens = %d, want explicit 0", cfg.Retrieval.MaxContextTokens)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("ARGOS_TEST_API_KEY", "sk-test-123")

	path := writeConfig(t, `
embedder:
  api_key: ${ARGOS_TEST_API_KEY}
  host: ${ARGOS_TEST_MISSING:-http://localhost:11434}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Embedder.APIKey != "sk-test-123" {
		t.Errorf("api_key = %q, want the expanded value", cfg.Embedder.APIKey)
	}
	if cfg.Embedder.Host != "http://localhost:11434" {
		t.Errorf("host = %q, want the default fallback", cfg.Embedder.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "chunking: [not: a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name:    "bad_log_level",
			yaml:    "logger:\n  level: loud\n",
			wantSub: "logger",
		},
		{
			name:    "overlap_not_below_size",
			yaml:    "chunking:\n  chunk_size: 100\n  chunk_overlap: 100\n",
			wantSub: "chunking",
		},
		{
			name:    "unknown_embedder",
			yaml:    "embedder:\n  provider: bedrock\n",
			wantSub: "embedder",
		},
		{
			name:    "unknown_store",
			yaml:    "store:\n  provider: faiss\n",
			wantSub: "store",
		},
		{
			name:    "bad_server_addr",
			yaml:    "server:\n  addr: not-an-addr\n",
			wantSub: "server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not name the %s section", err, tt.wantSub)
			}
		})
	}
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("ARGOS_TEST_VALUE", "hello")

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"${ARGOS_TEST_VALUE}", "hello"},
		{"$ARGOS_TEST_VALUE", "hello"},
		{"${ARGOS_TEST_UNSET}", ""},
		{"${ARGOS_TEST_UNSET:-fallback}", "fallback"},
		{"${ARGOS_TEST_VALUE:-fallback}", "hello"},
		{"prefix-${ARGOS_TEST_VALUE}-suffix", "prefix-hello-suffix"},
	}
	for _, tt := range tests {
		if got := expandEnvString(tt.in); got != tt.want {
			t.Errorf("expandEnvString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
