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

package vector

import "fmt"

// ProviderType identifies a vector store implementation.
type ProviderType string

const (
	// ProviderChromem uses chromem-go for embedded vector storage.
	// Zero-config, persists inside the index directory. The default.
	ProviderChromem ProviderType = "chromem"

	// ProviderQdrant uses an external Qdrant server over gRPC.
	ProviderQdrant ProviderType = "qdrant"
)

// Config selects and configures a vector store.
type Config struct {
	// Provider identifies which store to create.
	Provider ProviderType `yaml:"provider,omitempty"`

	// Path is the persistence directory for the embedded store.
	// Empty keeps vectors in memory only.
	Path string `yaml:"path,omitempty"`

	// Compress gzips the embedded store's persisted file.
	Compress bool `yaml:"compress,omitempty"`

	// Qdrant configuration (used when Provider == "qdrant").
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderChromem
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderChromem:
		return nil
	case ProviderQdrant:
		return nil
	case "":
		return fmt.Errorf("provider type is required")
	default:
		return fmt.Errorf("unknown provider type: %q", c.Provider)
	}
}

// New creates a vector store from configuration. A nil config yields
// a NilStore.
func New(cfg *Config) (Store, error) {
	if cfg == nil {
		return NilStore{}, nil
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderChromem:
		return NewChromemStore(ChromemConfig{
			PersistPath: cfg.Path,
			Compress:    cfg.Compress,
		})

	case ProviderQdrant:
		qdrantCfg := QdrantConfig{}
		if cfg.Qdrant != nil {
			qdrantCfg = *cfg.Qdrant
		}
		return NewQdrantStore(qdrantCfg)

	default:
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Provider)
	}
}
