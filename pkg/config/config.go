// Package config assembles the tool configuration from defaults, an
// optional YAML file, and environment variable expansion.
package config

import (
	"fmt"
	"net"

	"github.com/kadirpekel/argos/pkg/embedders"
	"github.com/kadirpekel/argos/pkg/ingest"
	"github.com/kadirpekel/argos/pkg/qa"
	"github.com/kadirpekel/argos/pkg/splitter"
	"github.com/kadirpekel/argos/pkg/vector"
)

// DefaultServerAddr is the local QA endpoint bind address.
const DefaultServerAddr = "127.0.0.1:8417"

// Config is the root configuration. Every section carries its own
// SetDefaults and Validate; the file is optional and overlays the
// defaults.
type Config struct {
	Logger    LoggerConfig     `yaml:"logger,omitempty"`
	Ingest    ingest.Config    `yaml:"ingest,omitempty"`
	Chunking  splitter.Config  `yaml:"chunking,omitempty"`
	Embedder  embedders.Config `yaml:"embedder,omitempty"`
	Store     vector.Config    `yaml:"store,omitempty"`
	Retrieval qa.Config        `yaml:"retrieval,omitempty"`
	Server    ServerConfig     `yaml:"server,omitempty"`
}

// ServerConfig configures the local QA HTTP endpoint.
type ServerConfig struct {
	// Addr is the host:port to bind.
	Addr string `yaml:"addr,omitempty"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultServerAddr
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid server addr %q: %w", c.Addr, err)
	}
	return nil
}

// DefaultConfig returns the complete default configuration. Loading a
// file overlays it, so fields whose zero value is a real setting
// (chunk overlap, similarity threshold, context budget) keep their
// defaults unless the file names them.
func DefaultConfig() Config {
	return Config{
		Logger:    LoggerConfig{Level: "info", Format: "simple"},
		Chunking:  splitter.DefaultConfig(),
		Retrieval: qa.DefaultConfig(),
		Server:    ServerConfig{Addr: DefaultServerAddr},
	}
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	c.Logger.SetDefaults()
	c.Ingest.SetDefaults()
	c.Chunking.SetDefaults()
	c.Embedder.SetDefaults()
	c.Store.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
