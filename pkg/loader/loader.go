// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loader reads collected files into text documents, rejecting
// binary, oversized, and undecodable content.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/kadirpekel/argos/pkg/scan"
)

// DefaultMaxFileSize is the per-file size cutoff (10 MiB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Document is a file whose content was successfully read as text.
// Immutable once created.
type Document struct {
	// ID is the stable content fingerprint: hex SHA-256 over the UTF-8
	// bytes of relative_path + "\n" + content. It changes when either
	// the path or the content changes.
	ID string

	// RelativePath is the POSIX path relative to the ingestion root.
	RelativePath string

	// Content is the full decoded text.
	Content string

	// Metadata carries size_bytes and extension; the splitter adds
	// chunk fields on top.
	Metadata map[string]any
}

// Config controls loading limits.
type Config struct {
	// MaxFileSize is the per-file byte cutoff. Zero selects the
	// default.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Loader reads file records into documents. Every rejection is
// silent: Load reports no document and the caller counts the skip.
type Loader struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewLoader creates a loader from config.
func NewLoader(cfg Config) *Loader {
	cfg.SetDefaults()
	return &Loader{
		maxFileSize: cfg.MaxFileSize,
		logger:      slog.Default(),
	}
}

// Load attempts to read one record into a document. Returns (nil,
// false) when the file is oversized, contains a NUL byte, is not
// valid UTF-8, or cannot be read.
func (l *Loader) Load(rec scan.FileRecord) (*Document, bool) {
	if rec.SizeBytes > l.maxFileSize {
		l.logger.Debug("skipping oversized file",
			"path", rec.RelativePath, "size", rec.SizeBytes, "limit", l.maxFileSize)
		return nil, false
	}

	data, err := os.ReadFile(rec.AbsolutePath)
	if err != nil {
		l.logger.Debug("skipping unreadable file", "path", rec.RelativePath, "error", err)
		return nil, false
	}
	// The size may have changed between stat and read.
	if int64(len(data)) > l.maxFileSize {
		l.logger.Debug("skipping oversized file",
			"path", rec.RelativePath, "size", len(data), "limit", l.maxFileSize)
		return nil, false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		l.logger.Debug("skipping binary file", "path", rec.RelativePath)
		return nil, false
	}
	if !utf8.Valid(data) {
		l.logger.Debug("skipping undecodable file", "path", rec.RelativePath)
		return nil, false
	}

	content := string(data)
	return &Document{
		ID:           DocumentID(rec.RelativePath, content),
		RelativePath: rec.RelativePath,
		Content:      content,
		Metadata: map[string]any{
			"size_bytes": int64(len(data)),
			"extension":  rec.Extension,
		},
	}, true
}

// LoadAll loads every record in order, returning the loaded documents
// and the count of rejected files.
func (l *Loader) LoadAll(ctx context.Context, records []scan.FileRecord) ([]*Document, int, error) {
	var docs []*Document
	rejected := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		doc, ok := l.Load(rec)
		if !ok {
			rejected++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rejected, nil
}

// DocumentID computes the stable identifier for a (path, content)
// pair. Two files with identical content but different paths get
// different identifiers.
func DocumentID(relativePath, content string) string {
	sum := sha256.Sum256([]byte(relativePath + "\n" + content))
	return hex.EncodeToString(sum[:])
}
