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

// Package scan walks a folder tree and produces the deterministic,
// filtered list of files considered for ingestion.
package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kadirpekel/argos/pkg/ignore"
)

// FileRecord is one discovered filesystem entry considered for
// loading. Records are immutable once produced.
type FileRecord struct {
	// AbsolutePath is the resolved path on disk.
	AbsolutePath string

	// RelativePath is the POSIX-style path relative to the traversal
	// root. Unique within one collection run; the collector's output
	// is sorted by it.
	RelativePath string

	// SizeBytes is the file size at stat time.
	SizeBytes int64

	// Extension is the lowercased file extension including the leading
	// dot, or "" when the name has none.
	Extension string
}

// Collector walks one root directory applying an exclusion spec.
type Collector struct {
	root   string
	spec   *ignore.Spec
	logger *slog.Logger
}

// NewCollector creates a collector for the given root. A nil spec
// compiles the defaults plus any .gitignore found at the root.
func NewCollector(root string, spec *ignore.Spec) *Collector {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if spec == nil {
		spec = ignore.BuildSpec(root, nil)
	}
	return &Collector{
		root:   root,
		spec:   spec,
		logger: slog.Default(),
	}
}

// Collect walks the tree and returns the sorted file records plus the
// count of skipped entries. Skips are silent: excluded entries,
// unlistable directories, and unstattable files each increment the
// count and traversal continues. A root that does not exist or is not
// a directory yields an empty result with zero skipped.
func (c *Collector) Collect(ctx context.Context) ([]FileRecord, int, error) {
	info, err := os.Stat(c.root)
	if err != nil || !info.IsDir() {
		return nil, 0, nil
	}

	var records []FileRecord
	ignored := 0
	stack := []string{c.root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// os.ReadDir returns entries sorted by name.
		entries, err := os.ReadDir(current)
		if err != nil {
			ignored++
			c.logger.Debug("skipping unreadable directory", "path", current, "error", err)
			continue
		}

		var dirs []string
		for _, entry := range entries {
			name := entry.Name()
			abs := filepath.Join(current, name)
			rel := c.relativePath(abs)
			isDir := entry.IsDir()

			if c.spec.Match(rel, name, isDir) {
				ignored++
				continue
			}
			if isDir {
				dirs = append(dirs, abs)
				continue
			}
			// Symlinks, sockets and other irregular entries are
			// dropped without counting.
			if !entry.Type().IsRegular() {
				continue
			}

			fi, err := entry.Info()
			if err != nil {
				ignored++
				continue
			}

			records = append(records, FileRecord{
				AbsolutePath: abs,
				RelativePath: rel,
				SizeBytes:    fi.Size(),
				Extension:    fileExt(name),
			})
		}

		// Push in reverse so directories pop in name order.
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RelativePath < records[j].RelativePath
	})

	c.logger.Debug("collection finished",
		"root", c.root,
		"files", len(records),
		"ignored", ignored)

	return records, ignored, nil
}

// Root returns the resolved traversal root.
func (c *Collector) Root() string {
	return c.root
}

func (c *Collector) relativePath(abs string) string {
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}

// fileExt returns the lowercased extension with its leading dot.
// Dotfiles such as ".env" have no extension.
func fileExt(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return strings.ToLower(ext)
}
