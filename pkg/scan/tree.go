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

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kadirpekel/argos/pkg/ignore"
)

// RenderTree renders the folder as a connector-drawn text tree with
// excluded entries pruned. Directories sort before files. maxDepth <= 0
// means unlimited.
func RenderTree(root string, spec *ignore.Spec, maxDepth int) (string, error) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", root)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", root)
	}
	if spec == nil {
		spec = ignore.BuildSpec(root, nil)
	}

	var sb strings.Builder
	sb.WriteString(filepath.Base(root) + "/")
	buildTree(&sb, root, root, "", spec, maxDepth, 0)
	return sb.String(), nil
}

func buildTree(sb *strings.Builder, root, dir, prefix string, spec *ignore.Spec, maxDepth, depth int) {
	if maxDepth > 0 && depth >= maxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type node struct {
		name  string
		isDir bool
		abs   string
	}
	var nodes []node
	for _, entry := range entries {
		abs := filepath.Join(dir, entry.Name())
		rel, rerr := filepath.Rel(root, abs)
		if rerr != nil {
			rel = entry.Name()
		}
		if spec.Match(filepath.ToSlash(rel), entry.Name(), entry.IsDir()) {
			continue
		}
		nodes = append(nodes, node{name: entry.Name(), isDir: entry.IsDir(), abs: abs})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].isDir != nodes[j].isDir {
			return nodes[i].isDir
		}
		return nodes[i].name < nodes[j].name
	})

	for i, n := range nodes {
		last := i == len(nodes)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		name := n.name
		if n.isDir {
			name += "/"
		}
		sb.WriteString("\n" + prefix + connector + name)

		if n.isDir {
			buildTree(sb, root, n.abs, childPrefix, spec, maxDepth, depth+1)
		}
	}
}
