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

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kadirpekel/argos/pkg/ignore"
)

// DefaultDebounce is the delay before a burst of file events triggers
// reindexing.
const DefaultDebounce = 500 * time.Millisecond

// Watcher keeps an index in sync with its root directory. Change
// bursts trigger a full re-ingest; pure deletions are removed from the
// store and catalog directly.
type Watcher struct {
	pipeline *Pipeline
	root     string
	spec     *ignore.Spec
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for root. A non-positive debounce
// selects the default.
func NewWatcher(pipeline *Pipeline, root string, debounce time.Duration) (*Watcher, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, NewIngestError("resolve", root, "failed to resolve path", err)
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrPathMissing, abs)
	}
	if err != nil {
		return nil, NewIngestError("stat", abs, "failed to stat path", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		pipeline: pipeline,
		root:     abs,
		spec:     ignore.BuildSpec(abs, pipeline.patterns),
		watcher:  fsw,
		debounce: debounce,
		logger:   slog.Default(),
	}, nil
}

// Run watches until ctx is canceled. Events are debounced and coalesced
// per path; processing happens in the watch loop, so one reindex pass
// finishes before the next burst is handled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	if err := w.setupWatching(); err != nil {
		return fmt.Errorf("failed to set up watching: %w", err)
	}
	w.logger.Info("Watching for changes", "root", w.root)

	pending := make(map[string]fsnotify.Event)
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			w.logger.Info("Stopped watching", "root", w.root)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			if w.shouldSkip(event.Name) {
				continue
			}

			// New directories join the watch immediately so files
			// created inside them are seen.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory",
							"path", event.Name, "error", err)
					}
				}
			}

			pending[event.Name] = event
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			events := pending
			pending = make(map[string]fsnotify.Event)
			w.processBatch(ctx, events)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", "root", w.root, "error", err)
		}
	}
}

// setupWatching adds the root and all non-excluded subdirectories to
// the watcher.
func (w *Watcher) setupWatching() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.shouldSkip(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// shouldSkip reports whether a path is outside the watch scope: the
// index directory itself or anything the exclusion spec matches.
func (w *Watcher) shouldSkip(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return true
	}
	rel = filepath.ToSlash(rel)

	if rel == IndexDirName || strings.HasPrefix(rel, IndexDirName+"/") {
		return true
	}

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}
	return w.spec.Match(rel, filepath.Base(path), isDir)
}

// processBatch handles one debounced burst. Any create or write means
// content changed, so the whole tree is re-ingested (the pass rebuilds
// the collection, which also covers mixed-in deletions). A burst of
// pure deletions is removed from the index directly.
func (w *Watcher) processBatch(ctx context.Context, events map[string]fsnotify.Event) {
	if len(events) == 0 {
		return
	}

	var removed []string
	reingest := false

	for path, event := range events {
		switch {
		case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
			reingest = true
		case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			if rel, err := filepath.Rel(w.root, path); err == nil {
				removed = append(removed, filepath.ToSlash(rel))
			}
		}
	}

	if reingest {
		w.logger.Info("Change detected, reindexing", "root", w.root, "events", len(events))
		if _, err := w.pipeline.Ingest(ctx, w.root); err != nil {
			w.logger.Error("Reindex failed", "root", w.root, "error", err)
		}
		return
	}

	for _, rel := range removed {
		w.removeSource(ctx, rel)
	}
}

// removeSource drops one deleted file's chunks and catalog row.
func (w *Watcher) removeSource(ctx context.Context, rel string) {
	filter := map[string]any{"source": rel}
	if err := w.pipeline.store.DeleteByFilter(ctx, w.pipeline.collection, filter); err != nil {
		w.logger.Warn("Failed to remove deleted file from index",
			"source", rel, "error", err)
		return
	}
	if w.pipeline.catalog != nil {
		if err := w.pipeline.catalog.DeleteBySource(ctx, rel); err != nil {
			w.logger.Warn("Failed to remove deleted file from catalog",
				"source", rel, "error", err)
		}
	}
	w.logger.Info("Removed deleted file from index", "source", rel)
}
