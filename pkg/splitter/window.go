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

package splitter

import "unicode/utf8"

// windowSplitter slices fixed-size character windows advancing by
// ChunkSize-ChunkOverlap runes, ignoring text structure.
type windowSplitter struct {
	size    int
	overlap int
}

func newWindowSplitter(cfg Config) *windowSplitter {
	return &windowSplitter{size: cfg.ChunkSize, overlap: cfg.ChunkOverlap}
}

var _ Splitter = (*windowSplitter)(nil)

func (s *windowSplitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.size {
		return finalize([]segment{{0, len(text), 0}}, text)
	}

	// Rune start offsets, plus the terminating byte length, so window
	// boundaries index in O(1).
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	stride := s.size - s.overlap
	total := len(offsets) - 1

	var spans []segment
	for start := 0; ; start += stride {
		end := start + s.size
		if end >= total {
			spans = append(spans, segment{offsets[start], len(text), total - start})
			break
		}
		spans = append(spans, segment{offsets[start], offsets[end], s.size})
	}
	return finalize(spans, text)
}
