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

package splitter

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kadirpekel/argos/pkg/loader"
)

func newSplitter(t *testing.T, strategy Strategy, size, overlap int) Splitter {
	t.Helper()
	s, err := New(Config{Strategy: strategy, ChunkSize: size, ChunkOverlap: overlap})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// checkIntegrity verifies the structural guarantees every splitter
// upholds: chunks are literal slices of the input, in order, and
// concatenating them with overlaps removed reproduces the input.
func checkIntegrity(t *testing.T, text string, chunks []Chunk, overlap int) {
	t.Helper()
	if len(chunks) == 0 {
		if text != "" {
			t.Fatalf("no chunks for non-empty text")
		}
		return
	}
	if chunks[0].StartByte != 0 {
		t.Errorf("first chunk starts at byte %d, want 0", chunks[0].StartByte)
	}
	if last := chunks[len(chunks)-1]; last.EndByte != len(text) {
		t.Errorf("last chunk ends at byte %d, want %d", last.EndByte, len(text))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has Index %d", i, ch.Index)
		}
		if ch.Total != len(chunks) {
			t.Errorf("chunk %d has Total %d, want %d", i, ch.Total, len(chunks))
		}
		if ch.Content != text[ch.StartByte:ch.EndByte] {
			t.Errorf("chunk %d content does not match its byte range", i)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if ch.StartByte > prev.EndByte {
			t.Errorf("gap before chunk %d: starts at %d, previous ends at %d",
				i, ch.StartByte, prev.EndByte)
		}
		if ch.EndByte <= prev.EndByte {
			t.Errorf("chunk %d does not advance past chunk %d", i, i-1)
		}
		if got := utf8.RuneCountInString(text[ch.StartByte:prev.EndByte]); got > overlap {
			t.Errorf("chunk %d overlaps previous by %d runes, limit %d", i, got, overlap)
		}
	}
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(text[chunks[i-1].EndByte:chunks[i].EndByte])
	}
	if rebuilt.String() != text {
		t.Errorf("chunks do not reconstruct the input")
	}
}

func chunkContents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Content
	}
	return out
}

func TestRecursiveEmptyText(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 2)
	if got := s.Split(""); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
}

func TestRecursiveShortText(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 1000, 200)
	chunks := s.Split("hello world")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	ch := chunks[0]
	if ch.Content != "hello world" || ch.Index != 0 || ch.Total != 1 {
		t.Errorf("unexpected chunk: %+v", ch)
	}
	if ch.StartByte != 0 || ch.EndByte != len("hello world") {
		t.Errorf("unexpected byte range: [%d, %d)", ch.StartByte, ch.EndByte)
	}
}

func TestRecursiveSplitsAtParagraphs(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 0)
	text := "aaaa\n\nbbbb\n\ncccc"
	chunks := s.Split(text)
	want := []string{"aaaa\n\n", "bbbb\n\ncccc"}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 0)
}

func TestRecursiveCarriesWholeSegments(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 5)
	text := "aa bb cc dd ee"
	chunks := s.Split(text)
	want := []string{"aa bb cc ", "cc dd ee"}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 5)
}

func TestRecursiveTruncatesCarryWhenSegmentTooBig(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 2)
	text := "aa bb cc dd ee"
	chunks := s.Split(text)
	want := []string{"aa bb cc ", "c dd ee"}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 2)
}

func TestRecursiveUnbrokenRunWithOverlap(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 3)
	text := strings.Repeat("x", 25)
	chunks := s.Split(text)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4: %q", len(chunks), chunkContents(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > 10 {
			t.Errorf("chunk %d has %d runes, limit 10", i, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		if got := chunks[i-1].EndByte - chunks[i].StartByte; got != 3 {
			t.Errorf("overlap before chunk %d is %d, want 3", i, got)
		}
	}
	checkIntegrity(t, text, chunks, 3)
}

func TestRecursiveUnbrokenRunNoOverlap(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 10, 0)
	text := strings.Repeat("x", 25)
	chunks := s.Split(text)
	want := []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 5),
	}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 0)
}

func TestRecursiveMultibyteRunes(t *testing.T) {
	s := newSplitter(t, StrategyRecursive, 5, 2)
	text := strings.Repeat("é", 12)
	chunks := s.Split(text)
	if len(chunks) != 5 {
		t.Fatalf("got %d chunks, want 5: %q", len(chunks), chunkContents(chunks))
	}
	for i, ch := range chunks {
		if ch.Content != "éééé" {
			t.Errorf("chunk %d = %q, want %q", i, ch.Content, "éééé")
		}
	}
	checkIntegrity(t, text, chunks, 2)
}

func TestRecursiveOversizeAtomWithoutRawFallback(t *testing.T) {
	s, err := New(Config{
		Strategy:     StrategyRecursive,
		ChunkSize:    10,
		ChunkOverlap: 1,
		Separators:   []string{"\n\n", "\n"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "word word word word\n\nshort"
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunkContents(chunks))
	}
	// The first line cannot be divided by the configured separators,
	// so it exceeds the target on its own.
	if got := chunks[0].Content; got != "word word word word\n" {
		t.Errorf("chunk 0 = %q", got)
	}
	checkIntegrity(t, text, chunks, 20)
}

func TestRecursiveProseProperties(t *testing.T) {
	var b strings.Builder
	for p := 0; p < 40; p++ {
		for w := 0; w < 30; w++ {
			fmt.Fprintf(&b, "word%d-%d ", p, w)
		}
		b.WriteString("\n\n")
	}
	text := b.String()

	s := newSplitter(t, StrategyRecursive, 200, 40)
	chunks := s.Split(text)
	if len(chunks) < 10 {
		t.Fatalf("got %d chunks, expected many", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > 200 {
			t.Errorf("chunk %d has %d runes, limit 200", i, n)
		}
	}
	checkIntegrity(t, text, chunks, 40)

	again := s.Split(text)
	if !reflect.DeepEqual(chunks, again) {
		t.Errorf("splitting is not deterministic")
	}
}

func TestWindowStrategy(t *testing.T) {
	s := newSplitter(t, StrategyWindow, 10, 3)
	text := strings.Repeat("x", 25)
	chunks := s.Split(text)
	want := []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 4),
	}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 3)
}

func TestWindowStrategyMultibyte(t *testing.T) {
	s := newSplitter(t, StrategyWindow, 5, 2)
	text := strings.Repeat("é", 12)
	chunks := s.Split(text)
	want := []string{"ééééé", "ééééé", "ééééé", "ééé"}
	if got := chunkContents(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	checkIntegrity(t, text, chunks, 2)
}

func TestWindowShortAndEmpty(t *testing.T) {
	s := newSplitter(t, StrategyWindow, 10, 3)
	if got := s.Split(""); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
	chunks := s.Split("short")
	if len(chunks) != 1 || chunks[0].Content != "short" {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestSplitDocument(t *testing.T) {
	doc := &loader.Document{
		ID:           "abc123",
		RelativePath: "notes/a.md",
		Content:      "aa bb cc dd ee",
		Metadata: map[string]any{
			"extension":  ".md",
			"size_bytes": int64(14),
		},
	}
	s := newSplitter(t, StrategyRecursive, 10, 5)
	chunks := SplitDocument(s, doc)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, ch := range chunks {
		wantID := fmt.Sprintf("abc123_%d", i)
		if ch.ID != wantID {
			t.Errorf("chunk %d ID = %q, want %q", i, ch.ID, wantID)
		}
		if ch.Source != "notes/a.md" {
			t.Errorf("chunk %d Source = %q", i, ch.Source)
		}
		if ch.Total != 2 {
			t.Errorf("chunk %d Total = %d", i, ch.Total)
		}
		if got := ch.Metadata["source"]; got != "notes/a.md" {
			t.Errorf("chunk %d metadata source = %v", i, got)
		}
		if got := ch.Metadata["chunk_index"]; got != i {
			t.Errorf("chunk %d metadata chunk_index = %v", i, got)
		}
		if got := ch.Metadata["total_chunks"]; got != 2 {
			t.Errorf("chunk %d metadata total_chunks = %v", i, got)
		}
		if got := ch.Metadata["extension"]; got != ".md" {
			t.Errorf("chunk %d metadata extension = %v", i, got)
		}
	}
	if _, ok := doc.Metadata["source"]; ok {
		t.Errorf("parent document metadata was mutated")
	}
}

func TestSplitDocumentsOrder(t *testing.T) {
	docs := []*loader.Document{
		{ID: "d1", RelativePath: "a.txt", Content: "first"},
		{ID: "d2", RelativePath: "b.txt", Content: ""},
		{ID: "d3", RelativePath: "c.txt", Content: "third"},
	}
	s := newSplitter(t, StrategyRecursive, 100, 10)
	chunks := SplitDocuments(s, docs)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != "d1_0" || chunks[1].ID != "d3_0" {
		t.Errorf("unexpected chunk order: %q, %q", chunks[0].ID, chunks[1].ID)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero size", Config{Strategy: StrategyRecursive, ChunkSize: -1, ChunkOverlap: 0}, true},
		{"negative overlap", Config{Strategy: StrategyRecursive, ChunkSize: 10, ChunkOverlap: -1}, true},
		{"overlap equals size", Config{Strategy: StrategyRecursive, ChunkSize: 10, ChunkOverlap: 10}, true},
		{"unknown strategy", Config{Strategy: "semantic", ChunkSize: 10, ChunkOverlap: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{Strategy: "semantic"}); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
	if _, err := New(Config{ChunkSize: 10, ChunkOverlap: 12}); err == nil {
		t.Fatalf("expected error for overlap larger than size")
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.Strategy != StrategyRecursive {
		t.Errorf("Strategy = %q", cfg.Strategy)
	}
	if cfg.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 0 {
		t.Errorf("ChunkOverlap = %d, explicit zero must survive", cfg.ChunkOverlap)
	}
	if !reflect.DeepEqual(cfg.Separators, DefaultSeparators()) {
		t.Errorf("Separators = %q", cfg.Separators)
	}
	if def := DefaultConfig(); def.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("DefaultConfig overlap = %d", def.ChunkOverlap)
	}
}
