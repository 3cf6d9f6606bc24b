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

import (
	"strings"
	"unicode/utf8"
)

// recursiveSplitter splits on a separator cascade. Each level splits
// the text after its separator (so separator characters stay attached
// to the preceding segment), and only segments still longer than the
// chunk size fall through to the next, finer level. The resulting
// segments are packed greedily into chunks; when a chunk closes, up to
// ChunkOverlap characters of its tail seed the next chunk, taken as
// whole trailing segments when the boundaries line up.
type recursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

func newRecursiveSplitter(cfg Config) *recursiveSplitter {
	return &recursiveSplitter{
		size:       cfg.ChunkSize,
		overlap:    cfg.ChunkOverlap,
		separators: cfg.Separators,
	}
}

var _ Splitter = (*recursiveSplitter)(nil)

// segment is a contiguous byte span of the input text. Segments never
// overlap and concatenate back to the exact input.
type segment struct {
	start int
	end   int
	runes int
}

func (s *recursiveSplitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.size {
		return finalize([]segment{{0, len(text), 0}}, text)
	}
	segs := s.segments(text, 0, s.separators, nil)
	return finalize(s.pack(text, segs), text)
}

// segments recursively divides text into spans of at most s.size
// runes each. base is the byte offset of text within the original
// input. A span may exceed the size only when every separator level,
// including the cascade tail, fails to divide it.
func (s *recursiveSplitter) segments(text string, base int, seps []string, out []segment) []segment {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return out
	}
	if n <= s.size || len(seps) == 0 {
		return append(out, segment{base, base + len(text), n})
	}
	sep := seps[0]
	if sep == "" {
		return appendWindows(text, base, s.pieceSize(), out)
	}
	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		// Separator absent, fall through to the next level.
		return s.segments(text, base, seps[1:], out)
	}
	off := 0
	for _, part := range parts {
		if part == "" {
			continue
		}
		if pn := utf8.RuneCountInString(part); pn <= s.size {
			out = append(out, segment{base + off, base + off + len(part), pn})
		} else {
			out = s.segments(part, base+off, seps[1:], out)
		}
		off += len(part)
	}
	return out
}

// pieceSize is the window width for the raw-character cascade tail.
// Pieces no wider than the overlap keep the overlap reachable for
// unbroken runs, and no wider than size-overlap keep every chunk
// taking on fresh content.
func (s *recursiveSplitter) pieceSize() int {
	if s.overlap <= 0 {
		return s.size
	}
	p := s.overlap
	if r := s.size - s.overlap; r < p {
		p = r
	}
	if p < 1 {
		p = 1
	}
	return p
}

// appendWindows slices text into consecutive windows of exactly size
// runes (the last one possibly shorter).
func appendWindows(text string, base, size int, out []segment) []segment {
	count := 0
	winStart := 0
	for i := range text {
		if count == size {
			out = append(out, segment{base + winStart, base + i, size})
			winStart = i
			count = 0
		}
		count++
	}
	return append(out, segment{base + winStart, base + len(text), count})
}

// pack greedily merges consecutive segments into chunk spans of at
// most s.size runes and seeds each new chunk with the overlap tail of
// the one just closed.
func (s *recursiveSplitter) pack(text string, segs []segment) []segment {
	if len(segs) == 0 {
		return nil
	}
	var chunks []segment

	// buf holds the segments of the chunk being built. Its leading
	// fresh entries may be carry from the previous chunk; fresh counts
	// the segments appended since the last close.
	var buf []segment
	bufRunes := 0
	fresh := 0

	appendSeg := func(seg segment) {
		buf = append(buf, seg)
		bufRunes += seg.runes
		fresh++
	}
	closeChunk := func() segment {
		ch := segment{buf[0].start, buf[len(buf)-1].end, bufRunes}
		chunks = append(chunks, ch)
		return ch
	}
	// seedCarry resets buf to the overlap tail of the chunk just
	// closed, leaving room for a following segment of nextRunes runes.
	seedCarry := func(closed segment, nextRunes int) {
		tail := buf
		buf = nil
		bufRunes = 0
		fresh = 0
		if s.overlap <= 0 {
			return
		}
		budget := s.overlap
		if room := s.size - nextRunes; room < budget {
			budget = room
		}
		if budget <= 0 {
			return
		}
		carried := 0
		first := len(tail)
		for j := len(tail) - 1; j >= 0; j-- {
			if carried+tail[j].runes > budget {
				break
			}
			carried += tail[j].runes
			first = j
		}
		if first < len(tail) {
			buf = append(buf, tail[first:]...)
			bufRunes = carried
			fresh = 0
			return
		}
		// No whole trailing segment fits, fall back to a raw
		// character tail of the closed chunk.
		start, runes := tailRunes(text, closed.start, closed.end, budget)
		if runes > 0 {
			buf = append(buf, segment{start, closed.end, runes})
			bufRunes = runes
		}
	}

	for _, seg := range segs {
		if seg.runes > s.size {
			// Oversize segment: nothing below it can split further, so
			// it becomes a chunk of its own.
			if fresh > 0 {
				closeChunk()
			}
			buf = []segment{seg}
			bufRunes = seg.runes
			fresh = 1
			closed := closeChunk()
			seedCarry(closed, 0)
			continue
		}
		if bufRunes+seg.runes > s.size {
			if fresh > 0 {
				closed := closeChunk()
				seedCarry(closed, seg.runes)
			} else {
				// Pure carry already fills the budget, shed it from
				// the front until the segment fits.
				for len(buf) > 0 && bufRunes+seg.runes > s.size {
					bufRunes -= buf[0].runes
					buf = buf[1:]
				}
			}
		}
		appendSeg(seg)
	}
	if fresh > 0 {
		closeChunk()
	}
	return chunks
}

// tailRunes walks back at most budget runes from end, never crossing
// start, and returns the tail's byte offset and rune count.
func tailRunes(text string, start, end, budget int) (int, int) {
	pos := end
	runes := 0
	for runes < budget && pos > start {
		_, size := utf8.DecodeLastRuneInString(text[start:pos])
		if size == 0 {
			break
		}
		pos -= size
		runes++
	}
	return pos, runes
}

// finalize renders chunk spans into Chunks with content and indices.
func finalize(spans []segment, text string) []Chunk {
	out := make([]Chunk, 0, len(spans))
	for i, sp := range spans {
		out = append(out, Chunk{
			Content:   text[sp.start:sp.end],
			StartByte: sp.start,
			EndByte:   sp.end,
			Index:     i,
			Total:     len(spans),
		})
	}
	return out
}
