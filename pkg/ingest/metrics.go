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
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks one ingestion pass.
//
// Thread-safe for concurrent access during indexing.
type Metrics struct {
	// Counters
	discovered int64
	ignored    int64
	loaded     int64
	chunks     int64
	indexed    int64
	errors     int64

	// Timing
	startTime time.Time
	endTime   time.Time

	mu sync.RWMutex
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discovered = 0
	m.ignored = 0
	m.loaded = 0
	m.chunks = 0
	m.indexed = 0
	m.errors = 0
	m.startTime = time.Time{}
	m.endTime = time.Time{}
}

// SetStartTime sets the pass start time.
func (m *Metrics) SetStartTime(t time.Time) {
	m.mu.Lock()
	m.startTime = t
	m.mu.Unlock()
}

// SetEndTime sets the pass end time.
func (m *Metrics) SetEndTime(t time.Time) {
	m.mu.Lock()
	m.endTime = t
	m.mu.Unlock()
}

// AddDiscovered adds to the discovered entry count.
func (m *Metrics) AddDiscovered(n int64) {
	atomic.AddInt64(&m.discovered, n)
}

// AddIgnored adds to the ignored entry count.
func (m *Metrics) AddIgnored(n int64) {
	atomic.AddInt64(&m.ignored, n)
}

// AddLoaded adds to the loaded document count.
func (m *Metrics) AddLoaded(n int64) {
	atomic.AddInt64(&m.loaded, n)
}

// AddChunks adds to the produced chunk count.
func (m *Metrics) AddChunks(n int64) {
	atomic.AddInt64(&m.chunks, n)
}

// AddIndexed adds to the embedded-and-upserted chunk count.
func (m *Metrics) AddIndexed(n int64) {
	atomic.AddInt64(&m.indexed, n)
}

// IncrementErrors increments the error count.
func (m *Metrics) IncrementErrors() {
	atomic.AddInt64(&m.errors, 1)
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	indexed := atomic.LoadInt64(&m.indexed)

	var elapsed time.Duration
	var chunksPerSec float64

	if !m.startTime.IsZero() {
		endTime := m.endTime
		if endTime.IsZero() {
			endTime = time.Now()
		}
		elapsed = endTime.Sub(m.startTime)
		if secs := elapsed.Seconds(); secs > 0 {
			chunksPerSec = float64(indexed) / secs
		}
	}

	return MetricsSnapshot{
		Discovered:      atomic.LoadInt64(&m.discovered),
		Ignored:         atomic.LoadInt64(&m.ignored),
		Loaded:          atomic.LoadInt64(&m.loaded),
		Chunks:          atomic.LoadInt64(&m.chunks),
		Indexed:         indexed,
		Errors:          atomic.LoadInt64(&m.errors),
		ChunksPerSecond: chunksPerSec,
		StartTime:       m.startTime,
		EndTime:         m.endTime,
		Elapsed:         elapsed,
	}
}

// MetricsSnapshot is a point-in-time copy of metrics.
type MetricsSnapshot struct {
	Discovered      int64         `json:"discovered"`
	Ignored         int64         `json:"ignored"`
	Loaded          int64         `json:"loaded"`
	Chunks          int64         `json:"chunks"`
	Indexed         int64         `json:"indexed"`
	Errors          int64         `json:"errors"`
	ChunksPerSecond float64       `json:"chunks_per_second"`
	StartTime       time.Time     `json:"start_time,omitempty"`
	EndTime         time.Time     `json:"end_time,omitempty"`
	Elapsed         time.Duration `json:"elapsed_ns"`
}
