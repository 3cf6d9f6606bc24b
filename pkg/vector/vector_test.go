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

package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleDocs() []Document {
	return []Document{
		{
			ID:      "doc1_0",
			Content: "alpha content",
			Vector:  []float32{1, 0, 0},
			Metadata: map[string]any{
				"source":      "a.txt",
				"chunk_index": 0,
			},
		},
		{
			ID:      "doc2_0",
			Content: "beta content",
			Vector:  []float32{0, 1, 0},
			Metadata: map[string]any{
				"source":      "b.txt",
				"chunk_index": 0,
			},
		},
		{
			ID:      "doc1_1",
			Content: "gamma content",
			Vector:  []float32{0.7071, 0.7071, 0},
			Metadata: map[string]any{
				"source":      "a.txt",
				"chunk_index": 1,
			},
		},
	}
}

func TestChromemUpsertAndSearch(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "files", sampleDocs()))

	results, err := store.Search(ctx, "files", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "doc1_0", results[0].ID)
	assert.Equal(t, "alpha content", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 0.01)

	assert.Equal(t, "doc1_1", results[1].ID)
	assert.InDelta(t, 0.7071, results[1].Score, 0.01)

	// chromem stores metadata as strings.
	assert.Equal(t, "a.txt", results[0].Metadata["source"])
	assert.Equal(t, "0", results[0].Metadata["chunk_index"])
}

func TestChromemSearchClampsTopK(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "files", sampleDocs()[:2]))

	results, err := store.Search(ctx, "files", []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	store := memStore(t)

	results, err := store.Search(context.Background(), "nothing", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemUpsertNothing(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.Upsert(context.Background(), "files", nil))
}

func TestChromemDeleteByFilter(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "files", sampleDocs()))
	require.NoError(t, store.DeleteByFilter(ctx, "files", map[string]any{"source": "a.txt"}))

	count, err := store.Count(ctx, "files")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, "files", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc2_0", results[0].ID)
}

func TestChromemDeleteByFilterRequiresFilter(t *testing.T) {
	store := memStore(t)
	err := store.DeleteByFilter(context.Background(), "files", nil)
	require.Error(t, err)
}

func TestChromemDeleteCollection(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "files", sampleDocs()))
	require.NoError(t, store.DeleteCollection(ctx, "files"))

	count, err := store.Count(ctx, "files")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChromemPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(ChromemConfig{PersistPath: dir})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "files", sampleDocs()))
	require.NoError(t, store.Close())

	reopened, err := NewChromemStore(ChromemConfig{PersistPath: dir})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	count, err := reopened.Count(ctx, "files")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := reopened.Search(ctx, "files", []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc2_0", results[0].ID)
}

func TestNilStore(t *testing.T) {
	var store Store = NilStore{}
	ctx := context.Background()

	assert.NoError(t, store.Upsert(ctx, "x", sampleDocs()))

	results, err := store.Search(ctx, "x", []float32{1}, 5)
	assert.NoError(t, err)
	assert.Empty(t, results)

	count, err := store.Count(ctx, "x")
	assert.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, "nil", store.Name())
	assert.NoError(t, store.Close())
}

func TestFactory(t *testing.T) {
	store, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, NilStore{}, store)

	store, err = New(&Config{})
	require.NoError(t, err)
	assert.Equal(t, "chromem", store.Name())
	assert.NoError(t, store.Close())

	_, err = New(&Config{Provider: "pinecone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider type")
}
