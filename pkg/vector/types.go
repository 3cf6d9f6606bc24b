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

// Package vector provides vector store backends for indexed chunks.
package vector

import "context"

// DefaultCollection is the collection name ingestion writes and
// retrieval reads for a folder index.
const DefaultCollection = "files"

// Document is one chunk with its pre-computed embedding, ready to be
// stored. Embedding happens upstream, stores never embed.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// Result is a similarity search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// Store persists embedded chunks and answers similarity queries.
type Store interface {
	// Upsert adds or replaces documents in a collection. Implementations
	// create the collection on first use.
	Upsert(ctx context.Context, collection string, docs []Document) error

	// Search returns the topK most similar documents, best first.
	// Fewer than topK documents in the collection yields all of them.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// DeleteByFilter removes all documents whose metadata matches
	// every filter entry.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error

	// DeleteCollection removes a collection and all its documents.
	DeleteCollection(ctx context.Context, collection string) error

	// Count reports how many documents a collection holds.
	Count(ctx context.Context, collection string) (int, error)

	// Name identifies the backend.
	Name() string

	Close() error
}

// NilStore discards writes and answers every query empty. It stands in
// for a real store on dry runs.
type NilStore struct{}

func (NilStore) Upsert(ctx context.Context, collection string, docs []Document) error {
	return nil
}

func (NilStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return nil, nil
}

func (NilStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	return nil
}

func (NilStore) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (NilStore) Count(ctx context.Context, collection string) (int, error) {
	return 0, nil
}

func (NilStore) Name() string { return "nil" }

func (NilStore) Close() error { return nil }

var _ Store = NilStore{}
