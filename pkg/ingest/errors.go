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

package ingest

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the CLI.
var (
	ErrPathMissing  = errors.New("path does not exist")
	ErrNotDirectory = errors.New("not a directory")
	ErrNoChunks     = errors.New("no chunks to index")
	ErrNoIndex      = errors.New("no index found")
)

// IngestError represents a pipeline stage failure.
type IngestError struct {
	Op      string // Stage that failed (e.g., "collect", "embed", "upsert")
	Path    string // File or directory if applicable
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	msg := fmt.Sprintf("[ingest] %s: %s", e.Op, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError.
func NewIngestError(op, path, message string, err error) *IngestError {
	return &IngestError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// StoreError represents an index store failure during ingestion.
type StoreError struct {
	Store      string // Store backend name
	Operation  string // Operation that failed
	Collection string // Collection involved
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("[%s] %s failed", e.Store, e.Operation)
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection: %s)", e.Collection)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(store, operation, collection string, err error) *StoreError {
	return &StoreError{
		Store:      store,
		Operation:  operation,
		Collection: collection,
		Err:        err,
	}
}
