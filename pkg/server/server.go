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

// Package server exposes question answering over a built index as a
// local HTTP endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/argos/pkg/config"
	"github.com/kadirpekel/argos/pkg/qa"
)

// AskRequest is the POST /ask body.
type AskRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

// ChunkPayload is one retrieved context chunk in an AskResponse.
type ChunkPayload struct {
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
}

// AskResponse is the POST /ask reply.
type AskResponse struct {
	Answer    string         `json:"answer"`
	Citations []string       `json:"citations"`
	Chunks    []ChunkPayload `json:"chunks"`
}

// Server answers questions over HTTP using a qa.Engine.
type Server struct {
	addr   string
	engine *qa.Engine
	server *http.Server
}

// New creates a server for the engine. An empty addr falls back to the
// default local address.
func New(engine *qa.Engine, addr string) (*Server, error) {
	if engine == nil {
		return nil, errors.New("qa engine is required")
	}
	if addr == "" {
		addr = config.DefaultServerAddr
	}
	return &Server{
		addr:   addr,
		engine: engine,
	}, nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/ask", s.handleAsk)

	return r
}

// Start runs the server until it fails or ctx is canceled, then shuts
// it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("http server starting", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("http server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.engine.Ask(r.Context(), req.Question, req.K)
	if err != nil {
		var queryErr *qa.QueryError
		if errors.As(err, &queryErr) && queryErr.Op == "validate" {
			writeError(w, http.StatusBadRequest, queryErr.Message)
			return
		}
		slog.Error("ask failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed: "+err.Error())
		return
	}

	resp := AskResponse{
		Answer:    answer.Text,
		Citations: answer.Citations,
		Chunks:    make([]ChunkPayload, 0, len(answer.Chunks)),
	}
	for _, chunk := range answer.Chunks {
		resp.Chunks = append(resp.Chunks, ChunkPayload{
			Source:  qa.Source(chunk),
			Score:   chunk.Score,
			Content: chunk.Content,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
