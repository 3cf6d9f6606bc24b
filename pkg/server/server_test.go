package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kadirpekel/argos/pkg/config"
	"github.com/kadirpekel/argos/pkg/qa"
	"github.com/kadirpekel/argos/pkg/vector"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

func (stubEmbedder) GetDimension() int    { return 3 }
func (stubEmbedder) GetModelName() string { return "stub" }
func (stubEmbedder) Close() error         { return nil }

// stubStore serves canned results and records the requested topK.
type stubStore struct {
	results  []vector.Result
	err      error
	lastTopK int
}

func (s *stubStore) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	return nil
}

func (s *stubStore) Search(ctx context.Context, collection string, vec []float32, topK int) ([]vector.Result, error) {
	s.lastTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	return nil
}

func (s *stubStore) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (s *stubStore) Count(ctx context.Context, collection string) (int, error) {
	return len(s.results), nil
}

func (s *stubStore) Name() string { return "stub" }
func (s *stubStore) Close() error { return nil }

var _ vector.Store = (*stubStore)(nil)

func newTestHandler(t *testing.T, store vector.Store) http.Handler {
	t.Helper()
	engine, err := qa.NewEngine(stubEmbedder{}, store, qa.Config{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	srv, err := New(engine, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string, wantCode int) []byte {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != wantCode {
		t.Errorf("%s %s: status = %d, want %d (body: %s)", method, path, w.Code, wantCode, w.Body.String())
	}
	return w.Body.Bytes()
}

func TestNewRequiresEngine(t *testing.T) {
	if _, err := New(nil, ""); err == nil {
		t.Error("New() expected error for nil engine")
	}
}

func TestNewDefaultsAddr(t *testing.T) {
	engine, err := qa.NewEngine(stubEmbedder{}, &stubStore{}, qa.Config{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	srv, err := New(engine, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != config.DefaultServerAddr {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), config.DefaultServerAddr)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, &stubStore{})

	body := doRequest(t, handler, http.MethodGet, "/healthz", "", http.StatusOK)

	var resp map[string]string
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestAsk(t *testing.T) {
	store := &stubStore{
		results: []vector.Result{
			{ID: "a_0", Score: 0.9, Content: "alpha content", Metadata: map[string]any{"source": "a.txt"}},
			{ID: "b_0", Score: 0.8, Content: "beta content", Metadata: map[string]any{"source": "notes/b.md"}},
		},
	}
	handler := newTestHandler(t, store)

	body := doRequest(t, handler, http.MethodPost, "/ask", `{"question":"what is alpha?"}`, http.StatusOK)

	var resp AskResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Answer != qa.PlaceholderAnswer {
		t.Errorf("answer = %q, want the placeholder", resp.Answer)
	}
	if len(resp.Citations) != 2 || resp.Citations[0] != "a.txt" || resp.Citations[1] != "notes/b.md" {
		t.Errorf("citations = %v", resp.Citations)
	}
	if len(resp.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(resp.Chunks))
	}
	first := resp.Chunks[0]
	if first.Source != "a.txt" || first.Content != "alpha content" || first.Score != 0.9 {
		t.Errorf("first chunk = %+v", first)
	}
}

func TestAskHonorsK(t *testing.T) {
	store := &stubStore{}
	handler := newTestHandler(t, store)

	doRequest(t, handler, http.MethodPost, "/ask", `{"question":"q","k":2}`, http.StatusOK)
	if store.lastTopK != 2 {
		t.Errorf("topK = %d, want 2", store.lastTopK)
	}

	doRequest(t, handler, http.MethodPost, "/ask", `{"question":"q"}`, http.StatusOK)
	if store.lastTopK != qa.DefaultTopK {
		t.Errorf("topK = %d, want the default %d", store.lastTopK, qa.DefaultTopK)
	}
}

func TestAskRejectsBadInput(t *testing.T) {
	handler := newTestHandler(t, &stubStore{})

	t.Run("blank_question", func(t *testing.T) {
		body := doRequest(t, handler, http.MethodPost, "/ask", `{"question":"   "}`, http.StatusBadRequest)
		var resp map[string]string
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("invalid_json", func(t *testing.T) {
		doRequest(t, handler, http.MethodPost, "/ask", `{not json`, http.StatusBadRequest)
	})
}

func TestAskSearchFailure(t *testing.T) {
	store := &stubStore{err: context.DeadlineExceeded}
	handler := newTestHandler(t, store)

	body := doRequest(t, handler, http.MethodPost, "/ask", `{"question":"q"}`, http.StatusInternalServerError)

	var resp map[string]string
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.Contains(resp["error"], "query failed") {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestAskMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, &stubStore{})
	doRequest(t, handler, http.MethodGet, "/ask", "", http.StatusMethodNotAllowed)
}
