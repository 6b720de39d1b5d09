package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/config"
	"github.com/kotoba-ml/umekomi/internal/embedder"
	"github.com/kotoba-ml/umekomi/internal/store"
)

func testServer(t *testing.T, cache *store.Cache) *Server {
	t.Helper()
	s := NewServer(
		&config.ServerConfig{Host: "localhost", Port: 8080},
		cache,
		embedder.Options{UseMock: true},
		zap.NewNop(),
	)
	t.Cleanup(func() {
		if err := s.Stop(context.Background()); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return s
}

func postEmbed(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/embed", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleEmbed(t *testing.T) {
	s := testServer(t, nil)
	h := s.Routes()

	rec := postEmbed(t, h, `{"model":"mini_lm_v2","texts":["hello world","goodbye"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp embedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "mini_lm_v2" {
		t.Errorf("model = %q, want mini_lm_v2", resp.Model)
	}
	if resp.Dimensions != 384 {
		t.Errorf("dimensions = %d, want 384", resp.Dimensions)
	}
	if len(resp.Embeddings) != 2 {
		t.Fatalf("embeddings count = %d, want 2", len(resp.Embeddings))
	}
	for i, vec := range resp.Embeddings {
		if len(vec) != 384 {
			t.Errorf("embedding %d length = %d, want 384", i, len(vec))
		}
	}
}

func TestHandleEmbedDefaultsModel(t *testing.T) {
	s := testServer(t, nil)
	rec := postEmbed(t, s.Routes(), `{"texts":["hello"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp embedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Model != "mini_lm_v2" {
		t.Errorf("model = %q, want default mini_lm_v2", resp.Model)
	}
}

func TestHandleEmbedAliasSharesInstance(t *testing.T) {
	s := testServer(t, nil)
	h := s.Routes()

	for _, body := range []string{
		`{"model":"bert","texts":["hello"]}`,
		`{"model":"mini_lm","texts":["hello"]}`,
		`{"model":"mini_lm_v2","texts":["hello"]}`,
	} {
		if rec := postEmbed(t, h, body); rec.Code != http.StatusOK {
			t.Fatalf("status = %d for %s", rec.Code, body)
		}
	}

	s.mu.Lock()
	n := len(s.instances)
	s.mu.Unlock()
	if n != 1 {
		t.Errorf("open instances = %d, want 1 shared across aliases", n)
	}
}

func TestHandleEmbedErrors(t *testing.T) {
	s := testServer(t, nil)
	h := s.Routes()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{not json`, http.StatusBadRequest},
		{"empty texts", `{"model":"mini_lm_v2","texts":[]}`, http.StatusBadRequest},
		{"unknown model", `{"model":"gpt-7","texts":["hi"]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEmbed(t, h, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandleEmbedUsesCache(t *testing.T) {
	cache := store.NewCache(16, nil, nil)
	s := testServer(t, cache)
	h := s.Routes()

	first := postEmbed(t, h, `{"texts":["cached text"]}`)
	if first.Code != http.StatusOK {
		t.Fatal(first.Body.String())
	}
	if _, ok := cache.Get(context.Background(), "mini_lm_v2", "cached text"); !ok {
		t.Fatal("embedding not cached after request")
	}

	second := postEmbed(t, h, `{"texts":["cached text"]}`)
	if second.Code != http.StatusOK {
		t.Fatal(second.Body.String())
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached response differs from computed response")
	}
}

func TestHandleModels(t *testing.T) {
	s := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Models []modelInfo `json:"models"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Models) != 2 {
		t.Fatalf("models = %d, want 2", len(resp.Models))
	}
	byName := map[string]modelInfo{}
	for _, m := range resp.Models {
		byName[m.Name] = m
	}
	if byName["mini_lm_v2"].Dimensions != 384 {
		t.Errorf("mini_lm_v2 dimensions = %d, want 384", byName["mini_lm_v2"].Dimensions)
	}
	if byName["jina"].Dimensions != 768 {
		t.Errorf("jina dimensions = %d, want 768", byName["jina"].Dimensions)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}
