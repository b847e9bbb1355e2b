package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealthReportsAnalysisMode(t *testing.T) {
	resp := serve(New("z-tongue", func() bool { return false }), "/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Data struct {
			AIEnabled    bool   `json:"aiEnabled"`
			AnalysisMode string `json:"analysisMode"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.AIEnabled || body.Data.AnalysisMode != "fallback" {
		t.Fatalf("unexpected health payload: %+v", body.Data)
	}
}

func TestReadyFailsWhenACheckFails(t *testing.T) {
	ok := Check{Name: "sessions", Run: func(context.Context) error { return nil }}
	bad := Check{Name: "catalog", Run: func(context.Context) error { return errors.New("dial tcp: refused") }}

	if resp := serve(New("z-tongue", nil, ok), "/ready"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := serve(New("z-tongue", nil, ok, bad), "/ready"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestAlive(t *testing.T) {
	if resp := serve(New("z-tongue", nil), "/alive"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
