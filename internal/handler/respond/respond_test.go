package respond

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
	"github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("lookup: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: imageData is required", diagnosis.ErrValidation), http.StatusBadRequest},
		{diagnosis.ErrStageOrder, http.StatusConflict},
		{diagnosis.ErrAlreadyCompleted, http.StatusConflict},
		{fmt.Errorf("%w: dial tcp", ai.ErrInferenceTransport), http.StatusServiceUnavailable},
		{ai.ErrInferenceFormat, http.StatusServiceUnavailable},
		{recommend.ErrCatalog, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatusHidesInferenceDetails(t *testing.T) {
	_, msg := Status(fmt.Errorf("%w: api key sk-secret rejected", ai.ErrInferenceTransport))
	if msg != "service temporarily unavailable" {
		t.Fatalf("unexpected message %q", msg)
	}
}
