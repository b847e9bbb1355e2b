// Package respond maps domain errors onto the JSON error envelope.
package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
	"github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
	"github.com/zhouzirui/z-tongue/backend/pkg/utils"
)

const unavailable = "service temporarily unavailable"

// Status returns the HTTP status and the client-facing message for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, diagnosis.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, diagnosis.ErrStageOrder), errors.Is(err, diagnosis.ErrAlreadyCompleted):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ai.ErrInferenceTransport), errors.Is(err, ai.ErrInferenceFormat):
		return http.StatusServiceUnavailable, unavailable
	case errors.Is(err, recommend.ErrCatalog):
		return http.StatusServiceUnavailable, "product catalog unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, unavailable
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// Error writes the envelope for err. Server-side failures are logged.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, message := Status(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	utils.RespondError(w, status, message)
}
