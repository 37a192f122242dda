package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/repositories"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", payload.Message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", payload.Message)
	}
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	respondJSON(ctx, w, status, envelope{Success: true, Status: status, Message: message, Data: data})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, envelope{Success: false, Status: status, Message: message})
}

// respondStoreError maps repository and session sentinels onto the error
// taxonomy. Internal detail never reaches the client.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "resource already exists")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrSessionSuperseded):
		respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
	default:
		logging.FromContext(ctx).Error("store operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
