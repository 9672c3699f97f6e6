// Package handler exposes the messaging API over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/domain"
	"github.com/sparrowchat/sparrow/internal/observability"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.GetLogger(context.Background()).Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, domain.ErrBlocked):
		writeError(w, http.StatusForbidden, "blocked", "you are blocked by this user")
	case errors.Is(err, domain.ErrSelfMessage):
		writeError(w, http.StatusBadRequest, "self_message", "cannot message yourself")
	case errors.Is(err, domain.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", "message needs text or an image")
	case errors.Is(err, domain.ErrMessageTooLarge):
		writeError(w, http.StatusBadRequest, "message_too_large", "message text is too long")
	case errors.Is(err, domain.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, "invalid_message", "invalid message")
	default:
		observability.GetLogger(ctx).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
