package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/middleware"
	"github.com/sparrowchat/sparrow/internal/observability"
	"github.com/sparrowchat/sparrow/internal/service"
)

// PresenceReader reports which users currently hold a live session.
// Backed by the shared presence store, not the in-process registry, so
// the answer holds across restarts and multiple instances.
type PresenceReader interface {
	Online(ctx context.Context) ([]string, error)
}

type UserHandler struct {
	svc      *service.UserService
	presence PresenceReader
}

func NewUserHandler(svc *service.UserService, presence PresenceReader) *UserHandler {
	return &UserHandler{svc: svc, presence: presence}
}

// Search GET /api/users/search?query=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	q := r.URL.Query().Get("query")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query parameter is required")
		return
	}

	users, err := h.svc.Search(r.Context(), userID, q)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Online GET /api/users/online. Lets a client seed its presence view
// before the first pushed snapshot arrives.
func (h *UserHandler) Online(w http.ResponseWriter, r *http.Request) {
	ids, err := h.presence.Online(r.Context())
	if err != nil {
		observability.GetLogger(r.Context()).Error("failed to read online users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ids)
}
