package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sparrowchat/sparrow/internal/domain"
	"github.com/sparrowchat/sparrow/internal/middleware"
	"github.com/sparrowchat/sparrow/internal/service"
)

var validate = validator.New()

// Messaging is the slice of the message service the HTTP layer needs.
type Messaging interface {
	Send(ctx context.Context, senderID, receiverID, text, image string) (*service.SendResult, error)
	GetConversation(ctx context.Context, userID, peerID string) (*service.Conversation, error)
	GetContacts(ctx context.Context, userID string) ([]*domain.Contact, error)
	GetRequests(ctx context.Context, userID string) ([]*domain.User, error)
	AcceptRequest(ctx context.Context, userID, senderID string) error
	Block(ctx context.Context, userID, targetID string) error
}

type MessageHandler struct {
	svc Messaging
}

func NewMessageHandler(svc Messaging) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type sendRequest struct {
	Text  string `json:"text" validate:"omitempty,max=5000"`
	Image string `json:"image" validate:"omitempty,startswith=data:"`
}

// Send POST /api/messages/send/{id}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID := middleware.UserID(r.Context())
	receiverID := chi.URLParam(r, "id")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := h.svc.Send(r.Context(), senderID, receiverID, req.Text, req.Image)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	if res.Queued {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pending": true,
			"message": "Message request sent. Waiting for approval.",
		})
		return
	}

	writeJSON(w, http.StatusCreated, res.Message)
}

// GetConversation GET /api/messages/{id}
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	peerID := chi.URLParam(r, "id")

	conv, err := h.svc.GetConversation(r.Context(), userID, peerID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages":         conv.Messages,
		"isRequestPending": conv.IsRequestPending,
	})
}

// GetContacts GET /api/messages/contacts
func (h *MessageHandler) GetContacts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	contacts, err := h.svc.GetContacts(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// GetRequests GET /api/messages/requests
func (h *MessageHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	users, err := h.svc.GetRequests(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// AcceptRequest POST /api/messages/accept/{id}
func (h *MessageHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	senderID := chi.URLParam(r, "id")

	if err := h.svc.AcceptRequest(r.Context(), userID, senderID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message request accepted"})
}

// Block PUT /api/messages/block/{id}
func (h *MessageHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	targetID := chi.URLParam(r, "id")

	if err := h.svc.Block(r.Context(), userID, targetID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User blocked successfully"})
}
