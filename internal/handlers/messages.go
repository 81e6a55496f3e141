package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/metrics"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
)

// MessageHandler provides the two-party messaging endpoints. All routes
// require authentication.
type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRouter registers messaging routes on the given router.
func MessageRouter(r chi.Router, handler *MessageHandler) {
	r.Post("/", handler.Send)
	r.Get("/conversations", handler.ListConversations)
	r.Get("/conversations/{conversationID}", handler.ListMessages)
}

type SendMessageRequest struct {
	RecipientID    string `json:"recipientId" validate:"required"`
	Text           string `json:"text" validate:"required"`
	ConversationID string `json:"conversationId"`
	RoomID         string `json:"roomId"`
}

// Send appends a message, creating a conversation when needed.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "recipientId and text are required")
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, req.RecipientID, req.ConversationID, req.RoomID, req.Text)
	if err != nil {
		writeServiceError(w, err, "failed to send message")
		return
	}

	metrics.MessagesSent.Inc()
	writeJSON(w, http.StatusCreated, msg)
}

// ListConversations returns the caller's conversations, most recent
// activity first.
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conversations, err := h.messageService.ListConversations(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// ListMessages returns a thread the caller participates in, oldest first.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	messages, err := h.messageService.ListMessages(r.Context(), conversationID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
