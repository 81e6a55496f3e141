package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/metrics"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/types"
)

// FeedbackHandler provides rating submission and lookup endpoints.
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackRouter registers feedback routes on the given router. Submission
// requires authentication; reads are public.
func FeedbackRouter(r chi.Router, handler *FeedbackHandler, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/", handler.Submit)
	r.Get("/rooms/{roomID}", handler.ListByRoom)
	r.Get("/users/{userID}", handler.ListByUser)
}

type SubmitFeedbackRequest struct {
	ToUserID  string     `json:"toUserId"`
	RoomID    string     `json:"roomId"`
	Rating    int        `json:"rating" validate:"required"`
	Comment   string     `json:"comment"`
	StayStart *time.Time `json:"stayStart"`
	StayEnd   *time.Time `json:"stayEnd"`
}

// Submit records a rating against a user, a room, or both.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.feedbackService.Submit(r.Context(), user.ID, types.Feedback{
		ToUserID:  req.ToUserID,
		RoomID:    req.RoomID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		StayStart: req.StayStart,
		StayEnd:   req.StayEnd,
	})
	if err != nil {
		writeServiceError(w, err, "failed to submit feedback")
		return
	}

	metrics.FeedbackSubmitted.Inc()
	writeJSON(w, http.StatusCreated, created)
}

// ListByRoom returns all feedback recorded against a listing.
func (h *FeedbackHandler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	items, err := h.feedbackService.ListByRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListByUser returns all feedback recorded against a user.
func (h *FeedbackHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	items, err := h.feedbackService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
