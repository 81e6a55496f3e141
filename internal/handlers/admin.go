package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// AdminHandler provides the moderation surface. Every route requires an
// authenticated ADMIN subject.
type AdminHandler struct {
	userService     *services.UserService
	roomService     *services.RoomService
	feedbackService *services.FeedbackService
	adService       *services.AdService
}

func NewAdminHandler(userService *services.UserService, roomService *services.RoomService, feedbackService *services.FeedbackService, adService *services.AdService) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		roomService:     roomService,
		feedbackService: feedbackService,
		adService:       adService,
	}
}

// AdminRouter registers moderation routes on the given router.
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Get("/users", handler.ListUsers)
	r.Post("/users/{userID}/suspend", handler.SuspendUser)
	r.Get("/rooms", handler.ListRooms)
	r.Get("/feedback", handler.ListFeedback)
	r.Post("/ads", handler.CreateAd)
	r.Put("/ads/{adID}", handler.UpdateAd)
	r.Delete("/ads/{adID}", handler.DeleteAd)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.userService.Suspend(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to suspend user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *AdminHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackService.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type UpsertAdRequest struct {
	MediaURL  string            `json:"mediaUrl" validate:"required"`
	Type      types.AdMediaType `json:"type"`
	LinkURL   string            `json:"linkUrl" validate:"required"`
	Position  types.AdPosition  `json:"position" validate:"required"`
	Countries []string          `json:"countries"`
	Cities    []string          `json:"cities"`
	Active    bool              `json:"active"`
	StartAt   *time.Time        `json:"startAt"`
	EndAt     *time.Time        `json:"endAt"`
}

func (h *AdminHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req UpsertAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	created, err := h.adService.Create(r.Context(), types.Ad{
		MediaURL:  req.MediaURL,
		Type:      req.Type,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		Countries: req.Countries,
		Cities:    req.Cities,
		Active:    req.Active,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create ad")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type PatchAdRequest struct {
	MediaURL  *string            `json:"mediaUrl"`
	Type      *types.AdMediaType `json:"type"`
	LinkURL   *string            `json:"linkUrl"`
	Position  *types.AdPosition  `json:"position"`
	Countries *[]string          `json:"countries"`
	Cities    *[]string          `json:"cities"`
	Active    *bool              `json:"active"`
	StartAt   *time.Time         `json:"startAt"`
	EndAt     *time.Time         `json:"endAt"`
}

func (h *AdminHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	var req PatchAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	adID := chi.URLParam(r, "adID")
	updated, err := h.adService.Update(r.Context(), adID, services.AdPatch{
		MediaURL:  req.MediaURL,
		Type:      req.Type,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		Countries: req.Countries,
		Cities:    req.Cities,
		Active:    req.Active,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ad not found")
			return
		}
		writeServiceError(w, err, "failed to update ad")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	adID := chi.URLParam(r, "adID")
	if err := h.adService.Delete(r.Context(), adID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ad not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete ad")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
