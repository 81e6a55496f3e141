package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// AdHandler provides the public ad delivery endpoints. Callers may be
// anonymous; an optional anonymous id ties clicks together.
type AdHandler struct {
	adService *services.AdService
}

func NewAdHandler(adService *services.AdService) *AdHandler {
	return &AdHandler{adService: adService}
}

// AdRouter registers ad delivery routes on the given router.
func AdRouter(r chi.Router, handler *AdHandler) {
	r.Get("/", handler.ListActive)
	r.Post("/{adID}/click", handler.Click)
}

// ListActive returns the ads eligible for a placement slot and geography.
// An absent position matches every slot.
func (h *AdHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	position := types.AdPosition(strings.TrimSpace(query.Get("position")))

	ads, err := h.adService.ListActive(r.Context(), position, strings.TrimSpace(query.Get("country")), strings.TrimSpace(query.Get("city")))
	if err != nil {
		writeServiceError(w, err, "failed to list ads")
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// Click records an ad click for analytics.
func (h *AdHandler) Click(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	adID := chi.URLParam(r, "adID")

	err := h.adService.Click(r.Context(), adID, strings.TrimSpace(query.Get("anonId")), strings.TrimSpace(query.Get("country")), strings.TrimSpace(query.Get("city")))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ad not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record click")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
