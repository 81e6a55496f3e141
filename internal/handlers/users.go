package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers profile routes on the given router. All routes
// require authentication.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/me", handler.Me)
	r.Put("/me", handler.UpdateMe)
}

// Me returns the caller's full profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name            *string                `json:"name"`
	Phone           *string                `json:"phone"`
	Gender          *string                `json:"gender"`
	Religion        *string                `json:"religion"`
	Languages       []string               `json:"languages"`
	Occupation      *string                `json:"occupation"`
	CityCurrent     *string                `json:"cityCurrent"`
	PreferredCities []string               `json:"preferredCities"`
	WorkSchedule    *string                `json:"workSchedule"`
	Preferences     *types.UserPreferences `json:"preferences"`
}

// UpdateMe applies a partial update to the caller's profile. Identity
// fields (email, role, verification flags) are not patchable here.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, services.UserProfilePatch{
		Name:            req.Name,
		Phone:           req.Phone,
		Gender:          req.Gender,
		Religion:        req.Religion,
		Languages:       req.Languages,
		Occupation:      req.Occupation,
		CityCurrent:     req.CityCurrent,
		PreferredCities: req.PreferredCities,
		WorkSchedule:    req.WorkSchedule,
		Preferences:     req.Preferences,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
