package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/storage"
)

// MediaHandler streams stored listing photos.
type MediaHandler struct {
	media *storage.Storage
}

func NewMediaHandler(media *storage.Storage) *MediaHandler {
	return &MediaHandler{media: media}
}

// MediaRouter registers the media streaming route on the given router.
func MediaRouter(r chi.Router, handler *MediaHandler) {
	r.Get("/*", handler.Get)
}

// Get streams the object stored under the requested key. Keys are opaque
// paths produced at upload time.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeError(w, http.StatusNotFound, "media storage is not enabled")
		return
	}

	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing media key")
		return
	}

	object, err := h.media.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	defer object.Close()

	if _, err := io.Copy(w, object); err != nil {
		// The response is already partially written; nothing to recover.
		return
	}
}
