package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/apiserver/internal/metrics"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxPhotoBytes      = 16 << 20
	formFieldPhoto     = "photo"
)

// RoomHandler provides HTTP handlers for listings.
type RoomHandler struct {
	roomService *services.RoomService
}

func NewRoomHandler(roomService *services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// RoomRouter registers listing routes on the given router. Search and
// detail are public; mutations require authentication.
func RoomRouter(r chi.Router, handler *RoomHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.Search)
	r.With(authMiddleware).Post("/", handler.Create)
	r.With(authMiddleware).Get("/mine", handler.MyRooms)
	r.Route("/{roomID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(authMiddleware).Put("/", handler.Update)
		r.With(authMiddleware).Delete("/", handler.Archive)
		r.With(authMiddleware).Post("/photos", handler.UploadPhoto)
	})
}

// Search returns one page of ACTIVE listings matching the query filters.
func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRoomFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, pageSize := parsePagination(r)
	result, err := h.roomService.Search(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search rooms")
		return
	}

	metrics.SearchQueries.Inc()
	writeJSON(w, http.StatusOK, result)
}

type CreateRoomRequest struct {
	Country           string                 `json:"country" validate:"required"`
	City              string                 `json:"city" validate:"required"`
	Area              string                 `json:"area"`
	RoomType          types.RoomType         `json:"roomType"`
	BedsTotal         int                    `json:"bedsTotal"`
	BedsAvailable     int                    `json:"bedsAvailable"`
	PriceMonthly      float64                `json:"priceMonthly" validate:"required,gt=0"`
	DepositAmount     float64                `json:"depositAmount"`
	UtilitiesIncluded *types.Utilities       `json:"utilitiesIncluded"`
	ShortStayAllowed  bool                   `json:"shortStayAllowed"`
	MinStayMonths     int                    `json:"minStayMonths"`
	Rules             *types.RoomRules       `json:"rules"`
	Preferences       *types.RoomPreferences `json:"preferences"`
	Amenities         []string               `json:"amenities"`
	Description       string                 `json:"description"`
}

// Create stores a new listing owned by the caller. Tenants cannot create
// listings.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if user.Role == types.RoleTenant {
		writeError(w, http.StatusForbidden, "only owners can create listings")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	roomType := req.RoomType
	if roomType == "" {
		roomType = types.RoomPrivate
	}
	if !roomType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid room type")
		return
	}

	created, err := h.roomService.Create(r.Context(), user.ID, types.Room{
		Country:           req.Country,
		City:              req.City,
		Area:              req.Area,
		RoomType:          roomType,
		BedsTotal:         req.BedsTotal,
		BedsAvailable:     req.BedsAvailable,
		PriceMonthly:      req.PriceMonthly,
		DepositAmount:     req.DepositAmount,
		UtilitiesIncluded: req.UtilitiesIncluded,
		ShortStayAllowed:  req.ShortStayAllowed,
		MinStayMonths:     req.MinStayMonths,
		Rules:             req.Rules,
		Preferences:       req.Preferences,
		Amenities:         req.Amenities,
		Description:       req.Description,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	metrics.RoomsCreated.Inc()
	writeJSON(w, http.StatusCreated, created)
}

// MyRooms lists the caller's own listings regardless of status.
func (h *RoomHandler) MyRooms(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rooms, err := h.roomService.ListByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// Get returns a listing with its owner summary.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")
	detail, err := h.roomService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch room")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type UpdateRoomRequest struct {
	Country           *string                `json:"country"`
	City              *string                `json:"city"`
	Area              *string                `json:"area"`
	RoomType          *types.RoomType        `json:"roomType"`
	BedsTotal         *int                   `json:"bedsTotal"`
	BedsAvailable     *int                   `json:"bedsAvailable"`
	PriceMonthly      *float64               `json:"priceMonthly"`
	DepositAmount     *float64               `json:"depositAmount"`
	UtilitiesIncluded *types.Utilities       `json:"utilitiesIncluded"`
	ShortStayAllowed  *bool                  `json:"shortStayAllowed"`
	MinStayMonths     *int                   `json:"minStayMonths"`
	Rules             *types.RoomRules       `json:"rules"`
	Preferences       *types.RoomPreferences `json:"preferences"`
	Amenities         []string               `json:"amenities"`
	Description       *string                `json:"description"`
	Status            *types.RoomStatus      `json:"status"`
}

// Update applies a partial update. Only the owner or an admin may mutate.
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.RoomType != nil && !req.RoomType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid room type")
		return
	}

	id := chi.URLParam(r, "roomID")
	updated, err := h.roomService.Update(r.Context(), id, services.Subject{UserID: user.ID, Role: user.Role}, services.RoomPatch{
		Country:           req.Country,
		City:              req.City,
		Area:              req.Area,
		RoomType:          req.RoomType,
		BedsTotal:         req.BedsTotal,
		BedsAvailable:     req.BedsAvailable,
		PriceMonthly:      req.PriceMonthly,
		DepositAmount:     req.DepositAmount,
		UtilitiesIncluded: req.UtilitiesIncluded,
		ShortStayAllowed:  req.ShortStayAllowed,
		MinStayMonths:     req.MinStayMonths,
		Rules:             req.Rules,
		Preferences:       req.Preferences,
		Amenities:         req.Amenities,
		Description:       req.Description,
		Status:            req.Status,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeServiceError(w, err, "failed to update room")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Archive transitions the listing to ARCHIVED.
func (h *RoomHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "roomID")
	if err := h.roomService.Archive(r.Context(), id, services.Subject{UserID: user.ID, Role: user.Role}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeServiceError(w, err, "failed to archive room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto accepts a multipart photo upload and appends the stored
// object key to the listing.
func (h *RoomHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photo, contentType, err := parsePhotoFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "roomID")
	updated, err := h.roomService.UploadPhoto(r.Context(), id, services.Subject{UserID: user.ID, Role: user.Role}, photo.Filename, photo.Data, contentType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeServiceError(w, err, "failed to upload photo")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// PhotoFile represents an uploaded listing photo.
type PhotoFile struct {
	Filename string
	Data     []byte
}

func parsePhotoFile(form *multipart.Form) (PhotoFile, string, error) {
	if form == nil {
		return PhotoFile{}, "", errors.New("missing form data")
	}

	files := form.File[formFieldPhoto]
	if len(files) == 0 {
		return PhotoFile{}, "", errors.New("photo file is required")
	}
	if len(files) > 1 {
		return PhotoFile{}, "", errors.New("only one photo is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return PhotoFile{}, "", fmt.Errorf("failed to read photo: %w", err)
	}

	data, err := readFileLimited(file, maxPhotoBytes)
	_ = file.Close()
	if err != nil {
		return PhotoFile{}, "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return PhotoFile{Filename: fileHeader.Filename, Data: data}, contentType, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func parseRoomFilter(r *http.Request) (types.RoomFilter, error) {
	query := r.URL.Query()

	filter := types.RoomFilter{
		Country:      strings.TrimSpace(query.Get("country")),
		City:         strings.TrimSpace(query.Get("city")),
		Area:         strings.TrimSpace(query.Get("area")),
		Gender:       strings.TrimSpace(query.Get("gender")),
		Religion:     strings.TrimSpace(query.Get("religion")),
		Smoking:      strings.TrimSpace(query.Get("smoking")),
		StayDuration: strings.TrimSpace(query.Get("stayDuration")),
	}

	if raw := strings.TrimSpace(query.Get("minPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return types.RoomFilter{}, errors.New("invalid minPrice")
		}
		filter.MinPrice = &value
	}
	if raw := strings.TrimSpace(query.Get("maxPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return types.RoomFilter{}, errors.New("invalid maxPrice")
		}
		filter.MaxPrice = &value
	}
	if raw := strings.TrimSpace(query.Get("shortStay")); raw != "" {
		filter.ShortStay = raw == "true" || raw == "1"
	}
	if raw := strings.TrimSpace(query.Get("amenities")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if amenity := strings.TrimSpace(part); amenity != "" {
				filter.Amenities = append(filter.Amenities, amenity)
			}
		}
	}

	return filter, nil
}
