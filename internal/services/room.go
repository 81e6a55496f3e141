package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/internal/storage"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// RoomRepository defines persistence operations for listings.
type RoomRepository interface {
	Get(ctx context.Context, id string) (types.Room, error)
	ListByOwner(ctx context.Context, ownerID string) ([]types.Room, error)
	ListAll(ctx context.Context) ([]types.Room, error)
	Search(ctx context.Context, filter types.RoomFilter, offset, limit int) ([]types.Room, int, error)
	Create(ctx context.Context, room types.Room) (types.Room, error)
	Update(ctx context.Context, room types.Room) (types.Room, error)
}

// SearchResult is one page of filtered listings.
type SearchResult struct {
	Items    []types.Room `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// RoomDetail is a listing together with its owner summary. Owner is nil
// when the owning account cannot be resolved.
type RoomDetail struct {
	types.Room
	Owner *types.OwnerSummary `json:"owner"`
}

// RoomPatch carries the mutable listing fields. Nil fields are untouched.
type RoomPatch struct {
	Country           *string
	City              *string
	Area              *string
	RoomType          *types.RoomType
	BedsTotal         *int
	BedsAvailable     *int
	PriceMonthly      *float64
	DepositAmount     *float64
	UtilitiesIncluded *types.Utilities
	ShortStayAllowed  *bool
	MinStayMonths     *int
	Rules             *types.RoomRules
	Preferences       *types.RoomPreferences
	Amenities         []string
	Photos            []string
	Description       *string
	Status            *types.RoomStatus
}

// RoomService encapsulates listing use-cases.
type RoomService struct {
	repo      RoomRepository
	users     UserRepository
	media     *storage.Storage
	analytics *AnalyticsService
}

func NewRoomService(repo RoomRepository, users UserRepository, media *storage.Storage, analytics *AnalyticsService) *RoomService {
	return &RoomService{repo: repo, users: users, media: media, analytics: analytics}
}

// Search returns one page of ACTIVE listings matching the filter
// conjunction and records a search_performed event. Page values below 1
// fall back to 1; page size defaults to 10 and is capped.
func (s *RoomService) Search(ctx context.Context, filter types.RoomFilter, page, pageSize int) (SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.repo.Search(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return SearchResult{}, err
	}

	s.analytics.Record(ctx, types.EventSearchPerformed, "", map[string]any{
		"city": filter.City,
		"filters_used": map[string]any{
			"country":      filter.Country,
			"area":         filter.Area,
			"gender":       filter.Gender,
			"religion":     filter.Religion,
			"smoking":      filter.Smoking,
			"stayDuration": filter.StayDuration,
			"amenities":    filter.Amenities,
		},
		"budget_range": map[string]any{
			"minPrice": filter.MinPrice,
			"maxPrice": filter.MaxPrice,
		},
	})

	return SearchResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Create stores a new ACTIVE listing owned by the caller and records a
// listing_created event.
func (s *RoomService) Create(ctx context.Context, ownerID string, room types.Room) (types.Room, error) {
	room.OwnerID = ownerID
	if room.Status == "" {
		room.Status = types.RoomActive
	}
	room.RatingAvg = 0
	room.RatingCount = 0

	created, err := s.repo.Create(ctx, room)
	if err != nil {
		return types.Room{}, err
	}

	s.analytics.Record(ctx, types.EventListingCreated, ownerID, map[string]any{
		"country":            created.Country,
		"city":               created.City,
		"area":               created.Area,
		"price_range":        created.PriceMonthly,
		"short_stay_allowed": created.ShortStayAllowed,
		"room_type":          created.RoomType,
	})

	return created, nil
}

// Get returns the listing together with its owner summary.
func (s *RoomService) Get(ctx context.Context, id string) (RoomDetail, error) {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return RoomDetail{}, err
	}

	detail := RoomDetail{Room: room}
	owner, err := s.users.GetByID(ctx, room.OwnerID)
	if err == nil {
		detail.Owner = &types.OwnerSummary{
			ID:          owner.ID,
			Name:        owner.Name,
			RatingAvg:   owner.RatingAvg,
			RatingCount: owner.RatingCount,
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return RoomDetail{}, err
	}
	return detail, nil
}

func (s *RoomService) ListByOwner(ctx context.Context, ownerID string) ([]types.Room, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *RoomService) ListAll(ctx context.Context) ([]types.Room, error) {
	return s.repo.ListAll(ctx)
}

// Update applies the non-nil patch fields. Only the owner or an admin may
// mutate a listing.
func (s *RoomService) Update(ctx context.Context, id string, actor Subject, patch RoomPatch) (types.Room, error) {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Room{}, err
	}
	if !canManageRoom(room, actor) {
		return types.Room{}, ErrForbidden
	}

	applyRoomPatch(&room, patch)
	return s.repo.Update(ctx, room)
}

// Archive transitions the listing to ARCHIVED. The transition is terminal;
// there is no un-archive operation.
func (s *RoomService) Archive(ctx context.Context, id string, actor Subject) error {
	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManageRoom(room, actor) {
		return ErrForbidden
	}

	room.Status = types.RoomArchived
	_, err = s.repo.Update(ctx, room)
	return err
}

// UploadPhoto stores a photo in object storage and appends its key to the
// listing. Only the owner or an admin may upload.
func (s *RoomService) UploadPhoto(ctx context.Context, id string, actor Subject, filename string, data []byte, contentType string) (types.Room, error) {
	if s.media == nil {
		return types.Room{}, NewValidationError("photo uploads are not enabled")
	}

	room, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Room{}, err
	}
	if !canManageRoom(room, actor) {
		return types.Room{}, ErrForbidden
	}

	key := fmt.Sprintf("rooms/%s/%s%s", room.ID, uuid.NewString(), path.Ext(filename))
	if err := s.media.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Room{}, err
	}

	room.Photos = append(room.Photos, key)
	return s.repo.Update(ctx, room)
}

func canManageRoom(room types.Room, actor Subject) bool {
	return room.OwnerID == actor.UserID || actor.Role == types.RoleAdmin
}

func applyRoomPatch(room *types.Room, patch RoomPatch) {
	if patch.Country != nil {
		room.Country = *patch.Country
	}
	if patch.City != nil {
		room.City = *patch.City
	}
	if patch.Area != nil {
		room.Area = *patch.Area
	}
	if patch.RoomType != nil {
		room.RoomType = *patch.RoomType
	}
	if patch.BedsTotal != nil {
		room.BedsTotal = *patch.BedsTotal
	}
	if patch.BedsAvailable != nil {
		room.BedsAvailable = *patch.BedsAvailable
	}
	if patch.PriceMonthly != nil {
		room.PriceMonthly = *patch.PriceMonthly
	}
	if patch.DepositAmount != nil {
		room.DepositAmount = *patch.DepositAmount
	}
	if patch.UtilitiesIncluded != nil {
		room.UtilitiesIncluded = patch.UtilitiesIncluded
	}
	if patch.ShortStayAllowed != nil {
		room.ShortStayAllowed = *patch.ShortStayAllowed
	}
	if patch.MinStayMonths != nil {
		room.MinStayMonths = *patch.MinStayMonths
	}
	if patch.Rules != nil {
		room.Rules = patch.Rules
	}
	if patch.Preferences != nil {
		room.Preferences = patch.Preferences
	}
	if patch.Amenities != nil {
		room.Amenities = patch.Amenities
	}
	if patch.Photos != nil {
		room.Photos = patch.Photos
	}
	if patch.Description != nil {
		room.Description = *patch.Description
	}
	if patch.Status != nil {
		room.Status = *patch.Status
	}
}
