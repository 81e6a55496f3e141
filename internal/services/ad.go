package services

import (
	"context"
	"time"

	"github.com/roomatch/apiserver/types"
)

// AdRepository defines persistence operations for ad placements.
type AdRepository interface {
	Get(ctx context.Context, id string) (types.Ad, error)
	ListActive(ctx context.Context, position types.AdPosition, country, city string) ([]types.Ad, error)
	Create(ctx context.Context, ad types.Ad) (types.Ad, error)
	Update(ctx context.Context, ad types.Ad) (types.Ad, error)
	Delete(ctx context.Context, id string) error
}

// AdPatch carries the mutable fields of an ad. Nil means no change.
type AdPatch struct {
	MediaURL  *string
	Type      *types.AdMediaType
	LinkURL   *string
	Position  *types.AdPosition
	Countries *[]string
	Cities    *[]string
	Active    *bool
	StartAt   *time.Time
	EndAt     *time.Time
}

type AdService struct {
	repo      AdRepository
	analytics *AnalyticsService
}

func NewAdService(repo AdRepository, analytics *AnalyticsService) *AdService {
	return &AdService{repo: repo, analytics: analytics}
}

// ListActive returns the ads eligible for a placement slot. An empty
// position matches every slot; an ad with no geography restriction matches
// any country and city.
func (s *AdService) ListActive(ctx context.Context, position types.AdPosition, country, city string) ([]types.Ad, error) {
	if position != "" && !position.Valid() {
		return nil, NewValidationError("unknown ad position")
	}
	return s.repo.ListActive(ctx, position, country, city)
}

// Click records an ad_clicked event for an existing ad. The caller may be
// anonymous; anonID is stored as-is.
func (s *AdService) Click(ctx context.Context, adID, anonID, country, city string) error {
	ad, err := s.repo.Get(ctx, adID)
	if err != nil {
		return err
	}
	s.analytics.Record(ctx, types.EventAdClicked, anonID, map[string]any{
		"ad_id":    ad.ID,
		"position": string(ad.Position),
		"country":  country,
		"city":     city,
	})
	return nil
}

func (s *AdService) Create(ctx context.Context, ad types.Ad) (types.Ad, error) {
	if ad.MediaURL == "" || ad.LinkURL == "" {
		return types.Ad{}, NewValidationError("mediaUrl and linkUrl are required")
	}
	if !ad.Position.Valid() {
		return types.Ad{}, NewValidationError("unknown ad position")
	}
	if ad.Type != types.AdImage && ad.Type != types.AdVideo {
		ad.Type = types.AdImage
	}
	return s.repo.Create(ctx, ad)
}

func (s *AdService) Update(ctx context.Context, id string, patch AdPatch) (types.Ad, error) {
	ad, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Ad{}, err
	}
	if patch.MediaURL != nil {
		ad.MediaURL = *patch.MediaURL
	}
	if patch.Type != nil {
		ad.Type = *patch.Type
	}
	if patch.LinkURL != nil {
		ad.LinkURL = *patch.LinkURL
	}
	if patch.Position != nil {
		if !patch.Position.Valid() {
			return types.Ad{}, NewValidationError("unknown ad position")
		}
		ad.Position = *patch.Position
	}
	if patch.Countries != nil {
		ad.Countries = *patch.Countries
	}
	if patch.Cities != nil {
		ad.Cities = *patch.Cities
	}
	if patch.Active != nil {
		ad.Active = *patch.Active
	}
	if patch.StartAt != nil {
		ad.StartAt = patch.StartAt
	}
	if patch.EndAt != nil {
		ad.EndAt = patch.EndAt
	}
	return s.repo.Update(ctx, ad)
}

func (s *AdService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
