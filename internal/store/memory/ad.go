package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// AdStore keeps promotional placements in a map keyed by id.
type AdStore struct {
	mu  sync.RWMutex
	ads map[string]types.Ad
}

func NewAdStore() *AdStore {
	return &AdStore{ads: make(map[string]types.Ad)}
}

func (s *AdStore) Get(_ context.Context, id string) (types.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ad, ok := s.ads[id]
	if !ok {
		return types.Ad{}, store.ErrNotFound
	}
	return ad, nil
}

// ListActive returns active ads matching the placement and geography. An ad
// with no geography allow-list matches every country and city.
func (s *AdStore) ListActive(_ context.Context, position types.AdPosition, country, city string) ([]types.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ads := make([]types.Ad, 0)
	for _, ad := range s.ads {
		if !ad.Active {
			continue
		}
		if position != "" && ad.Position != position {
			continue
		}
		if country != "" && len(ad.Countries) > 0 && !containsString(ad.Countries, country) {
			continue
		}
		if city != "" && len(ad.Cities) > 0 && !containsString(ad.Cities, city) {
			continue
		}
		ads = append(ads, ad)
	}
	sort.Slice(ads, func(i, j int) bool {
		if ads[i].CreatedAt.Equal(ads[j].CreatedAt) {
			return ads[i].ID < ads[j].ID
		}
		return ads[i].CreatedAt.Before(ads[j].CreatedAt)
	})
	return ads, nil
}

func (s *AdStore) Create(_ context.Context, ad types.Ad) (types.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ad.ID = uuid.NewString()
	ad.CreatedAt = now
	ad.UpdatedAt = now
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *AdStore) Update(_ context.Context, ad types.Ad) (types.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ads[ad.ID]; !ok {
		return types.Ad{}, store.ErrNotFound
	}
	ad.UpdatedAt = time.Now()
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *AdStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ads[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.ads, id)
	return nil
}
