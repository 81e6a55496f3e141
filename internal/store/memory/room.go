package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// RoomStore keeps listings in a map keyed by id.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]types.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]types.Room)}
}

func (s *RoomStore) Get(_ context.Context, id string) (types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return types.Room{}, store.ErrNotFound
	}
	return room, nil
}

func (s *RoomStore) ListByOwner(_ context.Context, ownerID string) ([]types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]types.Room, 0)
	for _, room := range s.rooms {
		if room.OwnerID == ownerID {
			rooms = append(rooms, room)
		}
	}
	sortRooms(rooms)
	return rooms, nil
}

func (s *RoomStore) ListAll(_ context.Context) ([]types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]types.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sortRooms(rooms)
	return rooms, nil
}

// Search applies the filter conjunction to ACTIVE listings and returns one
// page plus the total filtered count.
func (s *RoomStore) Search(_ context.Context, filter types.RoomFilter, offset, limit int) ([]types.Room, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]types.Room, 0)
	for _, room := range s.rooms {
		if matchesFilter(room, filter) {
			matched = append(matched, room)
		}
	}
	sortRooms(matched)

	total := len(matched)
	if offset >= total {
		return []types.Room{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]types.Room, end-offset)
	copy(page, matched[offset:end])
	return page, total, nil
}

func matchesFilter(room types.Room, filter types.RoomFilter) bool {
	if room.Status != types.RoomActive {
		return false
	}
	if filter.Country != "" && room.Country != filter.Country {
		return false
	}
	if filter.City != "" && room.City != filter.City {
		return false
	}
	if filter.Area != "" && room.Area != filter.Area {
		return false
	}
	if filter.MinPrice != nil && room.PriceMonthly < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && room.PriceMonthly > *filter.MaxPrice {
		return false
	}
	if filter.ShortStay && !room.ShortStayAllowed {
		return false
	}
	for _, wanted := range filter.Amenities {
		if !containsString(room.Amenities, wanted) {
			return false
		}
	}

	// Soft preference filters: an unset listing preference never excludes.
	if filter.Gender != "" && room.Preferences != nil &&
		room.Preferences.PreferredGender != "" && room.Preferences.PreferredGender != filter.Gender {
		return false
	}
	if filter.Religion != "" && room.Preferences != nil &&
		room.Preferences.PreferredReligion != "" && room.Preferences.PreferredReligion != filter.Religion {
		return false
	}
	if filter.Smoking != "" && room.Rules != nil &&
		room.Rules.Smoking != "" && room.Rules.Smoking != filter.Smoking {
		return false
	}
	if filter.StayDuration != "" && room.MinStayMonths != 0 &&
		strconv.Itoa(room.MinStayMonths) != filter.StayDuration {
		return false
	}
	return true
}

func containsString(values []string, wanted string) bool {
	for _, v := range values {
		if v == wanted {
			return true
		}
	}
	return false
}

func sortRooms(rooms []types.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
}

func (s *RoomStore) Create(_ context.Context, room types.Room) (types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	room.ID = uuid.NewString()
	room.CreatedAt = now
	room.UpdatedAt = now
	s.rooms[room.ID] = room
	return room, nil
}

func (s *RoomStore) Update(_ context.Context, room types.Room) (types.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return types.Room{}, store.ErrNotFound
	}
	room.UpdatedAt = time.Now()
	s.rooms[room.ID] = room
	return room, nil
}
