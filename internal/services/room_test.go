package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store/memory"
	"github.com/roomatch/apiserver/types"
)

type roomFixture struct {
	svc    *services.RoomService
	rooms  *memory.RoomStore
	events *memory.EventStore
}

func newRoomFixture() roomFixture {
	rooms := memory.NewRoomStore()
	events := memory.NewEventStore()
	analytics := services.NewAnalyticsService(events, nil, zerolog.Nop())
	svc := services.NewRoomService(rooms, memory.NewUserStore(), nil, analytics)
	return roomFixture{svc: svc, rooms: rooms, events: events}
}

func floatPtr(v float64) *float64 { return &v }

func seedRoom(t *testing.T, fx roomFixture, room types.Room) types.Room {
	t.Helper()
	if room.Status == "" {
		room.Status = types.RoomActive
	}
	created, err := fx.rooms.Create(context.Background(), room)
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return created
}

func TestSearchExcludesInactiveListings(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: 1000})
	seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: 1200, Status: types.RoomArchived})
	seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: 1400, Status: types.RoomFull})

	result, err := fx.svc.Search(ctx, types.RoomFilter{City: "Dubai"}, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected only the ACTIVE listing, got total %d", result.Total)
	}
}

func TestSearchPriceBoundsAreInclusive(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: 1500})
	seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: 2500})

	result, err := fx.svc.Search(ctx, types.RoomFilter{MinPrice: floatPtr(1500), MaxPrice: floatPtr(1500)}, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected the boundary listing to match, got %d", result.Total)
	}
	if result.Items[0].PriceMonthly != 1500 {
		t.Fatalf("unexpected listing matched")
	}
}

func TestSearchAmenitiesRequireAll(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	seedRoom(t, fx, types.Room{City: "Dubai", Amenities: []string{"wifi", "parking", "gym"}})
	seedRoom(t, fx, types.Room{City: "Dubai", Amenities: []string{"wifi"}})

	result, err := fx.svc.Search(ctx, types.RoomFilter{Amenities: []string{"wifi", "gym"}}, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected amenity conjunction, got %d matches", result.Total)
	}
}

func TestSearchSoftPreferences(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	// No stated preference: never excluded.
	seedRoom(t, fx, types.Room{City: "Dubai"})
	// Matching preference: included.
	seedRoom(t, fx, types.Room{City: "Dubai", Preferences: &types.RoomPreferences{PreferredGender: "female"}})
	// Conflicting preference: excluded.
	seedRoom(t, fx, types.Room{City: "Dubai", Preferences: &types.RoomPreferences{PreferredGender: "male"}})

	result, err := fx.svc.Search(ctx, types.RoomFilter{Gender: "female"}, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected unset preferences to pass, got %d matches", result.Total)
	}
}

func TestSearchPaginationDefaults(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		seedRoom(t, fx, types.Room{City: "Dubai", PriceMonthly: float64(1000 + i)})
	}

	result, err := fx.svc.Search(ctx, types.RoomFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Page != 1 || result.PageSize != 10 {
		t.Fatalf("expected defaults page=1 size=10, got page=%d size=%d", result.Page, result.PageSize)
	}
	if len(result.Items) != 10 || result.Total != 15 {
		t.Fatalf("expected 10 of 15 items, got %d of %d", len(result.Items), result.Total)
	}

	second, err := fx.svc.Search(ctx, types.RoomFilter{}, 2, 10)
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if len(second.Items) != 5 {
		t.Fatalf("expected 5 items on the last page, got %d", len(second.Items))
	}
}

func TestSearchRecordsAnalyticsEvent(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	before, _ := fx.events.Count(ctx)
	if _, err := fx.svc.Search(ctx, types.RoomFilter{City: "Dubai"}, 1, 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	after, _ := fx.events.Count(ctx)
	if after != before+1 {
		t.Fatalf("expected a search event to be recorded")
	}
}

func TestUpdateRequiresOwnerOrAdmin(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	room := seedRoom(t, fx, types.Room{OwnerID: "bob", City: "Dubai"})

	desc := "updated"
	_, err := fx.svc.Update(ctx, room.ID, services.Subject{UserID: "eve", Role: types.RoleTenant}, services.RoomPatch{Description: &desc})
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}

	if _, err := fx.svc.Update(ctx, room.ID, services.Subject{UserID: "bob", Role: types.RoleOwner}, services.RoomPatch{Description: &desc}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if _, err := fx.svc.Update(ctx, room.ID, services.Subject{UserID: "someone", Role: types.RoleAdmin}, services.RoomPatch{Description: &desc}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestArchiveHidesListingFromSearch(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	room := seedRoom(t, fx, types.Room{OwnerID: "bob", City: "Dubai"})

	if err := fx.svc.Archive(ctx, room.ID, services.Subject{UserID: "bob", Role: types.RoleOwner}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	result, err := fx.svc.Search(ctx, types.RoomFilter{City: "Dubai"}, 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("archived listing still visible")
	}

	// The listing itself remains readable.
	detail, err := fx.svc.Get(ctx, room.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Status != types.RoomArchived {
		t.Fatalf("expected ARCHIVED, got %s", detail.Status)
	}
}

func TestUploadPhotoWithoutStorage(t *testing.T) {
	fx := newRoomFixture()
	ctx := context.Background()

	room := seedRoom(t, fx, types.Room{OwnerID: "bob", City: "Dubai"})

	var verr *services.ValidationError
	_, err := fx.svc.UploadPhoto(ctx, room.ID, services.Subject{UserID: "bob", Role: types.RoleOwner}, "photo.jpg", []byte("data"), "image/jpeg")
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error when storage is disabled, got %v", err)
	}
}
