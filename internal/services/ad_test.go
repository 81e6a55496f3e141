package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/internal/store/memory"
	"github.com/roomatch/apiserver/types"
)

type adFixture struct {
	svc    *services.AdService
	events *memory.EventStore
}

func newAdFixture() adFixture {
	events := memory.NewEventStore()
	analytics := services.NewAnalyticsService(events, nil, zerolog.Nop())
	return adFixture{
		svc:    services.NewAdService(memory.NewAdStore(), analytics),
		events: events,
	}
}

func TestListActiveFiltersByGeography(t *testing.T) {
	fx := newAdFixture()
	ctx := context.Background()

	global, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/a.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdLandingTop,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create global ad: %v", err)
	}
	if _, err := fx.svc.Create(ctx, types.Ad{
		MediaURL:  "https://cdn.example.com/b.jpg",
		LinkURL:   "https://example.com",
		Position:  types.AdLandingTop,
		Countries: []string{"IN"},
		Active:    true,
	}); err != nil {
		t.Fatalf("create geo ad: %v", err)
	}
	if _, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/c.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdLandingTop,
		Active:   false,
	}); err != nil {
		t.Fatalf("create inactive ad: %v", err)
	}

	ads, err := fx.svc.ListActive(ctx, types.AdLandingTop, "AE", "Dubai")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ads) != 1 || ads[0].ID != global.ID {
		t.Fatalf("expected only the geography-free ad, got %d", len(ads))
	}
}

func TestListActiveWithoutPositionMatchesEverySlot(t *testing.T) {
	fx := newAdFixture()
	ctx := context.Background()

	if _, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/a.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdLandingTop,
		Active:   true,
	}); err != nil {
		t.Fatalf("create landing ad: %v", err)
	}
	if _, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/b.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdChatBottom,
		Active:   true,
	}); err != nil {
		t.Fatalf("create chat ad: %v", err)
	}
	if _, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/c.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdChatBottom,
		Active:   false,
	}); err != nil {
		t.Fatalf("create inactive ad: %v", err)
	}

	ads, err := fx.svc.ListActive(ctx, "", "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ads) != 2 {
		t.Fatalf("expected both active ads across slots, got %d", len(ads))
	}
}

func TestListActiveRejectsUnknownPosition(t *testing.T) {
	fx := newAdFixture()

	var verr *services.ValidationError
	if _, err := fx.svc.ListActive(context.Background(), "BANNER", "", ""); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClickRecordsEvent(t *testing.T) {
	fx := newAdFixture()
	ctx := context.Background()

	ad, err := fx.svc.Create(ctx, types.Ad{
		MediaURL: "https://cdn.example.com/a.jpg",
		LinkURL:  "https://example.com",
		Position: types.AdChatBottom,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before, _ := fx.events.Count(ctx)
	if err := fx.svc.Click(ctx, ad.ID, "anon-1", "AE", "Dubai"); err != nil {
		t.Fatalf("click: %v", err)
	}
	after, _ := fx.events.Count(ctx)
	if after != before+1 {
		t.Fatalf("expected a click event to be recorded")
	}
}

func TestClickUnknownAd(t *testing.T) {
	fx := newAdFixture()

	err := fx.svc.Click(context.Background(), "no-such-ad", "", "", "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
