package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store/memory"
	"github.com/roomatch/apiserver/types"
)

func newTestRouter(t *testing.T) (http.Handler, *services.AdService) {
	t.Helper()

	userRepo := memory.NewUserStore()
	roomRepo := memory.NewRoomStore()

	userService := services.NewUserService(userRepo)
	analytics := services.NewAnalyticsService(memory.NewEventStore(), nil, zerolog.Nop())
	tokenService := services.NewTokenService(config.AuthConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, memory.NewTokenStore())
	roomService := services.NewRoomService(roomRepo, userRepo, nil, analytics)
	messageService := services.NewMessageService(memory.NewConversationStore())
	feedbackService := services.NewFeedbackService(memory.NewFeedbackStore(), userService, roomRepo)
	adService := services.NewAdService(memory.NewAdStore(), analytics)

	router := NewRouter(Deps{
		Logger:    zerolog.Nop(),
		Users:     userService,
		Tokens:    tokenService,
		Rooms:     roomService,
		Messages:  messageService,
		Feedback:  feedbackService,
		Ads:       adService,
		Analytics: analytics,
	})
	return router, adService
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerUser(t *testing.T, router http.Handler, name, email, role string) (accessToken, refreshToken, userID string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	return resp.AccessToken, resp.RefreshToken, resp.User.ID
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	router, _ := newTestRouter(t)

	registerUser(t, router, "Alice", "alice@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "Imposter",
		"email":    "ALICE@Example.COM",
		"password": "password123",
		"role":     "TENANT",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "password123",
		"role":     "ADMIN",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginAndTokenLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "Alice", "alice@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeBody(t, rec, &login)

	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refreshToken": login.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rec.Code, rec.Body.String())
	}
	var refreshed struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, rec, &refreshed)

	rec = doJSON(t, router, http.MethodGet, "/users/me", refreshed.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me with refreshed token: status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/logout", "", map[string]any{
		"refreshToken": login.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d body %s", rec.Code, rec.Body.String())
	}
	var logout struct {
		Success bool `json:"success"`
	}
	decodeBody(t, rec, &logout)
	if !logout.Success {
		t.Fatalf("logout body %s, want success true", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refreshToken": login.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "Alice", "alice@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/users/me", "/messages/conversations"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/users/me", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, _ := newTestRouter(t)
	token, _, _ := registerUser(t, router, "Alice", "alice@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodGet, "/admin/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestTenantCannotCreateListing(t *testing.T) {
	router, _ := newTestRouter(t)
	token, _, _ := registerUser(t, router, "Alice", "alice@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodPost, "/rooms", token, map[string]any{
		"country":      "UAE",
		"city":         "Dubai",
		"priceMonthly": 1500,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body %s", rec.Code, rec.Body.String())
	}
}

// TestMarketplaceFlow walks the primary marketplace journey end to end: an
// owner lists a room, a tenant finds it through search and the two exchange
// messages about it.
func TestMarketplaceFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	ownerToken, _, ownerID := registerUser(t, router, "Omar", "omar@example.com", "OWNER")
	tenantToken, _, tenantID := registerUser(t, router, "Tara", "tara@example.com", "TENANT")

	rec := doJSON(t, router, http.MethodPost, "/rooms", ownerToken, map[string]any{
		"country":      "UAE",
		"city":         "Dubai",
		"area":         "Marina",
		"priceMonthly": 1500,
		"roomType":     "PRIVATE",
		"amenities":    []string{"wifi"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: status %d body %s", rec.Code, rec.Body.String())
	}
	var room struct {
		ID      string `json:"id"`
		OwnerID string `json:"ownerId"`
	}
	decodeBody(t, rec, &room)
	if room.OwnerID != ownerID {
		t.Fatalf("listing not owned by creator")
	}

	rec = doJSON(t, router, http.MethodGet, "/rooms?city=Dubai&maxPrice=2000", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d", rec.Code)
	}
	var search struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	decodeBody(t, rec, &search)
	if search.Total != 1 || search.Items[0].ID != room.ID {
		t.Fatalf("search did not find the listing: %+v", search)
	}

	rec = doJSON(t, router, http.MethodPost, "/messages", tenantToken, map[string]any{
		"recipientId": ownerID,
		"roomId":      room.ID,
		"text":        "Is the room still available?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send message: status %d body %s", rec.Code, rec.Body.String())
	}
	var first struct {
		ConversationID string `json:"conversationId"`
	}
	decodeBody(t, rec, &first)

	rec = doJSON(t, router, http.MethodGet, "/messages/conversations", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner conversations: status %d", rec.Code)
	}
	var conversations []struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &conversations)
	if len(conversations) != 1 || conversations[0].ID != first.ConversationID {
		t.Fatalf("owner does not see the conversation")
	}

	rec = doJSON(t, router, http.MethodPost, "/messages", ownerToken, map[string]any{
		"recipientId":    tenantID,
		"conversationId": first.ConversationID,
		"text":           "Yes, come see it tomorrow.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply: status %d body %s", rec.Code, rec.Body.String())
	}
	var reply struct {
		ConversationID string `json:"conversationId"`
	}
	decodeBody(t, rec, &reply)
	if reply.ConversationID != first.ConversationID {
		t.Fatalf("reply opened a new conversation")
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/messages/conversations/%s", first.ConversationID), tenantToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("thread: status %d", rec.Code)
	}
	var thread []struct {
		Text string `json:"text"`
	}
	decodeBody(t, rec, &thread)
	if len(thread) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(thread))
	}
	if thread[0].Text != "Is the room still available?" || thread[1].Text != "Yes, come see it tomorrow." {
		t.Fatalf("thread out of order: %+v", thread)
	}
}

func TestAdDeliveryAndClick(t *testing.T) {
	router, ads := newTestRouter(t)

	created, err := ads.Create(context.Background(), types.Ad{
		MediaURL: "https://cdn.example.com/banner.png",
		LinkURL:  "https://example.com",
		Position: types.AdLandingTop,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create ad: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/ads", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list without position: status %d body %s", rec.Code, rec.Body.String())
	}
	var all []struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &all)
	if len(all) != 1 || all[0].ID != created.ID {
		t.Fatalf("list without position: %+v", all)
	}

	rec = doJSON(t, router, http.MethodGet, "/ads?position=LANDING_TOP", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list by position: status %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/ads?position=BOGUS", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown position: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/ads/%s/click", created.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("click: status %d body %s", rec.Code, rec.Body.String())
	}
	var click struct {
		Success bool `json:"success"`
	}
	decodeBody(t, rec, &click)
	if !click.Success {
		t.Fatalf("click body %s, want success true", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/ads/missing/click", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("click unknown ad: expected 404, got %d", rec.Code)
	}
}
