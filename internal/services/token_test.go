package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/store/memory"
	"github.com/roomatch/apiserver/types"
)

func newTokenService(accessTTL, refreshTTL time.Duration) *services.TokenService {
	cfg := config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
	return services.NewTokenService(cfg, memory.NewTokenStore())
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)
	user := types.User{ID: "user-1", Role: types.RoleTenant}

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be set")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens must differ")
	}

	subject, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if subject.UserID != "user-1" {
		t.Fatalf("unexpected subject %q", subject.UserID)
	}
	if subject.Role != types.RoleTenant {
		t.Fatalf("unexpected role %q", subject.Role)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)

	pair, err := svc.Issue(context.Background(), types.User{ID: "user-1", Role: types.RoleOwner})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	svc := newTokenService(-time.Minute, time.Hour)

	pair, err := svc.Issue(context.Background(), types.User{ID: "user-1", Role: types.RoleTenant})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccessTampered(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)

	pair, err := svc.Issue(context.Background(), types.User{ID: "user-1", Role: types.RoleTenant})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	if _, err := svc.VerifyAccess(tampered); !errors.Is(err, services.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, types.User{ID: "user-1", Role: types.RoleBoth})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	accessToken, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	subject, err := svc.VerifyAccess(accessToken)
	if err != nil {
		t.Fatalf("verify refreshed access: %v", err)
	}
	if subject.UserID != "user-1" || subject.Role != types.RoleBoth {
		t.Fatalf("unexpected subject %+v", subject)
	}
}

func TestRefreshAfterLogout(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, types.User{ID: "user-1", Role: types.RoleTenant})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, services.ErrUnknownRefreshToken) {
		t.Fatalf("expected ErrUnknownRefreshToken, got %v", err)
	}
}

func TestRevokeIsScopedToOneToken(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)
	ctx := context.Background()
	user := types.User{ID: "user-1", Role: types.RoleTenant}

	first, err := svc.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	// Spacing the sessions apart makes the signed tokens distinct.
	time.Sleep(time.Second + 100*time.Millisecond)
	second, err := svc.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if err := svc.Revoke(ctx, first.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, services.ErrUnknownRefreshToken) {
		t.Fatalf("expected revoked session to fail, got %v", err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("expected second session to survive, got %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTokenService(time.Minute, time.Hour)

	if _, err := svc.Refresh(context.Background(), "never-issued"); !errors.Is(err, services.ErrUnknownRefreshToken) {
		t.Fatalf("expected ErrUnknownRefreshToken, got %v", err)
	}
}
