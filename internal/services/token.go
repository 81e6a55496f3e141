package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/types"
)

// RefreshTokenStore tracks issued refresh tokens so individual tokens can be
// revoked on logout without affecting the subject's other sessions.
type RefreshTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Subject identifies the authenticated caller of a request.
type Subject struct {
	UserID string
	Role   types.Role
}

// TokenPair is the credential pair returned at login and registration.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenService issues and validates the two-token authentication scheme.
// Access tokens are short-lived and verified per request; refresh tokens are
// long-lived, individually revocable, and exchanged for new access tokens
// only (the refresh token itself is never rotated).
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	tokens        RefreshTokenStore
}

func NewTokenService(cfg config.AuthConfig, tokens RefreshTokenStore) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		tokens:        tokens,
	}
}

// Issue signs a new access/refresh pair for the user and registers the
// refresh token in the revocation store.
func (s *TokenService) Issue(ctx context.Context, user types.User) (TokenPair, error) {
	accessToken, err := s.sign(user.ID, user.Role, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.sign(user.ID, user.Role, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.Save(ctx, refreshToken, user.ID, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess validates an access token and returns the subject it carries.
// Callers must re-resolve the subject against the identity store on every
// request; this method does not consult it.
func (s *TokenService) VerifyAccess(tokenString string) (Subject, error) {
	return s.verify(tokenString, s.accessSecret)
}

// Refresh exchanges a registered refresh token for a new access token. The
// refresh token is not rotated and stays valid until logout or expiry.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if _, err := s.tokens.Lookup(ctx, refreshToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnknownRefreshToken
		}
		return "", err
	}

	subject, err := s.verify(refreshToken, s.refreshSecret)
	if err != nil {
		return "", err
	}
	return s.sign(subject.UserID, subject.Role, s.accessSecret, s.accessTTL)
}

// Revoke removes a refresh token from the store. Revoking an unknown token
// is not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *TokenService) sign(userID string, role types.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) verify(tokenString string, secret []byte) (Subject, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Subject{}, ErrInvalidToken
	}

	role := types.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return Subject{}, ErrInvalidToken
	}
	return Subject{UserID: claims.Subject, Role: role}, nil
}
