package memory

import (
	"context"
	"sync"
	"time"

	"github.com/roomatch/apiserver/internal/store"
)

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

// TokenStore tracks issued refresh tokens in a map keyed by token value.
// Expired entries are rejected on lookup rather than swept.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenEntry
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]tokenEntry)}
}

func (s *TokenStore) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Lookup returns the subject the token maps to, or ErrNotFound when the
// token is unknown or past its expiry.
func (s *TokenStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", store.ErrNotFound
	}
	return entry.userID, nil
}

// Delete removes the token. Deleting an unknown token is not an error.
func (s *TokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
