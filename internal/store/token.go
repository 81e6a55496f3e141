package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepository tracks issued refresh tokens in Postgres. A token absent
// from the table is treated as revoked or never issued.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	const query = `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = $2, expires_at = $3`
	_, err := r.db.ExecContext(ctx, query, token, userID, time.Now().Add(ttl))
	return err
}

// Lookup returns the subject the token maps to, or ErrNotFound when the
// token is unknown or past its expiry.
func (r *TokenRepository) Lookup(ctx context.Context, token string) (string, error) {
	const query = `SELECT user_id FROM refresh_tokens WHERE token = $1 AND expires_at > NOW()`
	var userID string
	err := r.db.QueryRowContext(ctx, query, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// Delete removes the token. Deleting an unknown token is not an error.
func (r *TokenRepository) Delete(ctx context.Context, token string) error {
	const query = `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}
