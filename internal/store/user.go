package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/roomatch/apiserver/types"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, name, email, phone, password_hash, role, gender, religion, languages,
	occupation, city_current, preferred_cities, work_schedule, preferences,
	rating_avg, rating_count, is_phone_verified, is_id_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var languages, preferredCities, preferences []byte
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Gender,
		&user.Religion,
		&languages,
		&user.Occupation,
		&user.CityCurrent,
		&preferredCities,
		&user.WorkSchedule,
		&preferences,
		&user.RatingAvg,
		&user.RatingCount,
		&user.IsPhoneVerified,
		&user.IsIDVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	_ = json.Unmarshal(languages, &user.Languages)
	_ = json.Unmarshal(preferredCities, &user.PreferredCities)
	_ = json.Unmarshal(preferences, &user.Preferences)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	languages, _ := json.Marshal(user.Languages)
	preferredCities, _ := json.Marshal(user.PreferredCities)
	preferences, _ := json.Marshal(user.Preferences)

	const query = `
		INSERT INTO users (
			id, name, email, phone, password_hash, role, gender, religion, languages,
			occupation, city_current, preferred_cities, work_schedule, preferences,
			rating_avg, rating_count, is_phone_verified, is_id_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Gender,
		user.Religion,
		languages,
		user.Occupation,
		user.CityCurrent,
		preferredCities,
		user.WorkSchedule,
		preferences,
		user.RatingAvg,
		user.RatingCount,
		user.IsPhoneVerified,
		user.IsIDVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	languages, _ := json.Marshal(user.Languages)
	preferredCities, _ := json.Marshal(user.PreferredCities)
	preferences, _ := json.Marshal(user.Preferences)

	const query = `
		UPDATE users
		SET name = $1,
			phone = $2,
			gender = $3,
			religion = $4,
			languages = $5,
			occupation = $6,
			city_current = $7,
			preferred_cities = $8,
			work_schedule = $9,
			preferences = $10,
			rating_avg = $11,
			rating_count = $12,
			is_phone_verified = $13,
			is_id_verified = $14,
			updated_at = $15
		WHERE id = $16`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Phone,
		user.Gender,
		user.Religion,
		languages,
		user.Occupation,
		user.CityCurrent,
		preferredCities,
		user.WorkSchedule,
		preferences,
		user.RatingAvg,
		user.RatingCount,
		user.IsPhoneVerified,
		user.IsIDVerified,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}
