package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// RoomRepository handles persistence for listings.
type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `
	id, owner_id, country, city, area, room_type, beds_total, beds_available,
	price_monthly, deposit_amount, utilities_included, short_stay_allowed,
	min_stay_months, rules, preferences, amenities, photos, description,
	status, rating_avg, rating_count, created_at, updated_at`

func scanRoom(row rowScanner) (types.Room, error) {
	var room types.Room
	var utilities, rules, preferences, amenities, photos []byte
	err := row.Scan(
		&room.ID,
		&room.OwnerID,
		&room.Country,
		&room.City,
		&room.Area,
		&room.RoomType,
		&room.BedsTotal,
		&room.BedsAvailable,
		&room.PriceMonthly,
		&room.DepositAmount,
		&utilities,
		&room.ShortStayAllowed,
		&room.MinStayMonths,
		&rules,
		&preferences,
		&amenities,
		&photos,
		&room.Description,
		&room.Status,
		&room.RatingAvg,
		&room.RatingCount,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Room{}, ErrNotFound
		}
		return types.Room{}, err
	}

	_ = json.Unmarshal(utilities, &room.UtilitiesIncluded)
	_ = json.Unmarshal(rules, &room.Rules)
	_ = json.Unmarshal(preferences, &room.Preferences)
	_ = json.Unmarshal(amenities, &room.Amenities)
	_ = json.Unmarshal(photos, &room.Photos)
	return room, nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (types.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	return scanRoom(r.db.QueryRowContext(ctx, query, id))
}

func (r *RoomRepository) ListByOwner(ctx context.Context, ownerID string) ([]types.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM rooms WHERE owner_id = $1 ORDER BY created_at, id`
	return r.queryRooms(ctx, query, ownerID)
}

func (r *RoomRepository) ListAll(ctx context.Context) ([]types.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM rooms ORDER BY created_at, id`
	return r.queryRooms(ctx, query)
}

// Search applies the filter conjunction to ACTIVE listings and returns one
// page plus the total filtered count.
func (r *RoomRepository) Search(ctx context.Context, filter types.RoomFilter, offset, limit int) ([]types.Room, int, error) {
	where, args := buildRoomWhere(filter)

	var total int
	countQuery := `SELECT COUNT(1) FROM rooms ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM rooms %s ORDER BY created_at, id OFFSET $%d LIMIT $%d`,
		roomColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rooms, err := r.queryRooms(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

// buildRoomWhere renders the filter as a WHERE clause. Soft preference
// filters only exclude rows whose stated preference conflicts; rows with an
// unset preference always pass.
func buildRoomWhere(filter types.RoomFilter) (string, []any) {
	clauses := []string{`status = 'ACTIVE'`}
	args := []any{}

	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Country != "" {
		clauses = append(clauses, `country = `+arg(filter.Country))
	}
	if filter.City != "" {
		clauses = append(clauses, `city = `+arg(filter.City))
	}
	if filter.Area != "" {
		clauses = append(clauses, `area = `+arg(filter.Area))
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, `price_monthly >= `+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, `price_monthly <= `+arg(*filter.MaxPrice))
	}
	if filter.ShortStay {
		clauses = append(clauses, `short_stay_allowed = TRUE`)
	}
	if len(filter.Amenities) > 0 {
		wanted, _ := json.Marshal(filter.Amenities)
		clauses = append(clauses, `amenities @> `+arg(string(wanted))+`::jsonb`)
	}
	if filter.Gender != "" {
		clauses = append(clauses, `(COALESCE(preferences->>'preferredGender', '') = '' OR preferences->>'preferredGender' = `+arg(filter.Gender)+`)`)
	}
	if filter.Religion != "" {
		clauses = append(clauses, `(COALESCE(preferences->>'preferredReligion', '') = '' OR preferences->>'preferredReligion' = `+arg(filter.Religion)+`)`)
	}
	if filter.Smoking != "" {
		clauses = append(clauses, `(COALESCE(rules->>'smoking', '') = '' OR rules->>'smoking' = `+arg(filter.Smoking)+`)`)
	}
	if filter.StayDuration != "" {
		clauses = append(clauses, `(min_stay_months = 0 OR min_stay_months::text = `+arg(filter.StayDuration)+`)`)
	}

	return `WHERE ` + strings.Join(clauses, " AND "), args
}

func (r *RoomRepository) queryRooms(ctx context.Context, query string, args ...any) ([]types.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]types.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) Create(ctx context.Context, room types.Room) (types.Room, error) {
	now := time.Now()
	room.ID = uuid.NewString()
	room.CreatedAt = now
	room.UpdatedAt = now

	utilities, _ := json.Marshal(room.UtilitiesIncluded)
	rules, _ := json.Marshal(room.Rules)
	preferences, _ := json.Marshal(room.Preferences)
	amenities, _ := json.Marshal(room.Amenities)
	photos, _ := json.Marshal(room.Photos)

	const query = `
		INSERT INTO rooms (
			id, owner_id, country, city, area, room_type, beds_total, beds_available,
			price_monthly, deposit_amount, utilities_included, short_stay_allowed,
			min_stay_months, rules, preferences, amenities, photos, description,
			status, rating_avg, rating_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		room.ID,
		room.OwnerID,
		room.Country,
		room.City,
		room.Area,
		room.RoomType,
		room.BedsTotal,
		room.BedsAvailable,
		room.PriceMonthly,
		room.DepositAmount,
		utilities,
		room.ShortStayAllowed,
		room.MinStayMonths,
		rules,
		preferences,
		amenities,
		photos,
		room.Description,
		room.Status,
		room.RatingAvg,
		room.RatingCount,
		room.CreatedAt,
		room.UpdatedAt,
	)
	if err != nil {
		return types.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) Update(ctx context.Context, room types.Room) (types.Room, error) {
	room.UpdatedAt = time.Now()

	utilities, _ := json.Marshal(room.UtilitiesIncluded)
	rules, _ := json.Marshal(room.Rules)
	preferences, _ := json.Marshal(room.Preferences)
	amenities, _ := json.Marshal(room.Amenities)
	photos, _ := json.Marshal(room.Photos)

	const query = `
		UPDATE rooms
		SET country = $1,
			city = $2,
			area = $3,
			room_type = $4,
			beds_total = $5,
			beds_available = $6,
			price_monthly = $7,
			deposit_amount = $8,
			utilities_included = $9,
			short_stay_allowed = $10,
			min_stay_months = $11,
			rules = $12,
			preferences = $13,
			amenities = $14,
			photos = $15,
			description = $16,
			status = $17,
			rating_avg = $18,
			rating_count = $19,
			updated_at = $20
		WHERE id = $21`
	result, err := r.db.ExecContext(
		ctx,
		query,
		room.Country,
		room.City,
		room.Area,
		room.RoomType,
		room.BedsTotal,
		room.BedsAvailable,
		room.PriceMonthly,
		room.DepositAmount,
		utilities,
		room.ShortStayAllowed,
		room.MinStayMonths,
		rules,
		preferences,
		amenities,
		photos,
		room.Description,
		room.Status,
		room.RatingAvg,
		room.RatingCount,
		room.UpdatedAt,
		room.ID,
	)
	if err != nil {
		return types.Room{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Room{}, err
	}
	if affected == 0 {
		return types.Room{}, ErrNotFound
	}
	return room, nil
}
