package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/roomatch/apiserver/types"
)

// AdRepository handles persistence for promotional placements.
type AdRepository struct {
	db *sql.DB
}

func NewAdRepository(db *sql.DB) *AdRepository {
	return &AdRepository{db: db}
}

const adColumns = `
	id, media_url, media_type, link_url, position, countries, cities, active,
	start_at, end_at, created_at, updated_at`

func scanAd(row rowScanner) (types.Ad, error) {
	var ad types.Ad
	var countries, cities []byte
	err := row.Scan(
		&ad.ID,
		&ad.MediaURL,
		&ad.Type,
		&ad.LinkURL,
		&ad.Position,
		&countries,
		&cities,
		&ad.Active,
		&ad.StartAt,
		&ad.EndAt,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ad{}, ErrNotFound
		}
		return types.Ad{}, err
	}

	_ = json.Unmarshal(countries, &ad.Countries)
	_ = json.Unmarshal(cities, &ad.Cities)
	return ad, nil
}

func (r *AdRepository) Get(ctx context.Context, id string) (types.Ad, error) {
	const query = `SELECT ` + adColumns + ` FROM ads WHERE id = $1`
	return scanAd(r.db.QueryRowContext(ctx, query, id))
}

// ListActive returns active ads matching the placement and geography. An ad
// with no geography allow-list matches every country and city.
func (r *AdRepository) ListActive(ctx context.Context, position types.AdPosition, country, city string) ([]types.Ad, error) {
	query := `SELECT ` + adColumns + ` FROM ads WHERE active = TRUE`
	args := []any{}

	if position != "" {
		args = append(args, position)
		query += ` AND position = $1`
	}
	if country != "" {
		countryJSON, _ := json.Marshal([]string{country})
		args = append(args, string(countryJSON))
		query += ` AND (countries = 'null'::jsonb OR countries @> $` + strconv.Itoa(len(args)) + `::jsonb)`
	}
	if city != "" {
		cityJSON, _ := json.Marshal([]string{city})
		args = append(args, string(cityJSON))
		query += ` AND (cities = 'null'::jsonb OR cities @> $` + strconv.Itoa(len(args)) + `::jsonb)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ads := make([]types.Ad, 0)
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

func (r *AdRepository) Create(ctx context.Context, ad types.Ad) (types.Ad, error) {
	now := time.Now()
	ad.ID = uuid.NewString()
	ad.CreatedAt = now
	ad.UpdatedAt = now

	countries, _ := json.Marshal(ad.Countries)
	cities, _ := json.Marshal(ad.Cities)

	const query = `
		INSERT INTO ads (id, media_url, media_type, link_url, position, countries, cities, active, start_at, end_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		ad.ID,
		ad.MediaURL,
		ad.Type,
		ad.LinkURL,
		ad.Position,
		countries,
		cities,
		ad.Active,
		ad.StartAt,
		ad.EndAt,
		ad.CreatedAt,
		ad.UpdatedAt,
	)
	if err != nil {
		return types.Ad{}, err
	}
	return ad, nil
}

func (r *AdRepository) Update(ctx context.Context, ad types.Ad) (types.Ad, error) {
	ad.UpdatedAt = time.Now()

	countries, _ := json.Marshal(ad.Countries)
	cities, _ := json.Marshal(ad.Cities)

	const query = `
		UPDATE ads
		SET media_url = $1,
			media_type = $2,
			link_url = $3,
			position = $4,
			countries = $5,
			cities = $6,
			active = $7,
			start_at = $8,
			end_at = $9,
			updated_at = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(
		ctx,
		query,
		ad.MediaURL,
		ad.Type,
		ad.LinkURL,
		ad.Position,
		countries,
		cities,
		ad.Active,
		ad.StartAt,
		ad.EndAt,
		ad.UpdatedAt,
		ad.ID,
	)
	if err != nil {
		return types.Ad{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Ad{}, err
	}
	if affected == 0 {
		return types.Ad{}, ErrNotFound
	}
	return ad, nil
}

func (r *AdRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM ads WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

