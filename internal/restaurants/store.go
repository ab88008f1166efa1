package restaurants

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"places-workers/internal/common/database"
	"places-workers/internal/models"
)

// Store persists restaurants keyed by name.
type Store interface {
	Upsert(ctx context.Context, r models.RestaurantRecord) error
	ListWithLocation(ctx context.Context) ([]models.RestaurantRecord, error)
}

// SQLStore implements Store over PostgreSQL or SQLite. contact and location
// are stored as JSON documents.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// placeholders rewrites $n markers for drivers that only accept '?'.
func (s *SQLStore) placeholders(query string) string {
	if s.driver != database.DriverSQLite {
		return query
	}
	for i := 9; i >= 1; i-- {
		query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), "?")
	}
	return query
}

const upsertQuery = `INSERT INTO restaurants (id, name, photo, contact, location, updated_at)
VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET
	photo = EXCLUDED.photo,
	contact = EXCLUDED.contact,
	location = EXCLUDED.location,
	updated_at = CURRENT_TIMESTAMP`

const listQuery = `SELECT id, name, photo, contact, location FROM restaurants WHERE location IS NOT NULL`

// Upsert inserts r or, when a restaurant with the same name exists,
// overwrites its photo, contact and location. The stored id is kept.
func (s *SQLStore) Upsert(ctx context.Context, r models.RestaurantRecord) error {
	contact, err := json.Marshal(r.Contact)
	if err != nil {
		return fmt.Errorf("encoding contact: %w", err)
	}

	var location interface{}
	if r.Location != nil {
		raw, err := json.Marshal(r.Location)
		if err != nil {
			return fmt.Errorf("encoding location: %w", err)
		}
		location = string(raw)
	}

	var photo interface{}
	if r.Photo != nil {
		photo = *r.Photo
	}

	_, err = s.db.ExecContext(ctx, s.placeholders(upsertQuery),
		r.ID, r.Name, photo, string(contact), location)
	if err != nil {
		return fmt.Errorf("upserting restaurant %q: %w", r.Name, err)
	}
	return nil
}

func (s *SQLStore) ListWithLocation(ctx context.Context) ([]models.RestaurantRecord, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	defer rows.Close()

	out := []models.RestaurantRecord{}
	for rows.Next() {
		var (
			rec      models.RestaurantRecord
			photo    sql.NullString
			contact  sql.NullString
			location sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &photo, &contact, &location); err != nil {
			return nil, fmt.Errorf("scanning restaurant: %w", err)
		}
		if photo.Valid {
			p := photo.String
			rec.Photo = &p
		}
		if contact.Valid && contact.String != "" {
			if err := json.Unmarshal([]byte(contact.String), &rec.Contact); err != nil {
				return nil, fmt.Errorf("decoding contact of %q: %w", rec.Name, err)
			}
		}
		if location.Valid {
			var loc models.RestaurantLocation
			if err := json.Unmarshal([]byte(location.String), &loc); err != nil {
				return nil, fmt.Errorf("decoding location of %q: %w", rec.Name, err)
			}
			rec.Location = &loc
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating restaurants: %w", err)
	}
	return out, nil
}
