package repository

import (
	"context"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository handles database operations for user locations
type LocationRepository struct {
	db *pgxpool.Pool
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

// Upsert stores the latest known location for a user
func (r *LocationRepository) Upsert(ctx context.Context, rec *models.LocationRecord) error {
	query := `
		INSERT INTO locations (user_id, latitude, longitude, last_seen_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET latitude = $2, longitude = $3, last_seen_at = $4
	`
	_, err := r.db.Exec(ctx, query, rec.UserID, rec.Latitude, rec.Longitude, rec.LastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}
	return nil
}

// GetByUserID retrieves the latest location for a user
func (r *LocationRepository) GetByUserID(ctx context.Context, userID string) (*models.LocationRecord, error) {
	query := `
		SELECT user_id, latitude, longitude, last_seen_at
		FROM locations
		WHERE user_id = $1
	`
	var rec models.LocationRecord
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&rec.UserID, &rec.Latitude, &rec.Longitude, &rec.LastSeenAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("location not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &rec, nil
}

// List retrieves the latest location of every user
func (r *LocationRepository) List(ctx context.Context) ([]*models.LocationRecord, error) {
	query := `
		SELECT user_id, latitude, longitude, last_seen_at
		FROM locations
		ORDER BY last_seen_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var records []*models.LocationRecord
	for rows.Next() {
		var rec models.LocationRecord
		err := rows.Scan(&rec.UserID, &rec.Latitude, &rec.Longitude, &rec.LastSeenAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}
	return records, nil
}
