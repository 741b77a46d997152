package repository

import (
	"context"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaceRepository handles database operations for places
type PlaceRepository struct {
	db *pgxpool.Pool
}

// NewPlaceRepository creates a new place repository
func NewPlaceRepository(db *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create creates a new place
func (r *PlaceRepository) Create(ctx context.Context, place *models.Place) error {
	query := `
		INSERT INTO places (id, name, description, latitude, longitude, category, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		place.ID, place.Name, place.Description, place.Latitude,
		place.Longitude, place.Category, place.ImageURL, place.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

// GetByID retrieves a place by ID
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	query := `
		SELECT id, name, description, latitude, longitude, category, image_url, created_at
		FROM places
		WHERE id = $1
	`
	var place models.Place
	err := r.db.QueryRow(ctx, query, id).Scan(
		&place.ID, &place.Name, &place.Description, &place.Latitude,
		&place.Longitude, &place.Category, &place.ImageURL, &place.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("place not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &place, nil
}

// List retrieves all places
func (r *PlaceRepository) List(ctx context.Context) ([]*models.Place, error) {
	query := `
		SELECT id, name, description, latitude, longitude, category, image_url, created_at
		FROM places
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	var places []*models.Place
	for rows.Next() {
		var place models.Place
		err := rows.Scan(
			&place.ID, &place.Name, &place.Description, &place.Latitude,
			&place.Longitude, &place.Category, &place.ImageURL, &place.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, &place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating places: %w", err)
	}
	return places, nil
}

// Update updates a place's fields
func (r *PlaceRepository) Update(ctx context.Context, place *models.Place) error {
	query := `
		UPDATE places SET name = $1, description = $2, latitude = $3, longitude = $4, category = $5, image_url = $6
		WHERE id = $7
	`
	result, err := r.db.Exec(ctx, query,
		place.Name, place.Description, place.Latitude, place.Longitude,
		place.Category, place.ImageURL, place.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("place not found")
	}
	return nil
}

// Delete deletes a place by ID
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM places WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("place not found")
	}
	return nil
}
