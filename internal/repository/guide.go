package repository

import (
	"context"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GuideRepository handles database operations for guides
type GuideRepository struct {
	db *pgxpool.Pool
}

// NewGuideRepository creates a new guide repository
func NewGuideRepository(db *pgxpool.Pool) *GuideRepository {
	return &GuideRepository{db: db}
}

// Create creates a new guide
func (r *GuideRepository) Create(ctx context.Context, guide *models.Guide) error {
	query := `
		INSERT INTO guides (id, title, body, category, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		guide.ID, guide.Title, guide.Body, guide.Category, guide.OrderIndex, guide.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create guide: %w", err)
	}
	return nil
}

// GetByID retrieves a guide by ID
func (r *GuideRepository) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	query := `
		SELECT id, title, body, category, order_index, created_at
		FROM guides
		WHERE id = $1
	`
	var guide models.Guide
	err := r.db.QueryRow(ctx, query, id).Scan(
		&guide.ID, &guide.Title, &guide.Body, &guide.Category,
		&guide.OrderIndex, &guide.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("guide not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get guide: %w", err)
	}
	return &guide, nil
}

// List retrieves all guides in display order
func (r *GuideRepository) List(ctx context.Context) ([]*models.Guide, error) {
	query := `
		SELECT id, title, body, category, order_index, created_at
		FROM guides
		ORDER BY order_index, created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list guides: %w", err)
	}
	defer rows.Close()

	var guides []*models.Guide
	for rows.Next() {
		var guide models.Guide
		err := rows.Scan(
			&guide.ID, &guide.Title, &guide.Body, &guide.Category,
			&guide.OrderIndex, &guide.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guide: %w", err)
		}
		guides = append(guides, &guide)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guides: %w", err)
	}
	return guides, nil
}

// Update updates a guide's fields
func (r *GuideRepository) Update(ctx context.Context, guide *models.Guide) error {
	query := `
		UPDATE guides SET title = $1, body = $2, category = $3, order_index = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		guide.Title, guide.Body, guide.Category, guide.OrderIndex, guide.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guide: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("guide not found")
	}
	return nil
}

// Delete deletes a guide by ID
func (r *GuideRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM guides WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete guide: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("guide not found")
	}
	return nil
}
