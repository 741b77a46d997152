package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DuaRepository handles database operations for duas
type DuaRepository struct {
	db *pgxpool.Pool
}

// NewDuaRepository creates a new dua repository
func NewDuaRepository(db *pgxpool.Pool) *DuaRepository {
	return &DuaRepository{db: db}
}

func scanDua(row pgx.Row) (*models.Dua, error) {
	var dua models.Dua
	var rawTranslation string
	err := row.Scan(
		&dua.ID, &dua.Title, &dua.Arabic, &rawTranslation,
		&dua.Category, &dua.AudioURL, &dua.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Legacy rows may hold double-encoded JSON; normalization never fails.
	dua.Translation = models.ParseTranslation(rawTranslation)
	return &dua, nil
}

// Create creates a new dua
func (r *DuaRepository) Create(ctx context.Context, dua *models.Dua) error {
	translation, err := json.Marshal(dua.Translation)
	if err != nil {
		return fmt.Errorf("failed to marshal translation: %w", err)
	}
	query := `
		INSERT INTO duas (id, title, arabic, translation, category, audio_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		dua.ID, dua.Title, dua.Arabic, string(translation),
		dua.Category, dua.AudioURL, dua.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dua: %w", err)
	}
	return nil
}

// GetByID retrieves a dua by ID
func (r *DuaRepository) GetByID(ctx context.Context, id string) (*models.Dua, error) {
	query := `
		SELECT id, title, arabic, translation, category, audio_url, created_at
		FROM duas
		WHERE id = $1
	`
	dua, err := scanDua(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("dua not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get dua: %w", err)
	}
	return dua, nil
}

// List retrieves all duas, optionally filtered by category
func (r *DuaRepository) List(ctx context.Context, category string) ([]*models.Dua, error) {
	query := `
		SELECT id, title, arabic, translation, category, audio_url, created_at
		FROM duas
		WHERE $1 = '' OR category = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list duas: %w", err)
	}
	defer rows.Close()

	var duas []*models.Dua
	for rows.Next() {
		dua, err := scanDua(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dua: %w", err)
		}
		duas = append(duas, dua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duas: %w", err)
	}
	return duas, nil
}

// Categories retrieves the distinct dua categories
func (r *DuaRepository) Categories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT category FROM duas WHERE category <> '' ORDER BY category`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Update updates a dua's fields
func (r *DuaRepository) Update(ctx context.Context, dua *models.Dua) error {
	translation, err := json.Marshal(dua.Translation)
	if err != nil {
		return fmt.Errorf("failed to marshal translation: %w", err)
	}
	query := `
		UPDATE duas SET title = $1, arabic = $2, translation = $3, category = $4, audio_url = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query,
		dua.Title, dua.Arabic, string(translation), dua.Category, dua.AudioURL, dua.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dua: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dua not found")
	}
	return nil
}

// Delete deletes a dua by ID
func (r *DuaRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM duas WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dua: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("dua not found")
	}
	return nil
}
