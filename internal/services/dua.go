package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/google/uuid"
)

// DuaService handles dua-related business logic
type DuaService struct {
	duaRepo *repository.DuaRepository
	media   *MediaService
}

// NewDuaService creates a new dua service
func NewDuaService(duaRepo *repository.DuaRepository, media *MediaService) *DuaService {
	return &DuaService{duaRepo: duaRepo, media: media}
}

// DuaInput holds the multipart form fields of a dua create/update. The
// translation arrives as a raw string because the dashboard submits the
// whole form as multipart alongside the audio file.
type DuaInput struct {
	Title          string
	Arabic         string
	RawTranslation string
	Category       string
}

// Validate checks required fields
func (in *DuaInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(in.Arabic) == "" {
		return fmt.Errorf("arabic text is required")
	}
	return nil
}

// CreateDua creates a dua, uploading the optional audio file
func (s *DuaService) CreateDua(ctx context.Context, in *DuaInput, audioName, audioType string, audio io.Reader) (*models.Dua, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	dua := &models.Dua{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Arabic:      in.Arabic,
		Translation: models.ParseTranslation(in.RawTranslation),
		Category:    in.Category,
		CreatedAt:   time.Now(),
	}

	if audio != nil {
		url, err := s.media.StoreDuaAudio(ctx, dua.ID, audioName, audioType, audio)
		if err != nil {
			return nil, err
		}
		dua.AudioURL = url
	}

	if err := s.duaRepo.Create(ctx, dua); err != nil {
		return nil, err
	}
	return dua, nil
}

// UpdateDua updates a dua, replacing the audio file when one is supplied
func (s *DuaService) UpdateDua(ctx context.Context, id string, in *DuaInput, audioName, audioType string, audio io.Reader) (*models.Dua, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	dua, err := s.duaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dua.Title = in.Title
	dua.Arabic = in.Arabic
	dua.Translation = models.ParseTranslation(in.RawTranslation)
	dua.Category = in.Category

	if audio != nil {
		url, err := s.media.StoreDuaAudio(ctx, dua.ID, audioName, audioType, audio)
		if err != nil {
			return nil, err
		}
		dua.AudioURL = url
	}

	if err := s.duaRepo.Update(ctx, dua); err != nil {
		return nil, err
	}
	return dua, nil
}

// DeleteDua deletes a dua
func (s *DuaService) DeleteDua(ctx context.Context, id string) error {
	return s.duaRepo.Delete(ctx, id)
}

// ListDuas retrieves duas, optionally filtered by category
func (s *DuaService) ListDuas(ctx context.Context, category string) ([]*models.Dua, error) {
	return s.duaRepo.List(ctx, category)
}

// GetDua retrieves one dua
func (s *DuaService) GetDua(ctx context.Context, id string) (*models.Dua, error) {
	return s.duaRepo.GetByID(ctx, id)
}

// Categories retrieves the distinct dua categories
func (s *DuaService) Categories(ctx context.Context) ([]string, error) {
	return s.duaRepo.Categories(ctx)
}
