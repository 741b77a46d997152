package services

import (
	"context"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"
)

// MessageService handles chat-history business logic
type MessageService struct {
	messageRepo *repository.MessageRepository
}

// NewMessageService creates a new message service
func NewMessageService(messageRepo *repository.MessageRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo}
}

// History retrieves a group's messages oldest-first with pagination
func (s *MessageService) History(ctx context.Context, groupID string, limit, offset int) ([]*models.ChatMessage, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return s.messageRepo.ListByGroup(ctx, groupID, limit, offset)
}
