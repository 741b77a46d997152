package repository

import (
	"context"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	m.id, m.group_id, m.content, m.image_url, m.created_at, m.is_edited, m.is_deleted,
	m.sender_id, COALESCE(u.name, ''), COALESCE(u.role, '')
`

func scanMessage(row pgx.Row) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := row.Scan(
		&msg.ID, &msg.GroupID, &msg.Content, &msg.ImageURL,
		&msg.CreatedAt, &msg.IsEdited, &msg.IsDeleted,
		&msg.Sender.ID, &msg.Sender.Name, &msg.Sender.Role,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Create persists a new chat message
func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO messages (id, group_id, sender_id, content, image_url, created_at, is_edited, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.GroupID, msg.Sender.ID, msg.Content, msg.ImageURL,
		msg.CreatedAt, msg.IsEdited, msg.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1
	`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("message not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListByGroup retrieves a group's messages oldest-first with pagination
func (r *MessageRepository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*models.ChatMessage, int, error) {
	countQuery := `SELECT COUNT(*) FROM messages WHERE group_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages m LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.group_id = $1
		ORDER BY m.created_at
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, total, nil
}

// UpdateContent replaces a message's content and marks it edited
func (r *MessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := `UPDATE messages SET content = $1, is_edited = TRUE WHERE id = $2 AND is_deleted = FALSE`
	result, err := r.db.Exec(ctx, query, content, id)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found")
	}
	return nil
}

// SoftDelete clears a message's content and marks it deleted. The row is
// kept so history ordering is preserved.
func (r *MessageRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE messages SET content = '', image_url = '', is_deleted = TRUE WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found")
	}
	return nil
}
