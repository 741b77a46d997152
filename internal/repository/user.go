package repository

import (
	"context"
	"fmt"

	"umrah-companion-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.name, u.phone, u.email, u.role, u.group_id,
	COALESCE(g.name, ''), u.push_token, u.created_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Role,
		&user.GroupID, &user.GroupName, &user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	query := `
		INSERT INTO users (id, name, phone, email, role, group_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Phone, user.Email, user.Role,
		user.GroupID, passwordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u LEFT JOIN groups g ON g.id = u.group_id
		WHERE u.id = $1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByPhone retrieves a user and password hash by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, string, error) {
	query := `
		SELECT ` + userColumns + `, u.password_hash
		FROM users u LEFT JOIN groups g ON g.id = u.group_id
		WHERE u.phone = $1
	`
	var user models.User
	var hash string
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Role,
		&user.GroupID, &user.GroupName, &user.PushToken, &user.CreatedAt, &hash,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", fmt.Errorf("user not found: %w", err)
		}
		return nil, "", fmt.Errorf("failed to get user by phone: %w", err)
	}
	return &user, hash, nil
}

// List retrieves all users ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u LEFT JOIN groups g ON g.id = u.group_id
		ORDER BY u.created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ListByGroup retrieves all users assigned to a group
func (r *UserRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u LEFT JOIN groups g ON g.id = u.group_id
		WHERE u.group_id = $1
		ORDER BY u.created_at
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Update updates a user's profile fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $1, phone = $2, email = $3, role = $4, group_id = $5
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query,
		user.Name, user.Phone, user.Email, user.Role, user.GroupID, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// PhoneExists checks if a phone number is already registered
func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check phone existence: %w", err)
	}
	return exists, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// PushTarget pairs a user with their registered device token
type PushTarget struct {
	UserID string
	Token  string
}

// PushTokensByGroup returns the push targets of a group's members,
// excluding the given user
func (r *UserRepository) PushTokensByGroup(ctx context.Context, groupID, excludeUserID string) ([]PushTarget, error) {
	query := `
		SELECT id, push_token FROM users
		WHERE group_id = $1 AND id <> $2 AND push_token IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query, groupID, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var targets []PushTarget
	for rows.Next() {
		var target PushTarget
		if err := rows.Scan(&target.UserID, &target.Token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push tokens: %w", err)
	}
	return targets, nil
}
