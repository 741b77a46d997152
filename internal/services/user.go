package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLength = 10
	// Mixed-case alphanumerics plus a restricted symbol set. Visually
	// ambiguous glyphs (0/O, 1/l/I) are excluded so staff can read a
	// generated password over the phone.
	passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%"
	jwtExpDays    = 30
)

// UserService handles user-related business logic
type UserService struct {
	userRepo  *repository.UserRepository
	groupRepo *repository.GroupRepository
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, groupRepo *repository.GroupRepository, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
		jwtSecret: jwtSecret,
	}
}

// GeneratePassword generates a random 10-character password
func GeneratePassword() string {
	pw := make([]byte, passwordLength)
	for i := range pw {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		pw[i] = passwordChars[n.Int64()]
	}
	return string(pw)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID and role
func (s *UserService) ValidateJWT(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("user_id not found in token")
	}

	role, _ := claims["role"].(string)

	return userID, role, nil
}

// Login verifies credentials and issues a token
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	user, hash, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, err := s.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	GroupID  *string `json:"group_id"`
	Password string  `json:"password"`
}

// Validate checks the request before any remote work happens
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if r.Role == models.RoleAmir && (r.GroupID == nil || *r.GroupID == "") {
		return fmt.Errorf("amir role requires a group")
	}
	return nil
}

// CreateUser creates a new user. When no password is supplied one is
// generated and returned once in the created record.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.PhoneExists(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("phone already registered")
	}

	if req.GroupID != nil && *req.GroupID != "" {
		groupExists, err := s.groupRepo.Exists(ctx, *req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to check group: %w", err)
		}
		if !groupExists {
			return nil, fmt.Errorf("group not found")
		}
	}

	role := req.Role
	if role == "" {
		role = models.RolePilgrim
	}

	password := req.Password
	if password == "" {
		password = GeneratePassword()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Role:      role,
		GroupID:   req.GroupID,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user, string(hash)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Returned exactly once so the dashboard can show it to staff.
	user.Password = password

	return user, nil
}

// UpdateUserRequest represents a request to update a user
type UpdateUserRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	GroupID *string `json:"group_id"`
}

// UpdateUser updates a user's profile
func (s *UserService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if req.Role == models.RoleAmir && (req.GroupID == nil || *req.GroupID == "") {
		return nil, fmt.Errorf("amir role requires a group")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Phone = req.Phone
	user.Email = req.Email
	user.Role = req.Role
	user.GroupID = req.GroupID

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, id)
}

// DeleteUser deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}

// ListUsers retrieves all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

// GetUser retrieves one user
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// RegisterPushToken stores a device push token for a user
func (s *UserService) RegisterPushToken(ctx context.Context, userID string, token *string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, token)
}
