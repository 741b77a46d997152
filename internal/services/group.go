package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/repository"

	"github.com/google/uuid"
)

// GroupService handles group-related business logic
type GroupService struct {
	groupRepo    *repository.GroupRepository
	userRepo     *repository.UserRepository
	locationRepo *repository.LocationRepository
}

// NewGroupService creates a new group service
func NewGroupService(
	groupRepo *repository.GroupRepository,
	userRepo *repository.UserRepository,
	locationRepo *repository.LocationRepository,
) *GroupService {
	return &GroupService{
		groupRepo:    groupRepo,
		userRepo:     userRepo,
		locationRepo: locationRepo,
	}
}

// activeWindow is how recently a member must have reported a location to
// count toward a group's active-member tally.
const activeWindow = 5 * time.Minute

// assembleMembers fills a group's member list from user assignments and
// computes the member counters.
func (s *GroupService) assembleMembers(ctx context.Context, group *models.Group) error {
	users, err := s.userRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return err
	}

	members := make([]models.MemberRef, 0, len(users))
	active := 0
	for _, u := range users {
		members = append(members, models.MemberRef{
			ID:       u.ID,
			Name:     u.Name,
			Phone:    u.Phone,
			Role:     u.Role,
			JoinedAt: u.CreatedAt,
		})
		if rec, err := s.locationRepo.GetByUserID(ctx, u.ID); err == nil {
			if time.Since(rec.LastSeenAt) <= activeWindow {
				active++
			}
		}
	}

	group.Members = members
	group.TotalMembers = len(members)
	group.ActiveMembers = active
	return nil
}

// ListGroups retrieves all groups with assembled member lists
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		if err := s.assembleMembers(ctx, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// GetGroup retrieves one group with its member list
func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.assembleMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	Name     string `json:"name"`
	AmirID   string `json:"amir_id"`
	Location string `json:"location"`
}

// CreateGroup creates a group led by an existing user. The chosen leader
// is promoted to the amir role and assigned to the new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*models.Group, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.AmirID == "" {
		return nil, fmt.Errorf("a leader must be selected")
	}

	amir, err := s.userRepo.GetByID(ctx, req.AmirID)
	if err != nil {
		return nil, fmt.Errorf("leader not found")
	}

	now := time.Now()
	group := &models.Group{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Amir:         amir.Name,
		AmirID:       &amir.ID,
		Location:     req.Location,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	amir.Role = models.RoleAmir
	amir.GroupID = &group.ID
	if err := s.userRepo.Update(ctx, amir); err != nil {
		return nil, fmt.Errorf("failed to assign leader: %w", err)
	}

	if err := s.assembleMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateGroupRequest represents a request to update a group
type UpdateGroupRequest struct {
	Name     string `json:"name"`
	AmirID   string `json:"amir_id"`
	Location string `json:"location"`
}

// UpdateGroup updates a group's fields
func (s *GroupService) UpdateGroup(ctx context.Context, id string, req *UpdateGroupRequest) (*models.Group, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}

	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	group.Name = req.Name
	group.Location = req.Location
	if req.AmirID != "" {
		amir, err := s.userRepo.GetByID(ctx, req.AmirID)
		if err != nil {
			return nil, fmt.Errorf("leader not found")
		}
		group.Amir = amir.Name
		group.AmirID = &amir.ID

		amir.Role = models.RoleAmir
		amir.GroupID = &group.ID
		if err := s.userRepo.Update(ctx, amir); err != nil {
			return nil, fmt.Errorf("failed to assign leader: %w", err)
		}
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}

	if err := s.assembleMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup deletes a group and unassigns its members
func (s *GroupService) DeleteGroup(ctx context.Context, id string) error {
	return s.groupRepo.Delete(ctx, id)
}

// TouchActivity records chat activity for a group
func (s *GroupService) TouchActivity(ctx context.Context, id string) error {
	return s.groupRepo.TouchActivity(ctx, id)
}
