package session

import (
	"time"

	"umrah-companion-backend/internal/models"
)

// NormalizeGroup guarantees a group's member list contains its designated
// leader, even when the backend omits it. The input is never mutated; a
// new group value is returned. Applying the result again is a no-op.
//
// Leader resolution precedence is fixed: amir id match, then leader
// display-name match, then any member holding the amir role. The order
// is load-bearing and must not be "improved".
func NormalizeGroup(group *models.Group, users []models.User) *models.Group {
	if group == nil {
		return nil
	}

	out := *group
	out.Members = append([]models.MemberRef(nil), group.Members...)

	if leaderPresent(&out) {
		if len(out.Members) > out.TotalMembers {
			out.TotalMembers = len(out.Members)
		}
		return &out
	}

	leader := resolveLeader(&out, users)
	out.Members = append([]models.MemberRef{leader}, out.Members...)
	if len(out.Members) > out.TotalMembers {
		out.TotalMembers = len(out.Members)
	}
	return &out
}

func leaderPresent(group *models.Group) bool {
	if group.AmirID != nil && *group.AmirID != "" {
		for _, m := range group.Members {
			if m.ID == *group.AmirID {
				return true
			}
		}
	}
	if group.Amir != "" {
		for _, m := range group.Members {
			if m.Name == group.Amir {
				return true
			}
		}
	}
	for _, m := range group.Members {
		if m.Role == models.RoleAmir {
			return true
		}
	}
	return false
}

// resolveLeader finds the leader's full profile in the user list, or
// synthesizes a placeholder when no profile exists.
func resolveLeader(group *models.Group, users []models.User) models.MemberRef {
	if group.AmirID != nil && *group.AmirID != "" {
		for _, u := range users {
			if u.ID == *group.AmirID {
				return leaderRef(u)
			}
		}
	}
	if group.Amir != "" {
		for _, u := range users {
			if u.Name == group.Amir {
				return leaderRef(u)
			}
		}
	}

	name := group.Amir
	if name == "" {
		name = "Amir"
	}
	return models.MemberRef{
		ID:       "amir-" + group.ID,
		Name:     name,
		Phone:    "",
		Role:     models.RoleAmir,
		JoinedAt: time.Now(),
	}
}

func leaderRef(u models.User) models.MemberRef {
	return models.MemberRef{
		ID:       u.ID,
		Name:     u.Name,
		Phone:    u.Phone,
		Role:     models.RoleAmir,
		JoinedAt: u.CreatedAt,
	}
}
