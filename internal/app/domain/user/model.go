package user

import "time"

// Role controls which routes an account may call.
type Role string

const (
	RoleUser       Role = "USER"
	RoleGymOwner   Role = "GYM_OWNER"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGymOwner, RoleSuperAdmin:
		return true
	}
	return false
}

// User is an account in the fitness platform. Badges and Friends are ID sets;
// both are mutated through atomic set-add/set-remove store operations, never
// by rewriting the whole document.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Active       bool

	TotalScore int
	Badges     []string
	Friends    []string
	GymID      string

	ChallengesCompleted int
	TotalCaloriesBurned int
	StreakDays          int
	LastActivityAt      time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBadge reports whether the badge ID is already in the user's badge set.
func (u User) HasBadge(badgeID string) bool {
	for _, id := range u.Badges {
		if id == badgeID {
			return true
		}
	}
	return false
}

// HasFriend reports whether the given user ID is in the friend set.
func (u User) HasFriend(friendID string) bool {
	for _, id := range u.Friends {
		if id == friendID {
			return true
		}
	}
	return false
}

// StatsDelta describes an atomic increment applied to a user's aggregate
// stats.
type StatsDelta struct {
	ChallengesCompleted int
	TotalCaloriesBurned int
	StreakDays          int
	LastActivityAt      time.Time
}
