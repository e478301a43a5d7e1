package storage

import (
	"context"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/domain/user"
)

// UserFilter narrows ListUsers.
type UserFilter struct {
	Role   user.Role
	Active *bool
	GymID  string
	Limit  int
	Offset int
}

// UserCounts is the aggregate user breakdown exposed to admins.
type UserCounts struct {
	Total       int `json:"totalUsers"`
	Active      int `json:"activeUsers"`
	Inactive    int `json:"inactiveUsers"`
	SuperAdmins int `json:"superAdmins"`
	GymOwners   int `json:"gymOwners"`
	Regular     int `json:"regularUsers"`
}

// UserStore persists user accounts. AddBadge, AddScore, AddFriend,
// RemoveFriend and IncrementStats must be atomic single-document updates.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]user.User, error)
	CountUsers(ctx context.Context) (UserCounts, error)
	DeleteUser(ctx context.Context, id string) error

	// AddBadge adds the badge to the user's badge set and reports whether
	// it was newly added (false when already owned).
	AddBadge(ctx context.Context, userID, badgeID string) (bool, error)
	AddScore(ctx context.Context, userID string, points int) error
	AddFriend(ctx context.Context, userID, friendID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
	IncrementStats(ctx context.Context, userID string, delta user.StatsDelta) error
	TopUsers(ctx context.Context, limit int) ([]user.User, error)
}

// SessionStore persists bearer sessions. FindActiveSession returns
// ErrNotFound for unknown and expired sessions alike.
type SessionStore interface {
	CreateSession(ctx context.Context, s session.Session) (session.Session, error)
	FindActiveSession(ctx context.Context, id string) (session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// GymStore persists gyms.
type GymStore interface {
	CreateGym(ctx context.Context, g gym.Gym) (gym.Gym, error)
	UpdateGym(ctx context.Context, g gym.Gym) (gym.Gym, error)
	GetGym(ctx context.Context, id string) (gym.Gym, error)
	GetGymByOwner(ctx context.Context, ownerID string) (gym.Gym, error)
	ListGyms(ctx context.Context, status gym.Status) ([]gym.Gym, error)
	DeleteGym(ctx context.Context, id string) error
}

// ExerciseStore persists the exercise catalog. Names are unique.
type ExerciseStore interface {
	CreateExercise(ctx context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error)
	UpdateExercise(ctx context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error)
	GetExercise(ctx context.Context, id string) (exercise.TypeExercise, error)
	ListExercises(ctx context.Context) ([]exercise.TypeExercise, error)
	DeleteExercise(ctx context.Context, id string) error
}

// BadgeStore persists badge definitions. Names are unique.
type BadgeStore interface {
	CreateBadge(ctx context.Context, b badge.Badge) (badge.Badge, error)
	UpdateBadge(ctx context.Context, b badge.Badge) (badge.Badge, error)
	GetBadge(ctx context.Context, id string) (badge.Badge, error)
	ListBadges(ctx context.Context, activeOnly bool, badgeType badge.Type) ([]badge.Badge, error)
	DeleteBadge(ctx context.Context, id string) error
}

// ChallengeFilter narrows ListChallenges.
type ChallengeFilter struct {
	Status     challenge.Status
	Difficulty challenge.Difficulty
	Type       challenge.Type
	GymID      string
	CreatedBy  string
	Public     *bool
	Search     string
}

// ChallengeStore persists challenge definitions. AddParticipants is an
// atomic counter move; the participant count is never recomputed.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error)
	UpdateChallenge(ctx context.Context, c challenge.Challenge) (challenge.Challenge, error)
	GetChallenge(ctx context.Context, id string) (challenge.Challenge, error)
	ListChallenges(ctx context.Context, filter ChallengeFilter) ([]challenge.Challenge, error)
	AddParticipants(ctx context.Context, id string, delta int) error
	DeleteChallenge(ctx context.Context, id string) error
}

// ParticipationStore persists participations. CreateParticipation returns
// ErrConflict when a participation already exists for the (user, challenge)
// pair; AppendWorkoutSession pushes the session and increments the
// cumulative totals in one atomic update.
type ParticipationStore interface {
	CreateParticipation(ctx context.Context, p participation.Participation) (participation.Participation, error)
	UpdateParticipation(ctx context.Context, p participation.Participation) (participation.Participation, error)
	GetParticipation(ctx context.Context, id string) (participation.Participation, error)
	GetUserChallengeParticipation(ctx context.Context, userID, challengeID string) (participation.Participation, error)
	ListUserParticipations(ctx context.Context, userID string) ([]participation.Participation, error)
	AppendWorkoutSession(ctx context.Context, id string, ws participation.WorkoutSession) (participation.Participation, error)
	Leaderboard(ctx context.Context, challengeID string, limit int) ([]participation.Participation, error)
	DeleteParticipation(ctx context.Context, id string) error
}

// InvitationStore persists invitations. CreateInvitation returns ErrConflict
// when a PENDING invitation already exists for the same triple.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error)
	UpdateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error)
	GetInvitation(ctx context.Context, id string) (invitation.Invitation, error)
	FindPendingInvitation(ctx context.Context, challengeID, fromUserID, toUserID string) (invitation.Invitation, error)
	ListReceivedInvitations(ctx context.Context, userID string, status invitation.Status) ([]invitation.Invitation, error)
	ListSentInvitations(ctx context.Context, userID string) ([]invitation.Invitation, error)
	// ExpirePendingInvitations marks every PENDING invitation whose expiry
	// has passed as EXPIRED and returns how many were touched.
	ExpirePendingInvitations(ctx context.Context, now time.Time) (int, error)
}
