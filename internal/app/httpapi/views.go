package httpapi

import (
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/user"
)

// The view types shape domain structs into the wire format. The password
// hash never leaves the service layer.

type userView struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Role                user.Role  `json:"role"`
	Active              bool       `json:"active"`
	TotalScore          int        `json:"totalScore"`
	Badges              []string   `json:"badges"`
	Friends             []string   `json:"friends"`
	GymID               string     `json:"gymId,omitempty"`
	ChallengesCompleted int        `json:"challengesCompleted"`
	TotalCaloriesBurned int        `json:"totalCaloriesBurned"`
	StreakDays          int        `json:"streakDays"`
	LastActivityAt      *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func newUserView(u user.User) userView {
	v := userView{
		ID:                  u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Role:                u.Role,
		Active:              u.Active,
		TotalScore:          u.TotalScore,
		Badges:              emptyIfNil(u.Badges),
		Friends:             emptyIfNil(u.Friends),
		GymID:               u.GymID,
		ChallengesCompleted: u.ChallengesCompleted,
		TotalCaloriesBurned: u.TotalCaloriesBurned,
		StreakDays:          u.StreakDays,
		CreatedAt:           u.CreatedAt,
	}
	if !u.LastActivityAt.IsZero() {
		t := u.LastActivityAt
		v.LastActivityAt = &t
	}
	return v
}

func newUserViews(users []user.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, newUserView(u))
	}
	return out
}

type gymView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Capacity    int        `json:"capacity"`
	Equipment   []string   `json:"equipment"`
	OwnerID     string     `json:"ownerId"`
	Status      gym.Status `json:"status"`
	ApprovedBy  string     `json:"approvedBy,omitempty"`
	ExerciseIDs []string   `json:"exerciseIds"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newGymView(g gym.Gym) gymView {
	return gymView{
		ID:          g.ID,
		Name:        g.Name,
		Location:    g.Location,
		Description: g.Description,
		Capacity:    g.Capacity,
		Equipment:   emptyIfNil(g.Equipment),
		OwnerID:     g.OwnerID,
		Status:      g.Status,
		ApprovedBy:  g.ApprovedBy,
		ExerciseIDs: emptyIfNil(g.ExerciseIDs),
		CreatedAt:   g.CreatedAt,
	}
}

func newGymViews(gyms []gym.Gym) []gymView {
	out := make([]gymView, 0, len(gyms))
	for _, g := range gyms {
		out = append(out, newGymView(g))
	}
	return out
}

type exerciseView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	TargetedMuscles []string  `json:"targetedMuscles"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newExerciseView(e exercise.TypeExercise) exerciseView {
	return exerciseView{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		TargetedMuscles: emptyIfNil(e.TargetedMuscles),
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

func newExerciseViews(list []exercise.TypeExercise) []exerciseView {
	out := make([]exerciseView, 0, len(list))
	for _, e := range list {
		out = append(out, newExerciseView(e))
	}
	return out
}

type badgeView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        badge.Type   `json:"type"`
	Rules       []badge.Rule `json:"rules"`
	Points      int          `json:"points"`
	Active      bool         `json:"active"`
	CreatedBy   string       `json:"createdBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func newBadgeView(b badge.Badge) badgeView {
	return badgeView{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Type:        b.Type,
		Rules:       b.Rules,
		Points:      b.Points,
		Active:      b.Active,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
	}
}

func newBadgeViews(list []badge.Badge) []badgeView {
	out := make([]badgeView, 0, len(list))
	for _, b := range list {
		out = append(out, newBadgeView(b))
	}
	return out
}

type challengeView struct {
	ID                  string               `json:"id"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Type                challenge.Type       `json:"type"`
	Difficulty          challenge.Difficulty `json:"difficulty"`
	Status              challenge.Status     `json:"status"`
	Exercises           []challenge.Exercise `json:"exercises"`
	Goals               []challenge.Goal     `json:"goals"`
	DurationDays        int                  `json:"durationDays"`
	MaxParticipants     int                  `json:"maxParticipants"`
	CurrentParticipants int                  `json:"currentParticipants"`
	StartDate           *time.Time           `json:"startDate,omitempty"`
	EndDate             *time.Time           `json:"endDate,omitempty"`
	CreatedBy           string               `json:"createdBy"`
	GymID               string               `json:"gymId,omitempty"`
	IsPublic            bool                 `json:"isPublic"`
	InviteOnly          bool                 `json:"inviteOnly"`
	TeamBased           bool                 `json:"teamBased"`
	Rewards             *challenge.Rewards   `json:"rewards,omitempty"`
	EstimatedCalories   int                  `json:"estimatedCalories"`
	Tags                []string             `json:"tags"`
	CreatedAt           time.Time            `json:"createdAt"`
}

func newChallengeView(c challenge.Challenge) challengeView {
	v := challengeView{
		ID:                  c.ID,
		Title:               c.Title,
		Description:         c.Description,
		Type:                c.Type,
		Difficulty:          c.Difficulty,
		Status:              c.Status,
		Exercises:           c.Exercises,
		Goals:               c.Goals,
		DurationDays:        c.DurationDays,
		MaxParticipants:     c.MaxParticipants,
		CurrentParticipants: c.CurrentParticipants,
		CreatedBy:           c.CreatedBy,
		GymID:               c.GymID,
		IsPublic:            c.IsPublic,
		InviteOnly:          c.InviteOnly,
		TeamBased:           c.TeamBased,
		Rewards:             c.Rewards,
		EstimatedCalories:   c.EstimatedCalories,
		Tags:                emptyIfNil(c.Tags),
		CreatedAt:           c.CreatedAt,
	}
	if v.Exercises == nil {
		v.Exercises = []challenge.Exercise{}
	}
	if v.Goals == nil {
		v.Goals = []challenge.Goal{}
	}
	if !c.StartDate.IsZero() {
		t := c.StartDate
		v.StartDate = &t
	}
	if !c.EndDate.IsZero() {
		t := c.EndDate
		v.EndDate = &t
	}
	return v
}

func newChallengeViews(list []challenge.Challenge) []challengeView {
	out := make([]challengeView, 0, len(list))
	for _, c := range list {
		out = append(out, newChallengeView(c))
	}
	return out
}

type participationView struct {
	ID              string                         `json:"id"`
	ChallengeID     string                         `json:"challengeId"`
	UserID          string                         `json:"userId"`
	Status          participation.Status           `json:"status"`
	Progress        int                            `json:"progress"`
	WorkoutSessions []participation.WorkoutSession `json:"workoutSessions"`
	JoinedAt        time.Time                      `json:"joinedAt"`
	StartedAt       *time.Time                     `json:"startedAt,omitempty"`
	CompletedAt     *time.Time                     `json:"completedAt,omitempty"`
	TotalWorkouts   int                            `json:"totalWorkouts"`
	TotalDuration   int                            `json:"totalDuration"`
	TotalCalories   int                            `json:"totalCalories"`
	PersonalBest    *participation.PersonalBest    `json:"personalBest,omitempty"`
	InvitedBy       string                         `json:"invitedBy,omitempty"`
	TeamID          string                         `json:"teamId,omitempty"`
	BadgesEarned    []string                       `json:"badgesEarned"`
	PointsEarned    int                            `json:"pointsEarned"`
}

func newParticipationView(p participation.Participation) participationView {
	v := participationView{
		ID:              p.ID,
		ChallengeID:     p.ChallengeID,
		UserID:          p.UserID,
		Status:          p.Status,
		Progress:        p.Progress,
		WorkoutSessions: p.WorkoutSessions,
		JoinedAt:        p.JoinedAt,
		TotalWorkouts:   p.TotalWorkouts,
		TotalDuration:   p.TotalDuration,
		TotalCalories:   p.TotalCalories,
		PersonalBest:    p.PersonalBest,
		InvitedBy:       p.InvitedBy,
		TeamID:          p.TeamID,
		BadgesEarned:    emptyIfNil(p.BadgesEarned),
		PointsEarned:    p.PointsEarned,
	}
	if v.WorkoutSessions == nil {
		v.WorkoutSessions = []participation.WorkoutSession{}
	}
	if !p.StartedAt.IsZero() {
		t := p.StartedAt
		v.StartedAt = &t
	}
	if !p.CompletedAt.IsZero() {
		t := p.CompletedAt
		v.CompletedAt = &t
	}
	return v
}

func newParticipationViews(list []participation.Participation) []participationView {
	out := make([]participationView, 0, len(list))
	for _, p := range list {
		out = append(out, newParticipationView(p))
	}
	return out
}

type invitationView struct {
	ID          string            `json:"id"`
	ChallengeID string            `json:"challengeId"`
	FromUserID  string            `json:"fromUserId"`
	ToUserID    string            `json:"toUserId"`
	Type        invitation.Type   `json:"type"`
	Status      invitation.Status `json:"status"`
	Message     string            `json:"message,omitempty"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func newInvitationView(inv invitation.Invitation) invitationView {
	return invitationView{
		ID:          inv.ID,
		ChallengeID: inv.ChallengeID,
		FromUserID:  inv.FromUserID,
		ToUserID:    inv.ToUserID,
		Type:        inv.Type,
		Status:      inv.Status,
		Message:     inv.Message,
		ExpiresAt:   inv.ExpiresAt,
		CreatedAt:   inv.CreatedAt,
	}
}

func newInvitationViews(list []invitation.Invitation) []invitationView {
	out := make([]invitationView, 0, len(list))
	for _, inv := range list {
		out = append(out, newInvitationView(inv))
	}
	return out
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
