package participation

import "time"

// Status is the per-user progress state within one challenge.
// JOINED and IN_PROGRESS are live; COMPLETED and ABANDONED are terminal.
type Status string

const (
	StatusJoined     Status = "JOINED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusAbandoned  Status = "ABANDONED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ExerciseResult is one exercise performed during a workout session.
type ExerciseResult struct {
	ExerciseID     string `json:"exerciseId"`
	Sets           int    `json:"sets,omitempty"`
	Reps           int    `json:"reps,omitempty"`
	Duration       int    `json:"duration,omitempty"` // minutes
	Weight         int    `json:"weight,omitempty"`   // kg
	Distance       int    `json:"distance,omitempty"` // meters
	CaloriesBurned int    `json:"caloriesBurned,omitempty"`
	Completed      bool   `json:"completed"`
}

// WorkoutSession is one logged training session. TotalDuration and
// TotalCalories are inputs supplied by the caller, not derived here.
type WorkoutSession struct {
	Date          time.Time        `json:"date"`
	Exercises     []ExerciseResult `json:"exercises"`
	TotalDuration int              `json:"totalDuration"` // minutes
	TotalCalories int              `json:"totalCalories"`
	Notes         string           `json:"notes,omitempty"`
}

// PersonalBest records a participant's best single result in the challenge.
type PersonalBest struct {
	Type       string    `json:"type"` // "time", "weight", "reps", "distance"
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	AchievedAt time.Time `json:"achievedAt"`
}

// Participation is a user's enrollment and progress record within one
// challenge. At most one non-deleted participation exists per
// (user, challenge) pair.
type Participation struct {
	ID          string
	ChallengeID string
	UserID      string

	Status   Status
	Progress int // 0-100

	WorkoutSessions []WorkoutSession

	JoinedAt    time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	TotalWorkouts int
	TotalDuration int // minutes
	TotalCalories int
	PersonalBest  *PersonalBest

	InvitedBy string
	TeamID    string

	BadgesEarned []string
	PointsEarned int

	CreatedAt time.Time
	UpdatedAt time.Time
}
