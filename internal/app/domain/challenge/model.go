package challenge

import "time"

// Status is the lifecycle state of a challenge definition.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Type distinguishes solo, group and head-to-head challenges.
type Type string

const (
	TypeIndividual  Type = "INDIVIDUAL"
	TypeGroup       Type = "GROUP"
	TypeCompetitive Type = "COMPETITIVE"
)

// Difficulty is the declared difficulty of a challenge.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// Valid reports whether the difficulty is one of the known values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// GoalType is what a challenge goal measures.
type GoalType string

const (
	GoalTime     GoalType = "TIME"
	GoalReps     GoalType = "REPS"
	GoalWeight   GoalType = "WEIGHT"
	GoalDistance GoalType = "DISTANCE"
	GoalCalories GoalType = "CALORIES"
)

// Exercise is one prescribed exercise within a challenge, referencing the
// catalog by ID with per-exercise targets.
type Exercise struct {
	ExerciseID string `json:"exerciseId"`
	Sets       int    `json:"sets,omitempty"`
	Reps       int    `json:"reps,omitempty"`
	Duration   int    `json:"duration,omitempty"` // seconds
	RestTime   int    `json:"restTime,omitempty"` // seconds
	Weight     int    `json:"weight,omitempty"`   // kg
	Distance   int    `json:"distance,omitempty"` // meters
}

// Goal is a measurable target for the challenge as a whole.
type Goal struct {
	Type   GoalType `json:"type"`
	Target float64  `json:"target"`
	Unit   string   `json:"unit"`
}

// Rewards describe what a participant earns on completion.
type Rewards struct {
	Points   int      `json:"points"`
	BadgeIDs []string `json:"badgeIds,omitempty"`
}

// Challenge is a fitness challenge definition. CurrentParticipants is only
// ever moved by atomic increments paired with participation creation or
// removal; it is never recomputed by counting participations.
type Challenge struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Difficulty  Difficulty
	Status      Status

	Exercises       []Exercise
	Goals           []Goal
	DurationDays    int
	MaxParticipants int

	StartDate time.Time
	EndDate   time.Time

	CreatedBy string
	GymID     string

	IsPublic   bool
	InviteOnly bool
	TeamBased  bool

	CurrentParticipants int

	Rewards           *Rewards
	EstimatedCalories int
	Tags              []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Full reports whether the participant cap has been reached. A zero cap
// means unlimited.
func (c Challenge) Full() bool {
	return c.MaxParticipants > 0 && c.CurrentParticipants >= c.MaxParticipants
}
