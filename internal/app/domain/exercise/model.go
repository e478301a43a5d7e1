package exercise

import "time"

// TypeExercise is a catalog entry describing a named exercise and the muscle
// groups it targets. Challenges and workout sessions reference entries by ID
// only.
type TypeExercise struct {
	ID              string
	Name            string
	Description     string
	TargetedMuscles []string
	CreatedBy       string

	CreatedAt time.Time
	UpdatedAt time.Time
}
