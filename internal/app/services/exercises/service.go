// Package exercises manages the shared exercise type catalog.
package exercises

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Service manages exercise types.
type Service struct {
	store storage.ExerciseStore
	log   *logger.Logger
}

// New constructs an exercises service.
func New(store storage.ExerciseStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("exercises")
	}
	return &Service{store: store, log: log}
}

// Create adds a new exercise type. Duplicate names surface as
// storage.ErrConflict.
func (s *Service) Create(ctx context.Context, name, description string, targetedMuscles []string, createdBy string) (exercise.TypeExercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return exercise.TypeExercise{}, fmt.Errorf("name is required")
	}

	created, err := s.store.CreateExercise(ctx, exercise.TypeExercise{
		Name:            name,
		Description:     strings.TrimSpace(description),
		TargetedMuscles: targetedMuscles,
		CreatedBy:       createdBy,
	})
	if err != nil {
		return exercise.TypeExercise{}, err
	}
	s.log.WithField("exercise_id", created.ID).WithField("name", name).Info("exercise created")
	return created, nil
}

// Get returns one exercise type.
func (s *Service) Get(ctx context.Context, id string) (exercise.TypeExercise, error) {
	return s.store.GetExercise(ctx, id)
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]exercise.TypeExercise, error) {
	return s.store.ListExercises(ctx)
}

// UpdateInput carries editable exercise fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	Name            *string
	Description     *string
	TargetedMuscles []string
}

// Update edits an exercise type.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (exercise.TypeExercise, error) {
	e, err := s.store.GetExercise(ctx, id)
	if err != nil {
		return exercise.TypeExercise{}, err
	}
	if in.Name != nil {
		if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
			e.Name = trimmed
		} else {
			return exercise.TypeExercise{}, fmt.Errorf("name cannot be empty")
		}
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.TargetedMuscles != nil {
		e.TargetedMuscles = in.TargetedMuscles
	}
	return s.store.UpdateExercise(ctx, e)
}

// Delete removes an exercise type from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteExercise(ctx, id); err != nil {
		return err
	}
	s.log.WithField("exercise_id", id).Info("exercise deleted")
	return nil
}
