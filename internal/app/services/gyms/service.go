// Package gyms manages the gym registry and its approval workflow.
package gyms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Service manages gyms. Approval transitions are admin-only, enforced at
// the API layer; the service enforces ownership and state rules.
type Service struct {
	users     storage.UserStore
	exercises storage.ExerciseStore
	store     storage.GymStore
	log       *logger.Logger
}

// New constructs a gyms service.
func New(users storage.UserStore, exercises storage.ExerciseStore, store storage.GymStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("gyms")
	}
	return &Service{users: users, exercises: exercises, store: store, log: log}
}

// CreateInput carries a gym registration request.
type CreateInput struct {
	Name        string
	Location    string
	Description string
	Capacity    int
	Equipment   []string
	OwnerID     string
}

// Create registers a gym in PENDING state and links it to the owner's
// account.
func (s *Service) Create(ctx context.Context, in CreateInput) (gym.Gym, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return gym.Gym{}, fmt.Errorf("name is required")
	}
	if in.OwnerID == "" {
		return gym.Gym{}, fmt.Errorf("owner_id is required")
	}
	if in.Capacity < 0 {
		return gym.Gym{}, fmt.Errorf("capacity cannot be negative")
	}

	owner, err := s.users.GetUser(ctx, in.OwnerID)
	if err != nil {
		return gym.Gym{}, fmt.Errorf("owner lookup failed: %w", err)
	}

	created, err := s.store.CreateGym(ctx, gym.Gym{
		Name:        in.Name,
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Capacity:    in.Capacity,
		Equipment:   in.Equipment,
		OwnerID:     owner.ID,
		Status:      gym.StatusPending,
	})
	if err != nil {
		return gym.Gym{}, err
	}

	owner.GymID = created.ID
	if _, err := s.users.UpdateUser(ctx, owner); err != nil {
		s.log.WithError(err).WithField("gym_id", created.ID).Warn("link gym to owner failed")
	}

	s.log.WithField("gym_id", created.ID).WithField("owner_id", owner.ID).Info("gym registered")
	return created, nil
}

// Get returns one gym.
func (s *Service) Get(ctx context.Context, id string) (gym.Gym, error) {
	return s.store.GetGym(ctx, id)
}

// GetByOwner returns the gym linked to an owner account.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (gym.Gym, error) {
	return s.store.GetGymByOwner(ctx, ownerID)
}

// List returns gyms, optionally filtered by status.
func (s *Service) List(ctx context.Context, status gym.Status) ([]gym.Gym, error) {
	if status != "" {
		switch status {
		case gym.StatusPending, gym.StatusApproved, gym.StatusRejected:
		default:
			return nil, fmt.Errorf("unknown status %q", status)
		}
	}
	return s.store.ListGyms(ctx, status)
}

// UpdateInput carries the owner-editable gym fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	Name        *string
	Location    *string
	Description *string
	Capacity    *int
	Equipment   []string
}

// Update edits gym details. Callers other than the owner are masked with
// not-found unless they are admins.
func (s *Service) Update(ctx context.Context, id string, caller user.User, in UpdateInput) (gym.Gym, error) {
	g, err := s.store.GetGym(ctx, id)
	if err != nil {
		return gym.Gym{}, err
	}
	if g.OwnerID != caller.ID && caller.Role != user.RoleSuperAdmin {
		return gym.Gym{}, storage.ErrNotFound
	}

	if in.Name != nil {
		if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
			g.Name = trimmed
		} else {
			return gym.Gym{}, fmt.Errorf("name cannot be empty")
		}
	}
	if in.Location != nil {
		g.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		g.Description = strings.TrimSpace(*in.Description)
	}
	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return gym.Gym{}, fmt.Errorf("capacity cannot be negative")
		}
		g.Capacity = *in.Capacity
	}
	if in.Equipment != nil {
		g.Equipment = in.Equipment
	}
	return s.store.UpdateGym(ctx, g)
}

// Approve moves a PENDING gym to APPROVED.
func (s *Service) Approve(ctx context.Context, id, adminID string) (gym.Gym, error) {
	return s.review(ctx, id, adminID, gym.StatusApproved)
}

// Reject moves a PENDING gym to REJECTED.
func (s *Service) Reject(ctx context.Context, id, adminID string) (gym.Gym, error) {
	return s.review(ctx, id, adminID, gym.StatusRejected)
}

func (s *Service) review(ctx context.Context, id, adminID string, status gym.Status) (gym.Gym, error) {
	g, err := s.store.GetGym(ctx, id)
	if err != nil {
		return gym.Gym{}, err
	}
	if g.Status != gym.StatusPending {
		return gym.Gym{}, fmt.Errorf("gym is already %s", g.Status)
	}
	g.Status = status
	g.ApprovedBy = adminID
	updated, err := s.store.UpdateGym(ctx, g)
	if err != nil {
		return gym.Gym{}, err
	}
	s.log.WithField("gym_id", id).WithField("status", string(status)).Info("gym reviewed")
	return updated, nil
}

// AssignExercises replaces the gym's exercise catalog selection. Every ID
// must reference an existing exercise.
func (s *Service) AssignExercises(ctx context.Context, id string, exerciseIDs []string) (gym.Gym, error) {
	g, err := s.store.GetGym(ctx, id)
	if err != nil {
		return gym.Gym{}, err
	}
	for _, exID := range exerciseIDs {
		if _, err := s.exercises.GetExercise(ctx, exID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return gym.Gym{}, fmt.Errorf("unknown exercise %s", exID)
			}
			return gym.Gym{}, err
		}
	}
	g.ExerciseIDs = exerciseIDs
	return s.store.UpdateGym(ctx, g)
}

// Delete removes a gym and unlinks the owner.
func (s *Service) Delete(ctx context.Context, id string) error {
	g, err := s.store.GetGym(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGym(ctx, id); err != nil {
		return err
	}
	if owner, err := s.users.GetUser(ctx, g.OwnerID); err == nil && owner.GymID == id {
		owner.GymID = ""
		if _, err := s.users.UpdateUser(ctx, owner); err != nil {
			s.log.WithError(err).WithField("gym_id", id).Warn("unlink gym from owner failed")
		}
	}
	s.log.WithField("gym_id", id).Info("gym deleted")
	return nil
}
