// Package challenges manages challenge definitions and their lifecycle.
package challenges

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Service manages challenge definitions.
type Service struct {
	users storage.UserStore
	gyms  storage.GymStore
	store storage.ChallengeStore
	log   *logger.Logger
}

// New constructs a challenges service.
func New(users storage.UserStore, gyms storage.GymStore, store storage.ChallengeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("challenges")
	}
	return &Service{users: users, gyms: gyms, store: store, log: log}
}

// CreateInput carries a new challenge definition.
type CreateInput struct {
	Title             string
	Description       string
	Type              challenge.Type
	Difficulty        challenge.Difficulty
	Exercises         []challenge.Exercise
	Goals             []challenge.Goal
	DurationDays      int
	MaxParticipants   int
	GymID             string
	IsPublic          *bool
	InviteOnly        bool
	TeamBased         bool
	Rewards           *challenge.Rewards
	EstimatedCalories int
	Tags              []string
}

// Create validates and stores a challenge in DRAFT state. Gym owners are
// pinned to their own gym; regular users cannot attach a gym at all.
func (s *Service) Create(ctx context.Context, caller user.User, in CreateInput) (challenge.Challenge, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return challenge.Challenge{}, fmt.Errorf("title is required")
	}
	if !in.Difficulty.Valid() {
		return challenge.Challenge{}, fmt.Errorf("unknown difficulty %q", in.Difficulty)
	}
	if in.Type == "" {
		in.Type = challenge.TypeIndividual
	}
	switch in.Type {
	case challenge.TypeIndividual, challenge.TypeGroup, challenge.TypeCompetitive:
	default:
		return challenge.Challenge{}, fmt.Errorf("unknown challenge type %q", in.Type)
	}
	if in.DurationDays <= 0 {
		return challenge.Challenge{}, fmt.Errorf("duration_days must be positive")
	}
	if in.MaxParticipants < 0 {
		return challenge.Challenge{}, fmt.Errorf("max_participants cannot be negative")
	}
	if len(in.Exercises) == 0 {
		return challenge.Challenge{}, fmt.Errorf("at least one exercise is required")
	}
	for i, ex := range in.Exercises {
		if ex.ExerciseID == "" {
			return challenge.Challenge{}, fmt.Errorf("exercise %d: exercise_id is required", i)
		}
	}

	gymID := strings.TrimSpace(in.GymID)
	switch caller.Role {
	case user.RoleGymOwner:
		gymID = caller.GymID
	case user.RoleSuperAdmin:
		if gymID != "" {
			if _, err := s.gyms.GetGym(ctx, gymID); err != nil {
				return challenge.Challenge{}, fmt.Errorf("gym lookup failed: %w", err)
			}
		}
	default:
		if gymID != "" {
			return challenge.Challenge{}, fmt.Errorf("only gym owners can attach a gym")
		}
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	created, err := s.store.CreateChallenge(ctx, challenge.Challenge{
		Title:             in.Title,
		Description:       strings.TrimSpace(in.Description),
		Type:              in.Type,
		Difficulty:        in.Difficulty,
		Status:            challenge.StatusDraft,
		Exercises:         in.Exercises,
		Goals:             in.Goals,
		DurationDays:      in.DurationDays,
		MaxParticipants:   in.MaxParticipants,
		CreatedBy:         caller.ID,
		GymID:             gymID,
		IsPublic:          isPublic,
		InviteOnly:        in.InviteOnly,
		TeamBased:         in.TeamBased,
		Rewards:           in.Rewards,
		EstimatedCalories: in.EstimatedCalories,
		Tags:              in.Tags,
	})
	if err != nil {
		return challenge.Challenge{}, err
	}
	s.log.WithField("challenge_id", created.ID).WithField("created_by", caller.ID).Info("challenge created")
	return created, nil
}

// Get returns one challenge.
func (s *Service) Get(ctx context.Context, id string) (challenge.Challenge, error) {
	return s.store.GetChallenge(ctx, id)
}

// ListPublic returns public ACTIVE challenges.
func (s *Service) ListPublic(ctx context.Context) ([]challenge.Challenge, error) {
	public := true
	return s.store.ListChallenges(ctx, storage.ChallengeFilter{
		Status: challenge.StatusActive,
		Public: &public,
	})
}

// Search returns public challenges matching a substring plus optional
// difficulty and type filters.
func (s *Service) Search(ctx context.Context, query string, difficulty challenge.Difficulty, challengeType challenge.Type) ([]challenge.Challenge, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	public := true
	return s.store.ListChallenges(ctx, storage.ChallengeFilter{
		Status:     challenge.StatusActive,
		Difficulty: difficulty,
		Type:       challengeType,
		Public:     &public,
		Search:     strings.TrimSpace(query),
	})
}

// ListMine returns challenges created by the user.
func (s *Service) ListMine(ctx context.Context, userID string) ([]challenge.Challenge, error) {
	return s.store.ListChallenges(ctx, storage.ChallengeFilter{CreatedBy: userID})
}

// Activate moves a DRAFT challenge to ACTIVE and pins its date window.
// Only the creator or an admin may activate.
func (s *Service) Activate(ctx context.Context, id string, caller user.User) (challenge.Challenge, error) {
	c, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if c.CreatedBy != caller.ID && caller.Role != user.RoleSuperAdmin {
		return challenge.Challenge{}, storage.ErrNotFound
	}
	if c.Status != challenge.StatusDraft {
		return challenge.Challenge{}, fmt.Errorf("challenge is already %s", c.Status)
	}

	now := time.Now().UTC()
	c.Status = challenge.StatusActive
	c.StartDate = now
	c.EndDate = now.AddDate(0, 0, c.DurationDays)

	updated, err := s.store.UpdateChallenge(ctx, c)
	if err != nil {
		return challenge.Challenge{}, err
	}
	s.log.WithField("challenge_id", id).Info("challenge activated")
	return updated, nil
}

// UpdateInput carries creator-editable challenge fields. Nil pointers leave
// the current value untouched.
type UpdateInput struct {
	Title             *string
	Description       *string
	Difficulty        *challenge.Difficulty
	Exercises         []challenge.Exercise
	Goals             []challenge.Goal
	DurationDays      *int
	MaxParticipants   *int
	Rewards           *challenge.Rewards
	EstimatedCalories *int
	Tags              []string
}

// Update edits a challenge. Only the creator or an admin may edit, and only
// while the challenge is still DRAFT.
func (s *Service) Update(ctx context.Context, id string, caller user.User, in UpdateInput) (challenge.Challenge, error) {
	c, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if c.CreatedBy != caller.ID && caller.Role != user.RoleSuperAdmin {
		return challenge.Challenge{}, storage.ErrNotFound
	}
	if c.Status != challenge.StatusDraft {
		return challenge.Challenge{}, fmt.Errorf("only draft challenges can be edited")
	}

	if in.Title != nil {
		if trimmed := strings.TrimSpace(*in.Title); trimmed != "" {
			c.Title = trimmed
		} else {
			return challenge.Challenge{}, fmt.Errorf("title cannot be empty")
		}
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Difficulty != nil {
		if !in.Difficulty.Valid() {
			return challenge.Challenge{}, fmt.Errorf("unknown difficulty %q", *in.Difficulty)
		}
		c.Difficulty = *in.Difficulty
	}
	if in.Exercises != nil {
		if len(in.Exercises) == 0 {
			return challenge.Challenge{}, fmt.Errorf("at least one exercise is required")
		}
		c.Exercises = in.Exercises
	}
	if in.Goals != nil {
		c.Goals = in.Goals
	}
	if in.DurationDays != nil {
		if *in.DurationDays <= 0 {
			return challenge.Challenge{}, fmt.Errorf("duration_days must be positive")
		}
		c.DurationDays = *in.DurationDays
	}
	if in.MaxParticipants != nil {
		if *in.MaxParticipants < 0 {
			return challenge.Challenge{}, fmt.Errorf("max_participants cannot be negative")
		}
		c.MaxParticipants = *in.MaxParticipants
	}
	if in.Rewards != nil {
		c.Rewards = in.Rewards
	}
	if in.EstimatedCalories != nil {
		c.EstimatedCalories = *in.EstimatedCalories
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	return s.store.UpdateChallenge(ctx, c)
}

// Delete removes a challenge. Only the creator or an admin, and only while
// nobody has joined.
func (s *Service) Delete(ctx context.Context, id string, caller user.User) error {
	c, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		return err
	}
	if c.CreatedBy != caller.ID && caller.Role != user.RoleSuperAdmin {
		return storage.ErrNotFound
	}
	if c.CurrentParticipants > 0 {
		return fmt.Errorf("challenge has participants and cannot be deleted")
	}
	if err := s.store.DeleteChallenge(ctx, id); err != nil {
		return err
	}
	s.log.WithField("challenge_id", id).Info("challenge deleted")
	return nil
}
