// Package participations drives the per-user challenge state machine:
// joining, workout logging, progress, completion and leaderboards.
package participations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/metrics"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// DefaultLeaderboardLimit caps leaderboard responses.
const DefaultLeaderboardLimit = 10

// BadgeAwarder receives fire-and-forget evaluation requests when a user
// completes a challenge.
type BadgeAwarder interface {
	Enqueue(userID string)
}

// Service manages participations.
type Service struct {
	users      storage.UserStore
	challenges storage.ChallengeStore
	store      storage.ParticipationStore
	awarder    BadgeAwarder
	log        *logger.Logger
}

// New constructs a participations service.
func New(users storage.UserStore, challenges storage.ChallengeStore, store storage.ParticipationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("participations")
	}
	return &Service{users: users, challenges: challenges, store: store, log: log}
}

// AttachAwarder wires the background badge evaluation queue. Without it
// completions simply skip badge evaluation.
func (s *Service) AttachAwarder(awarder BadgeAwarder) {
	s.awarder = awarder
}

// Join enrolls the user in a challenge. The unique (user, challenge) index
// backs up the pre-check, so a lost race still surfaces as a conflict.
func (s *Service) Join(ctx context.Context, userID, challengeID string) (participation.Participation, error) {
	return s.join(ctx, userID, challengeID, "")
}

// JoinInvited enrolls the user recording who invited them.
func (s *Service) JoinInvited(ctx context.Context, userID, challengeID, invitedBy string) (participation.Participation, error) {
	return s.join(ctx, userID, challengeID, invitedBy)
}

func (s *Service) join(ctx context.Context, userID, challengeID, invitedBy string) (participation.Participation, error) {
	c, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return participation.Participation{}, err
	}
	if c.Status != challenge.StatusActive {
		return participation.Participation{}, fmt.Errorf("challenge is not active")
	}
	if c.Full() {
		return participation.Participation{}, fmt.Errorf("challenge is full")
	}
	if _, err := s.store.GetUserChallengeParticipation(ctx, userID, challengeID); err == nil {
		return participation.Participation{}, fmt.Errorf("already joined this challenge: %w", storage.ErrConflict)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return participation.Participation{}, err
	}

	created, err := s.store.CreateParticipation(ctx, participation.Participation{
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      participation.StatusJoined,
		InvitedBy:   invitedBy,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return participation.Participation{}, fmt.Errorf("already joined this challenge: %w", err)
		}
		return participation.Participation{}, err
	}

	if err := s.challenges.AddParticipants(ctx, challengeID, 1); err != nil {
		s.log.WithError(err).WithField("challenge_id", challengeID).Warn("participant increment failed")
	}

	s.log.WithField("user_id", userID).WithField("challenge_id", challengeID).Info("challenge joined")
	return created, nil
}

// getOwned loads a participation and masks ownership mismatches as
// not-found so callers cannot probe other users' records.
func (s *Service) getOwned(ctx context.Context, id, userID string) (participation.Participation, error) {
	p, err := s.store.GetParticipation(ctx, id)
	if err != nil {
		return participation.Participation{}, err
	}
	if p.UserID != userID {
		return participation.Participation{}, storage.ErrNotFound
	}
	return p, nil
}

// UpdateProgress sets progress (0-100) on the caller's participation.
// Reaching 100 completes the challenge: CompletedAt is set, the user's
// lifetime stats are incremented and badge evaluation is enqueued.
func (s *Service) UpdateProgress(ctx context.Context, id, userID string, progress int) (participation.Participation, error) {
	if progress < 0 || progress > 100 {
		return participation.Participation{}, fmt.Errorf("progress must be between 0 and 100")
	}

	p, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return participation.Participation{}, err
	}
	if p.Status.Terminal() {
		return participation.Participation{}, fmt.Errorf("participation is %s and can no longer be updated", p.Status)
	}

	now := time.Now().UTC()
	p.Progress = progress
	completed := false
	switch {
	case progress >= 100:
		p.Status = participation.StatusCompleted
		p.CompletedAt = now
		completed = true
	case progress > 0:
		if p.Status == participation.StatusJoined {
			p.StartedAt = now
		}
		p.Status = participation.StatusInProgress
	}

	if completed {
		if c, err := s.challenges.GetChallenge(ctx, p.ChallengeID); err == nil && c.Rewards != nil {
			p.PointsEarned = c.Rewards.Points
		}
	}

	updated, err := s.store.UpdateParticipation(ctx, p)
	if err != nil {
		return participation.Participation{}, err
	}

	if completed {
		s.completeSideEffects(ctx, updated)
	}
	return updated, nil
}

// completeSideEffects applies the lifetime stat increments and reward
// points for one completion, then hands the user to the badge awarder.
func (s *Service) completeSideEffects(ctx context.Context, p participation.Participation) {
	metrics.RecordChallengeCompleted()

	delta := user.StatsDelta{
		ChallengesCompleted: 1,
		TotalCaloriesBurned: p.TotalCalories,
		LastActivityAt:      time.Now().UTC(),
	}
	if err := s.users.IncrementStats(ctx, p.UserID, delta); err != nil {
		s.log.WithError(err).WithField("user_id", p.UserID).Warn("stat increment on completion failed")
	}
	if p.PointsEarned > 0 {
		if err := s.users.AddScore(ctx, p.UserID, p.PointsEarned); err != nil {
			s.log.WithError(err).WithField("user_id", p.UserID).Warn("reward points on completion failed")
		}
	}
	if s.awarder != nil {
		s.awarder.Enqueue(p.UserID)
	}

	s.log.WithField("user_id", p.UserID).
		WithField("challenge_id", p.ChallengeID).
		WithField("calories", p.TotalCalories).
		Info("challenge completed")
}

// WorkoutInput carries one logged training session. Totals are supplied by
// the caller, not derived from the exercise list.
type WorkoutInput struct {
	Date          time.Time
	Exercises     []participation.ExerciseResult
	TotalDuration int
	TotalCalories int
	Notes         string
}

// LogWorkout appends a workout session to the caller's participation and
// bumps the cumulative totals in one atomic store update.
func (s *Service) LogWorkout(ctx context.Context, id, userID string, in WorkoutInput) (participation.Participation, error) {
	if len(in.Exercises) == 0 {
		return participation.Participation{}, fmt.Errorf("at least one exercise result is required")
	}
	if in.TotalDuration < 0 || in.TotalCalories < 0 {
		return participation.Participation{}, fmt.Errorf("session totals cannot be negative")
	}

	p, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return participation.Participation{}, err
	}
	if p.Status.Terminal() {
		return participation.Participation{}, fmt.Errorf("participation is %s and can no longer log workouts", p.Status)
	}

	if p.Status == participation.StatusJoined {
		p.Status = participation.StatusInProgress
		p.StartedAt = time.Now().UTC()
		if p, err = s.store.UpdateParticipation(ctx, p); err != nil {
			return participation.Participation{}, err
		}
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	updated, err := s.store.AppendWorkoutSession(ctx, p.ID, participation.WorkoutSession{
		Date:          date,
		Exercises:     in.Exercises,
		TotalDuration: in.TotalDuration,
		TotalCalories: in.TotalCalories,
		Notes:         in.Notes,
	})
	if err != nil {
		return participation.Participation{}, err
	}

	s.log.WithField("participation_id", p.ID).
		WithField("calories", in.TotalCalories).
		Info("workout logged")
	return updated, nil
}

// Abandon marks the caller's participation ABANDONED and releases the
// participant slot.
func (s *Service) Abandon(ctx context.Context, id, userID string) (participation.Participation, error) {
	p, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return participation.Participation{}, err
	}
	if p.Status.Terminal() {
		return participation.Participation{}, fmt.Errorf("participation is already %s", p.Status)
	}

	p.Status = participation.StatusAbandoned
	updated, err := s.store.UpdateParticipation(ctx, p)
	if err != nil {
		return participation.Participation{}, err
	}

	if err := s.challenges.AddParticipants(ctx, p.ChallengeID, -1); err != nil {
		s.log.WithError(err).WithField("challenge_id", p.ChallengeID).Warn("participant decrement failed")
	}

	s.log.WithField("user_id", userID).WithField("challenge_id", p.ChallengeID).Info("challenge abandoned")
	return updated, nil
}

// UpdatePersonalBest records the caller's best single result in the
// challenge.
func (s *Service) UpdatePersonalBest(ctx context.Context, id, userID string, best participation.PersonalBest) (participation.Participation, error) {
	if best.Type == "" {
		return participation.Participation{}, fmt.Errorf("personal best type is required")
	}
	p, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return participation.Participation{}, err
	}
	if best.AchievedAt.IsZero() {
		best.AchievedAt = time.Now().UTC()
	}
	p.PersonalBest = &best
	return s.store.UpdateParticipation(ctx, p)
}

// ListMine returns all of the user's participations.
func (s *Service) ListMine(ctx context.Context, userID string) ([]participation.Participation, error) {
	return s.store.ListUserParticipations(ctx, userID)
}

// Leaderboard returns the top participants of a challenge, excluding
// ABANDONED, ordered by progress then calories.
func (s *Service) Leaderboard(ctx context.Context, challengeID string) ([]participation.Participation, error) {
	if _, err := s.challenges.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}
	return s.store.Leaderboard(ctx, challengeID, DefaultLeaderboardLimit)
}

// Stats is the per-user participation summary.
type Stats struct {
	TotalChallenges     int     `json:"totalChallenges"`
	CompletedChallenges int     `json:"completedChallenges"`
	ActiveChallenges    int     `json:"activeChallenges"`
	AbandonedChallenges int     `json:"abandonedChallenges"`
	TotalWorkouts       int     `json:"totalWorkouts"`
	TotalDuration       int     `json:"totalDuration"`
	TotalCalories       int     `json:"totalCalories"`
	AverageProgress     float64 `json:"averageProgress"`
}

// UserStats aggregates the user's participations into a summary.
func (s *Service) UserStats(ctx context.Context, userID string) (Stats, error) {
	parts, err := s.store.ListUserParticipations(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var progressSum int
	for _, p := range parts {
		stats.TotalChallenges++
		stats.TotalWorkouts += p.TotalWorkouts
		stats.TotalDuration += p.TotalDuration
		stats.TotalCalories += p.TotalCalories
		progressSum += p.Progress
		switch p.Status {
		case participation.StatusCompleted:
			stats.CompletedChallenges++
		case participation.StatusAbandoned:
			stats.AbandonedChallenges++
		default:
			stats.ActiveChallenges++
		}
	}
	if stats.TotalChallenges > 0 {
		stats.AverageProgress = float64(progressSum) / float64(stats.TotalChallenges)
	}
	return stats, nil
}
