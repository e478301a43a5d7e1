package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/domain/challenge"
	"github.com/fitchallenge/backend/internal/app/domain/exercise"
	"github.com/fitchallenge/backend/internal/app/domain/gym"
	"github.com/fitchallenge/backend/internal/app/domain/invitation"
	"github.com/fitchallenge/backend/internal/app/domain/participation"
	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development. It enforces the same uniqueness rules as the postgres indexes
// so conflict handling can be exercised without a database.
type Store struct {
	mu             sync.RWMutex
	nextID         int64
	users          map[string]user.User
	usersByEmail   map[string]string
	sessions       map[string]session.Session
	gyms           map[string]gym.Gym
	exercises      map[string]exercise.TypeExercise
	badges         map[string]badge.Badge
	challenges     map[string]challenge.Challenge
	participations map[string]participation.Participation
	invitations    map[string]invitation.Invitation
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.GymStore = (*Store)(nil)
var _ storage.ExerciseStore = (*Store)(nil)
var _ storage.BadgeStore = (*Store)(nil)
var _ storage.ChallengeStore = (*Store)(nil)
var _ storage.ParticipationStore = (*Store)(nil)
var _ storage.InvitationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		users:          make(map[string]user.User),
		usersByEmail:   make(map[string]string),
		sessions:       make(map[string]session.Session),
		gyms:           make(map[string]gym.Gym),
		exercises:      make(map[string]exercise.TypeExercise),
		badges:         make(map[string]badge.Badge),
		challenges:     make(map[string]challenge.Challenge),
		participations: make(map[string]participation.Participation),
		invitations:    make(map[string]invitation.Invitation),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, storage.ErrConflict
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, storage.ErrConflict
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Badges = cloneStrings(u.Badges)
	u.Friends = cloneStrings(u.Friends)

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	u.Badges = cloneStrings(u.Badges)
	u.Friends = cloneStrings(u.Friends)

	if !strings.EqualFold(existing.Email, u.Email) {
		if _, taken := s.usersByEmail[strings.ToLower(u.Email)]; taken {
			return user.User{}, storage.ErrConflict
		}
		delete(s.usersByEmail, strings.ToLower(existing.Email))
		s.usersByEmail[strings.ToLower(u.Email)] = u.ID
	}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) ListUsers(_ context.Context, filter storage.UserFilter) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []user.User
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if filter.GymID != "" && u.GymID != filter.GymID {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, filter.Offset, filter.Limit), nil
}

func (s *Store) CountUsers(_ context.Context) (storage.UserCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts storage.UserCounts
	for _, u := range s.users {
		counts.Total++
		if u.Active {
			counts.Active++
		} else {
			counts.Inactive++
		}
		switch u.Role {
		case user.RoleSuperAdmin:
			counts.SuperAdmins++
		case user.RoleGymOwner:
			counts.GymOwners++
		default:
			counts.Regular++
		}
	}
	return counts, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.usersByEmail, strings.ToLower(u.Email))
	delete(s.users, id)
	return nil
}

func (s *Store) AddBadge(_ context.Context, userID, badgeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if u.HasBadge(badgeID) {
		return false, nil
	}
	u.Badges = append(cloneStrings(u.Badges), badgeID)
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return true, nil
}

func (s *Store) AddScore(_ context.Context, userID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.TotalScore += points
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) AddFriend(_ context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if u.HasFriend(friendID) {
		return nil
	}
	u.Friends = append(cloneStrings(u.Friends), friendID)
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) RemoveFriend(_ context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	var friends []string
	for _, id := range u.Friends {
		if id != friendID {
			friends = append(friends, id)
		}
	}
	u.Friends = friends
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) IncrementStats(_ context.Context, userID string, delta user.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.ChallengesCompleted += delta.ChallengesCompleted
	u.TotalCaloriesBurned += delta.TotalCaloriesBurned
	u.StreakDays += delta.StreakDays
	if !delta.LastActivityAt.IsZero() {
		u.LastActivityAt = delta.LastActivityAt
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return nil
}

func (s *Store) TopUsers(_ context.Context, limit int) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []user.User
	for _, u := range s.users {
		if u.Active {
			out = append(out, cloneUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SessionStore implementation -------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The session ID is the bearer credential, so it must be unguessable
	// even in the in-memory backend.
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) FindActiveSession(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Expired(time.Now().UTC()) {
		return session.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// GymStore implementation -----------------------------------------------------

func (s *Store) CreateGym(_ context.Context, g gym.Gym) (gym.Gym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	g.Equipment = cloneStrings(g.Equipment)
	g.ExerciseIDs = cloneStrings(g.ExerciseIDs)
	s.gyms[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGym(_ context.Context, g gym.Gym) (gym.Gym, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.gyms[g.ID]
	if !ok {
		return gym.Gym{}, storage.ErrNotFound
	}
	g.CreatedAt = existing.CreatedAt
	g.UpdatedAt = time.Now().UTC()
	g.Equipment = cloneStrings(g.Equipment)
	g.ExerciseIDs = cloneStrings(g.ExerciseIDs)
	s.gyms[g.ID] = g
	return g, nil
}

func (s *Store) GetGym(_ context.Context, id string) (gym.Gym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.gyms[id]
	if !ok {
		return gym.Gym{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *Store) GetGymByOwner(_ context.Context, ownerID string) (gym.Gym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.gyms {
		if g.OwnerID == ownerID {
			return g, nil
		}
	}
	return gym.Gym{}, storage.ErrNotFound
}

func (s *Store) ListGyms(_ context.Context, status gym.Status) ([]gym.Gym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []gym.Gym
	for _, g := range s.gyms {
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteGym(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.gyms[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.gyms, id)
	return nil
}

// ExerciseStore implementation ------------------------------------------------

func (s *Store) CreateExercise(_ context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.exercises {
		if strings.EqualFold(existing.Name, e.Name) {
			return exercise.TypeExercise{}, storage.ErrConflict
		}
	}
	if e.ID == "" {
		e.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.TargetedMuscles = cloneStrings(e.TargetedMuscles)
	s.exercises[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExercise(_ context.Context, e exercise.TypeExercise) (exercise.TypeExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.exercises[e.ID]
	if !ok {
		return exercise.TypeExercise{}, storage.ErrNotFound
	}
	for id, other := range s.exercises {
		if id != e.ID && strings.EqualFold(other.Name, e.Name) {
			return exercise.TypeExercise{}, storage.ErrConflict
		}
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	e.TargetedMuscles = cloneStrings(e.TargetedMuscles)
	s.exercises[e.ID] = e
	return e, nil
}

func (s *Store) GetExercise(_ context.Context, id string) (exercise.TypeExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exercises[id]
	if !ok {
		return exercise.TypeExercise{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExercises(_ context.Context) ([]exercise.TypeExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []exercise.TypeExercise
	for _, e := range s.exercises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteExercise(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exercises[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.exercises, id)
	return nil
}

// BadgeStore implementation ---------------------------------------------------

func (s *Store) CreateBadge(_ context.Context, b badge.Badge) (badge.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.badges {
		if strings.EqualFold(existing.Name, b.Name) {
			return badge.Badge{}, storage.ErrConflict
		}
	}
	if b.ID == "" {
		b.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Rules = cloneRules(b.Rules)
	s.badges[b.ID] = b
	return cloneBadge(b), nil
}

func (s *Store) UpdateBadge(_ context.Context, b badge.Badge) (badge.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.badges[b.ID]
	if !ok {
		return badge.Badge{}, storage.ErrNotFound
	}
	for id, other := range s.badges {
		if id != b.ID && strings.EqualFold(other.Name, b.Name) {
			return badge.Badge{}, storage.ErrConflict
		}
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	b.Rules = cloneRules(b.Rules)
	s.badges[b.ID] = b
	return cloneBadge(b), nil
}

func (s *Store) GetBadge(_ context.Context, id string) (badge.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.badges[id]
	if !ok {
		return badge.Badge{}, storage.ErrNotFound
	}
	return cloneBadge(b), nil
}

func (s *Store) ListBadges(_ context.Context, activeOnly bool, badgeType badge.Type) ([]badge.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []badge.Badge
	for _, b := range s.badges {
		if activeOnly && !b.Active {
			continue
		}
		if badgeType != "" && b.Type != badgeType {
			continue
		}
		out = append(out, cloneBadge(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteBadge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.badges[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.badges, id)
	return nil
}

// ChallengeStore implementation -----------------------------------------------

func (s *Store) CreateChallenge(_ context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.challenges[c.ID] = cloneChallenge(c)
	return cloneChallenge(c), nil
}

func (s *Store) UpdateChallenge(_ context.Context, c challenge.Challenge) (challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.challenges[c.ID]
	if !ok {
		return challenge.Challenge{}, storage.ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	// The participant counter only moves via AddParticipants.
	c.CurrentParticipants = existing.CurrentParticipants
	c.UpdatedAt = time.Now().UTC()
	s.challenges[c.ID] = cloneChallenge(c)
	return cloneChallenge(c), nil
}

func (s *Store) GetChallenge(_ context.Context, id string) (challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.challenges[id]
	if !ok {
		return challenge.Challenge{}, storage.ErrNotFound
	}
	return cloneChallenge(c), nil
}

func (s *Store) ListChallenges(_ context.Context, filter storage.ChallengeFilter) ([]challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []challenge.Challenge
	for _, c := range s.challenges {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Difficulty != "" && c.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.GymID != "" && c.GymID != filter.GymID {
			continue
		}
		if filter.CreatedBy != "" && c.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Public != nil && c.IsPublic != *filter.Public {
			continue
		}
		if filter.Search != "" && !challengeMatches(c, filter.Search) {
			continue
		}
		out = append(out, cloneChallenge(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AddParticipants(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.CurrentParticipants += delta
	c.UpdatedAt = time.Now().UTC()
	s.challenges[id] = c
	return nil
}

func (s *Store) DeleteChallenge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.challenges, id)
	return nil
}

func challengeMatches(c challenge.Challenge, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(c.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Description), term) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// ParticipationStore implementation -------------------------------------------

func (s *Store) CreateParticipation(_ context.Context, p participation.Participation) (participation.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participations {
		if existing.UserID == p.UserID && existing.ChallengeID == p.ChallengeID {
			return participation.Participation{}, storage.ErrConflict
		}
	}
	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	if p.Status == "" {
		p.Status = participation.StatusJoined
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	s.participations[p.ID] = cloneParticipation(p)
	return cloneParticipation(p), nil
}

func (s *Store) UpdateParticipation(_ context.Context, p participation.Participation) (participation.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.participations[p.ID]
	if !ok {
		return participation.Participation{}, storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.participations[p.ID] = cloneParticipation(p)
	return cloneParticipation(p), nil
}

func (s *Store) GetParticipation(_ context.Context, id string) (participation.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participations[id]
	if !ok {
		return participation.Participation{}, storage.ErrNotFound
	}
	return cloneParticipation(p), nil
}

func (s *Store) GetUserChallengeParticipation(_ context.Context, userID, challengeID string) (participation.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.participations {
		if p.UserID == userID && p.ChallengeID == challengeID {
			return cloneParticipation(p), nil
		}
	}
	return participation.Participation{}, storage.ErrNotFound
}

func (s *Store) ListUserParticipations(_ context.Context, userID string) ([]participation.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []participation.Participation
	for _, p := range s.participations {
		if p.UserID == userID {
			out = append(out, cloneParticipation(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AppendWorkoutSession(_ context.Context, id string, ws participation.WorkoutSession) (participation.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participations[id]
	if !ok {
		return participation.Participation{}, storage.ErrNotFound
	}
	p.WorkoutSessions = append(p.WorkoutSessions, ws)
	p.TotalWorkouts++
	p.TotalDuration += ws.TotalDuration
	p.TotalCalories += ws.TotalCalories
	p.UpdatedAt = time.Now().UTC()
	s.participations[id] = cloneParticipation(p)
	return cloneParticipation(p), nil
}

func (s *Store) Leaderboard(_ context.Context, challengeID string, limit int) ([]participation.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []participation.Participation
	for _, p := range s.participations {
		if p.ChallengeID != challengeID || p.Status == participation.StatusAbandoned {
			continue
		}
		out = append(out, cloneParticipation(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Progress != out[j].Progress {
			return out[i].Progress > out[j].Progress
		}
		return out[i].TotalCalories > out[j].TotalCalories
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteParticipation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participations[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.participations, id)
	return nil
}

// InvitationStore implementation ----------------------------------------------

func (s *Store) CreateInvitation(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.invitations {
		if existing.Status == invitation.StatusPending &&
			existing.ChallengeID == inv.ChallengeID &&
			existing.FromUserID == inv.FromUserID &&
			existing.ToUserID == inv.ToUserID {
			return invitation.Invitation{}, storage.ErrConflict
		}
	}
	if inv.ID == "" {
		inv.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	if inv.Status == "" {
		inv.Status = invitation.StatusPending
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = now.Add(invitation.DefaultTTL)
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invitations[inv.ID] = inv
	return inv, nil
}

func (s *Store) UpdateInvitation(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invitations[inv.ID]
	if !ok {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = time.Now().UTC()
	s.invitations[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvitation(_ context.Context, id string) (invitation.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invitations[id]
	if !ok {
		return invitation.Invitation{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *Store) FindPendingInvitation(_ context.Context, challengeID, fromUserID, toUserID string) (invitation.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invitations {
		if inv.Status == invitation.StatusPending &&
			inv.ChallengeID == challengeID &&
			inv.FromUserID == fromUserID &&
			inv.ToUserID == toUserID {
			return inv, nil
		}
	}
	return invitation.Invitation{}, storage.ErrNotFound
}

func (s *Store) ListReceivedInvitations(_ context.Context, userID string, status invitation.Status) ([]invitation.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invitation.Invitation
	for _, inv := range s.invitations {
		if inv.ToUserID != userID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListSentInvitations(_ context.Context, userID string) ([]invitation.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invitation.Invitation
	for _, inv := range s.invitations {
		if inv.FromUserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ExpirePendingInvitations(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, inv := range s.invitations {
		if inv.Status == invitation.StatusPending && inv.ExpiredAt(now) {
			inv.Status = invitation.StatusExpired
			inv.UpdatedAt = now
			s.invitations[id] = inv
			expired++
		}
	}
	return expired, nil
}

// clone helpers ---------------------------------------------------------------

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneUser(u user.User) user.User {
	u.Badges = cloneStrings(u.Badges)
	u.Friends = cloneStrings(u.Friends)
	return u
}

func cloneRules(in []badge.Rule) []badge.Rule {
	if in == nil {
		return nil
	}
	out := make([]badge.Rule, len(in))
	copy(out, in)
	return out
}

func cloneBadge(b badge.Badge) badge.Badge {
	b.Rules = cloneRules(b.Rules)
	return b
}

func cloneChallenge(c challenge.Challenge) challenge.Challenge {
	if c.Exercises != nil {
		exercises := make([]challenge.Exercise, len(c.Exercises))
		copy(exercises, c.Exercises)
		c.Exercises = exercises
	}
	if c.Goals != nil {
		goals := make([]challenge.Goal, len(c.Goals))
		copy(goals, c.Goals)
		c.Goals = goals
	}
	c.Tags = cloneStrings(c.Tags)
	if c.Rewards != nil {
		rewards := *c.Rewards
		rewards.BadgeIDs = cloneStrings(rewards.BadgeIDs)
		c.Rewards = &rewards
	}
	return c
}

func cloneParticipation(p participation.Participation) participation.Participation {
	if p.WorkoutSessions != nil {
		sessions := make([]participation.WorkoutSession, len(p.WorkoutSessions))
		copy(sessions, p.WorkoutSessions)
		for i := range sessions {
			if sessions[i].Exercises != nil {
				results := make([]participation.ExerciseResult, len(sessions[i].Exercises))
				copy(results, sessions[i].Exercises)
				sessions[i].Exercises = results
			}
		}
		p.WorkoutSessions = sessions
	}
	p.BadgesEarned = cloneStrings(p.BadgesEarned)
	if p.PersonalBest != nil {
		pb := *p.PersonalBest
		p.PersonalBest = &pb
	}
	return p
}

func window[T any](in []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
