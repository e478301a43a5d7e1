// Package users manages user accounts, friendships and stats.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Service manages user accounts.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a users service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// Get returns one user by ID.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns users matching the filter.
func (s *Service) List(ctx context.Context, filter storage.UserFilter) ([]user.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", filter.Role)
	}
	return s.store.ListUsers(ctx, filter)
}

// Counts returns the admin aggregate breakdown.
func (s *Service) Counts(ctx context.Context) (storage.UserCounts, error) {
	return s.store.CountUsers(ctx)
}

// UpdateProfileInput carries the self-service editable fields. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// UpdateProfile edits the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	return s.store.UpdateUser(ctx, u)
}

// SetRole changes a user's role. Admin-only at the API layer.
func (s *Service) SetRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	if !role.Valid() {
		return user.User{}, fmt.Errorf("unknown role %q", role)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.Role = role
	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", id).WithField("role", string(role)).Info("user role changed")
	return updated, nil
}

// SetActive toggles account activation. Deactivated users cannot log in and
// existing sessions stop authenticating.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if u.Active == active {
		return u, nil
	}
	u.Active = active
	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("user_id", id).WithField("active", active).Info("user activation changed")
	return updated, nil
}

// Delete removes the account entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// AddFriend records a friendship edge from userID to friendID. Adding an
// existing friend is a no-op.
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return fmt.Errorf("cannot befriend yourself")
	}
	if _, err := s.store.GetUser(ctx, friendID); err != nil {
		return err
	}
	return s.store.AddFriend(ctx, userID, friendID)
}

// RemoveFriend drops the friendship edge.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.store.RemoveFriend(ctx, userID, friendID)
}

// Top returns the highest scoring active users.
func (s *Service) Top(ctx context.Context, limit int) ([]user.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.store.TopUsers(ctx, limit)
}
