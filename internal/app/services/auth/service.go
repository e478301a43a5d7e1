// Package auth handles registration, login and session management.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fitchallenge/backend/internal/app/domain/session"
	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// ErrInvalidCredentials masks both unknown-email and wrong-password so login
// responses leak nothing about which part failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DefaultSessionTTL is how long a login session stays valid.
const DefaultSessionTTL = 15 * 24 * time.Hour

// Service performs authentication against the user and session stores.
type Service struct {
	users      storage.UserStore
	sessions   storage.SessionStore
	sessionTTL time.Duration
	log        *logger.Logger
}

// New constructs an auth service.
func New(users storage.UserStore, sessions storage.SessionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: DefaultSessionTTL,
		log:        log,
	}
}

// WithSessionTTL overrides the session lifetime. Call before serving traffic.
func (s *Service) WithSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      user.Role
}

// Register creates a new active account. Duplicate emails surface as
// storage.ErrConflict from the store's unique index.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	if len(in.Password) < 8 {
		return user.User{}, fmt.Errorf("password must be at least 8 characters")
	}
	if in.Role == "" {
		in.Role = user.RoleUser
	}
	if !in.Role.Valid() {
		return user.User{}, fmt.Errorf("unknown role %q", in.Role)
	}
	if in.Role == user.RoleSuperAdmin {
		return user.User{}, fmt.Errorf("role %s cannot be self-assigned", user.RoleSuperAdmin)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		Active:       true,
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).WithField("role", string(created.Role)).Info("user registered")
	return created, nil
}

// Login verifies credentials and opens a session. The returned session ID is
// the bearer credential.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, user.User{}, ErrInvalidCredentials
		}
		return session.Session{}, user.User{}, err
	}
	if !u.Active {
		return session.Session{}, user.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return session.Session{}, user.User{}, ErrInvalidCredentials
	}

	sess, err := s.sessions.CreateSession(ctx, session.Session{
		UserID:    u.ID,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	})
	if err != nil {
		return session.Session{}, user.User{}, err
	}

	s.log.WithField("user_id", u.ID).Info("user logged in")
	return sess, u, nil
}

// Logout deletes the session. Unknown sessions are not an error so logout is
// idempotent.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.DeleteSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a session ID to its active user.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (user.User, error) {
	sess, err := s.sessions.FindActiveSession(ctx, sessionID)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return user.User{}, err
	}
	if !u.Active {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

// EnsureSuperAdmin guarantees an active SUPER_ADMIN account with the given
// credentials exists, creating or repairing it as needed.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password are required")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == user.RoleSuperAdmin && existing.Active {
			return nil
		}
		existing.Role = user.RoleSuperAdmin
		existing.Active = true
		if _, err := s.users.UpdateUser(ctx, existing); err != nil {
			return fmt.Errorf("promote admin account: %w", err)
		}
		s.log.WithField("user_id", existing.ID).Info("existing account promoted to super admin")
		return nil
	case errors.Is(err, storage.ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		created, err := s.users.CreateUser(ctx, user.User{
			Email:        email,
			PasswordHash: string(hash),
			FirstName:    "Super",
			LastName:     "Admin",
			Role:         user.RoleSuperAdmin,
			Active:       true,
		})
		if err != nil {
			return fmt.Errorf("create admin account: %w", err)
		}
		s.log.WithField("user_id", created.ID).Info("super admin account created")
		return nil
	default:
		return err
	}
}
