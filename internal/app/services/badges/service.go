// Package badges manages badge definitions and awards badges to users whose
// stats satisfy every rule.
package badges

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitchallenge/backend/internal/app/domain/badge"
	"github.com/fitchallenge/backend/internal/app/metrics"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Service manages badge definitions and runs eligibility evaluation.
type Service struct {
	users storage.UserStore
	store storage.BadgeStore
	log   *logger.Logger
}

// New constructs a badges service.
func New(users storage.UserStore, store storage.BadgeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("badges")
	}
	return &Service{users: users, store: store, log: log}
}

// CreateInput carries a badge definition.
type CreateInput struct {
	Name        string
	Description string
	Type        badge.Type
	Rules       []badge.Rule
	Points      int
	CreatedBy   string
}

// Create validates and stores a badge definition. Rule conditions must name
// known stat fields; misconfigured rules are rejected up front.
func (s *Service) Create(ctx context.Context, in CreateInput) (badge.Badge, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return badge.Badge{}, fmt.Errorf("name is required")
	}
	if !in.Type.Valid() {
		return badge.Badge{}, fmt.Errorf("unknown badge type %q", in.Type)
	}
	if in.Points < 0 {
		return badge.Badge{}, fmt.Errorf("points cannot be negative")
	}
	if err := badge.ValidateRules(in.Rules); err != nil {
		return badge.Badge{}, err
	}

	created, err := s.store.CreateBadge(ctx, badge.Badge{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Rules:       in.Rules,
		Points:      in.Points,
		Active:      true,
		CreatedBy:   in.CreatedBy,
	})
	if err != nil {
		return badge.Badge{}, err
	}
	s.log.WithField("badge_id", created.ID).WithField("name", created.Name).Info("badge created")
	return created, nil
}

// Get returns one badge definition.
func (s *Service) Get(ctx context.Context, id string) (badge.Badge, error) {
	return s.store.GetBadge(ctx, id)
}

// List returns badge definitions, optionally restricted to active badges or
// one type.
func (s *Service) List(ctx context.Context, activeOnly bool, badgeType badge.Type) ([]badge.Badge, error) {
	if badgeType != "" && !badgeType.Valid() {
		return nil, fmt.Errorf("unknown badge type %q", badgeType)
	}
	return s.store.ListBadges(ctx, activeOnly, badgeType)
}

// UpdateInput carries editable badge fields. Nil pointers leave the current
// value untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Type        *badge.Type
	Rules       []badge.Rule
	Points      *int
}

// Update edits a badge definition with the same validation as Create.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (badge.Badge, error) {
	b, err := s.store.GetBadge(ctx, id)
	if err != nil {
		return badge.Badge{}, err
	}
	if in.Name != nil {
		if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
			b.Name = trimmed
		} else {
			return badge.Badge{}, fmt.Errorf("name cannot be empty")
		}
	}
	if in.Description != nil {
		b.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return badge.Badge{}, fmt.Errorf("unknown badge type %q", *in.Type)
		}
		b.Type = *in.Type
	}
	if in.Rules != nil {
		if err := badge.ValidateRules(in.Rules); err != nil {
			return badge.Badge{}, err
		}
		b.Rules = in.Rules
	}
	if in.Points != nil {
		if *in.Points < 0 {
			return badge.Badge{}, fmt.Errorf("points cannot be negative")
		}
		b.Points = *in.Points
	}
	return s.store.UpdateBadge(ctx, b)
}

// ToggleActive flips the active flag. Inactive badges are never awarded.
func (s *Service) ToggleActive(ctx context.Context, id string) (badge.Badge, error) {
	b, err := s.store.GetBadge(ctx, id)
	if err != nil {
		return badge.Badge{}, err
	}
	b.Active = !b.Active
	updated, err := s.store.UpdateBadge(ctx, b)
	if err != nil {
		return badge.Badge{}, err
	}
	s.log.WithField("badge_id", id).WithField("active", updated.Active).Info("badge status toggled")
	return updated, nil
}

// Delete removes a badge definition. Already-granted badges stay on users.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBadge(ctx, id); err != nil {
		return err
	}
	s.log.WithField("badge_id", id).Info("badge deleted")
	return nil
}

// EvaluateUser checks every active badge against the user's current stats
// and grants the ones newly earned. Granting is idempotent: the set-add
// reports whether the badge was new, and points move only on a fresh grant.
// Returns the badges granted in this pass.
func (s *Service) EvaluateUser(ctx context.Context, userID string) ([]badge.Badge, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active, err := s.store.ListBadges(ctx, true, "")
	if err != nil {
		return nil, err
	}

	stats := u.StatValues()
	var granted []badge.Badge
	for _, b := range badge.Eligible(active, stats) {
		if u.HasBadge(b.ID) {
			continue
		}
		added, err := s.users.AddBadge(ctx, userID, b.ID)
		if err != nil {
			return granted, err
		}
		if !added {
			continue
		}
		if b.Points > 0 {
			if err := s.users.AddScore(ctx, userID, b.Points); err != nil {
				return granted, err
			}
		}
		metrics.RecordBadgeAwarded()
		granted = append(granted, b)
		s.log.WithField("user_id", userID).
			WithField("badge_id", b.ID).
			WithField("points", b.Points).
			Info("badge awarded")
	}
	return granted, nil
}
