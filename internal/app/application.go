// Package app composes the domain services into a running application. It
// wires stores into services, registers background workers with the system
// manager and owns the start/stop lifecycle. Business logic lives in
// internal/app/services.
package app

import (
	"context"
	"fmt"

	"github.com/fitchallenge/backend/internal/app/services/auth"
	"github.com/fitchallenge/backend/internal/app/services/badges"
	"github.com/fitchallenge/backend/internal/app/services/challenges"
	"github.com/fitchallenge/backend/internal/app/services/exercises"
	"github.com/fitchallenge/backend/internal/app/services/gyms"
	"github.com/fitchallenge/backend/internal/app/services/invitations"
	"github.com/fitchallenge/backend/internal/app/services/participations"
	"github.com/fitchallenge/backend/internal/app/services/users"
	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/app/storage/memory"
	"github.com/fitchallenge/backend/internal/app/system"
	"github.com/fitchallenge/backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users          storage.UserStore
	Sessions       storage.SessionStore
	Gyms           storage.GymStore
	Exercises      storage.ExerciseStore
	Badges         storage.BadgeStore
	Challenges     storage.ChallengeStore
	Participations storage.ParticipationStore
	Invitations    storage.InvitationStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Auth           *auth.Service
	Users          *users.Service
	Gyms           *gyms.Service
	Exercises      *exercises.Service
	Badges         *badges.Service
	Awarder        *badges.Awarder
	Challenges     *challenges.Service
	Participations *participations.Service
	Invitations    *invitations.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = mem
	}
	if stores.Gyms == nil {
		stores.Gyms = mem
	}
	if stores.Exercises == nil {
		stores.Exercises = mem
	}
	if stores.Badges == nil {
		stores.Badges = mem
	}
	if stores.Challenges == nil {
		stores.Challenges = mem
	}
	if stores.Participations == nil {
		stores.Participations = mem
	}
	if stores.Invitations == nil {
		stores.Invitations = mem
	}

	manager := system.NewManager()

	authService := auth.New(stores.Users, stores.Sessions, log)
	userService := users.New(stores.Users, log)
	gymService := gyms.New(stores.Users, stores.Exercises, stores.Gyms, log)
	exerciseService := exercises.New(stores.Exercises, log)
	badgeService := badges.New(stores.Users, stores.Badges, log)
	challengeService := challenges.New(stores.Users, stores.Gyms, stores.Challenges, log)
	participationService := participations.New(stores.Users, stores.Challenges, stores.Participations, log)
	invitationService := invitations.New(stores.Users, stores.Challenges, stores.Participations, stores.Invitations, log)

	awarder := badges.NewAwarder(badgeService, log)
	participationService.AttachAwarder(awarder)
	invitationService.AttachJoiner(participationService)

	sweeper := invitations.NewSweeper(invitationService, stores.Sessions, log)

	for _, name := range []string{"auth", "users", "gyms", "exercises", "challenges"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}
	for _, svc := range []system.Service{awarder, sweeper} {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:        manager,
		log:            log,
		Auth:           authService,
		Users:          userService,
		Gyms:           gymService,
		Exercises:      exerciseService,
		Badges:         badgeService,
		Awarder:        awarder,
		Challenges:     challengeService,
		Participations: participationService,
		Invitations:    invitationService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
