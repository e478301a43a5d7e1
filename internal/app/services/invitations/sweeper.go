package invitations

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fitchallenge/backend/internal/app/storage"
	"github.com/fitchallenge/backend/internal/app/system"
	"github.com/fitchallenge/backend/pkg/logger"
)

var _ system.Service = (*Sweeper)(nil)

// DefaultSweepSchedule runs the sweep every ten minutes.
const DefaultSweepSchedule = "@every 10m"

// Sweeper periodically expires overdue invitations and deletes stale
// sessions, supplementing the lazy sweep that runs on pending reads.
type Sweeper struct {
	service  *Service
	sessions storage.SessionStore
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewSweeper creates a lifecycle-managed cron sweeper.
func NewSweeper(service *Service, sessions storage.SessionStore, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("invitation-sweeper")
	}
	return &Sweeper{
		service:  service,
		sessions: sessions,
		schedule: DefaultSweepSchedule,
		log:      log,
	}
}

// WithSchedule overrides the cron schedule. Call before Start.
func (s *Sweeper) WithSchedule(schedule string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule != "" && !s.running {
		s.schedule = schedule
	}
}

func (s *Sweeper) Name() string { return "invitation-sweeper" }

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.sweep(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.running = true

	s.log.WithField("schedule", s.schedule).Info("invitation sweeper started")
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("invitation sweeper stopped")
	return nil
}

// sweep runs one expiry pass. Errors are logged and swallowed; the next
// tick retries.
func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.service.ExpirePending(ctx); err != nil {
		s.log.WithError(err).Warn("invitation sweep failed")
	}
	if s.sessions != nil {
		n, err := s.sessions.DeleteExpiredSessions(ctx, time.Now().UTC())
		if err != nil {
			s.log.WithError(err).Warn("session cleanup failed")
		} else if n > 0 {
			s.log.WithField("count", n).Info("expired sessions deleted")
		}
	}
}
