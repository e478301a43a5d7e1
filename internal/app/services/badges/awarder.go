package badges

import (
	"context"
	"sync"

	"github.com/fitchallenge/backend/internal/app/metrics"
	"github.com/fitchallenge/backend/internal/app/system"
	"github.com/fitchallenge/backend/pkg/logger"
)

var _ system.Service = (*Awarder)(nil)

const defaultQueueSize = 256

// Awarder runs badge evaluation off the request path. Completing a
// challenge enqueues the user; the worker evaluates and grants in the
// background so the progress update never waits on it.
type Awarder struct {
	service *Service
	log     *logger.Logger
	queue   chan string

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewAwarder creates a lifecycle-managed badge evaluation worker.
func NewAwarder(service *Service, log *logger.Logger) *Awarder {
	if log == nil {
		log = logger.NewDefault("badge-awarder")
	}
	return &Awarder{
		service: service,
		log:     log,
		queue:   make(chan string, defaultQueueSize),
	}
}

func (a *Awarder) Name() string { return "badge-awarder" }

func (a *Awarder) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case userID := <-a.queue:
				a.evaluate(runCtx, userID)
			}
		}
	}()

	a.log.Info("badge awarder started")
	return nil
}

func (a *Awarder) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	cancel := a.cancel
	a.running = false
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.log.Info("badge awarder stopped")
	return nil
}

// Enqueue requests a background evaluation for the user. It never blocks:
// when the queue is full the request is dropped and logged, and the user is
// picked up again on their next completion.
func (a *Awarder) Enqueue(userID string) {
	select {
	case a.queue <- userID:
	default:
		a.log.WithField("user_id", userID).Warn("badge evaluation queue full, dropping request")
	}
}

// EvaluateNow runs one evaluation synchronously, bypassing the queue.
func (a *Awarder) EvaluateNow(ctx context.Context, userID string) error {
	_, err := a.service.EvaluateUser(ctx, userID)
	metrics.RecordBadgeEvaluation(err)
	return err
}

func (a *Awarder) evaluate(ctx context.Context, userID string) {
	granted, err := a.service.EvaluateUser(ctx, userID)
	metrics.RecordBadgeEvaluation(err)
	if err != nil {
		a.log.WithError(err).WithField("user_id", userID).Warn("badge evaluation failed")
		return
	}
	if len(granted) > 0 {
		a.log.WithField("user_id", userID).WithField("granted", len(granted)).Info("badge evaluation granted badges")
	}
}
