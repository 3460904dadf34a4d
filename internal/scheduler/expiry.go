package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	DefaultSweepInterval = 60 * time.Second
	sweepJobName         = "seat-hold-expiry"
)

type Sweeper interface {
	SweepExpiredHolds(ctx context.Context) (int, error)
}

// ExpiryScheduler periodically releases expired seat holds. A run that is
// still in progress when the next one is due causes that run to be skipped.
type ExpiryScheduler struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	locker    gocron.Locker
	logger    *slog.Logger
}

type Option func(*ExpiryScheduler)

// WithLocker makes only one instance of the service sweep at a time.
func WithLocker(locker gocron.Locker) Option {
	return func(s *ExpiryScheduler) {
		s.locker = locker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *ExpiryScheduler) {
		s.logger = logger
	}
}

func NewExpiryScheduler(sweeper Sweeper, interval time.Duration, opts ...Option) (*ExpiryScheduler, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	s := &ExpiryScheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	schedulerOpts := []gocron.SchedulerOption{
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(s.logger),
	}

	if s.locker != nil {
		schedulerOpts = append(schedulerOpts, gocron.WithDistributedLocker(s.locker))
	}

	scheduler, err := gocron.NewScheduler(schedulerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s.scheduler = scheduler

	return s, nil
}

// Start registers the sweep job and starts the scheduler. ctx bounds every run.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.sweep(ctx)
		}),
		gocron.WithName(sweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register %s job: %w", sweepJobName, err)
	}

	s.scheduler.Start()
	s.logger.Info("seat hold expiry scheduler started", "interval", s.interval)

	return nil
}

func (s *ExpiryScheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	released, err := s.sweeper.SweepExpiredHolds(runCtx)
	if err != nil {
		s.logger.Error("seat hold sweep failed", "released", released, "error", err)
		return
	}

	if released > 0 {
		s.logger.Info("seat hold sweep finished", "released", released)
	}
}

func (s *ExpiryScheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
