// Package scheduler runs periodic maintenance jobs against the store.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Completer is the store operation the sweep needs.
type Completer interface {
	CompletePastEvents(ctx context.Context, cutoff time.Time) (events, bookings int64, err error)
}

// Sweeper marks approved events whose date has passed as completed, along
// with their confirmed bookings.
type Sweeper struct {
	store   Completer
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewSweeper constructs a Sweeper over store.
func NewSweeper(store Completer, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, logger: logger, timeout: time.Minute, now: time.Now}
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, bookings, err := s.store.CompletePastEvents(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("complete past events: %w", err)
	}
	if events > 0 || bookings > 0 {
		s.logger.Info("past events completed", "events", events, "bookings", bookings)
	}
	return nil
}

// Start schedules Sweep every interval, beginning immediately, and returns
// the running scheduler. Call Shutdown on it to stop.
func (s *Sweeper) Start(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("completion sweep failed", "err", err)
			}
		}),
		gocron.WithName("complete-past-events"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	sched.Start()
	return sched, nil
}
