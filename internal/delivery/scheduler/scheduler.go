// Package scheduler runs the monthly yield distribution inside the API process.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"propledger/config"
	"propledger/internal/delivery"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/usecase"
	"propledger/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type distributionScheduler struct {
	yieldUC usecase.YieldUsecase
	logger  *slog.Logger
	enabled bool
	day     int
	hour    int
	loc     *time.Location
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

// SchedulerParams holds dependencies for the distribution scheduler
type SchedulerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	YieldUC usecase.YieldUsecase
}

// NewScheduler creates the monthly distribution trigger
func NewScheduler(params SchedulerParams) (delivery.Delivery, error) {
	sched := params.Cfg.Distribution.Scheduler

	loc := time.UTC
	if sched.Location != "" {
		var err error
		loc, err = time.LoadLocation(sched.Location)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid distribution.scheduler.location %q", sched.Location)
		}
	}

	s := &distributionScheduler{
		yieldUC: params.YieldUC,
		logger:  params.Logger,
		enabled: sched.Enabled,
		day:     sched.DayOfMonth,
		hour:    sched.Hour,
		loc:     loc,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: s.shutdown,
	})

	return s, nil
}

// Serve blocks until the scheduler is stopped, running a distribution at every
// configured day and hour.
func (s *distributionScheduler) Serve(ctx context.Context) error {
	defer close(s.done)

	if !s.enabled {
		s.logger.Info("Distribution scheduler disabled")

		return nil
	}

	for {
		now := s.now()
		next := nextRun(now, s.day, s.hour, s.loc)
		wait := next.Sub(now)
		s.logger.Info("Next distribution run scheduled",
			slog.Time("at", next),
			slog.String("in", util.FormatDuration(wait)),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-s.stop:
			timer.Stop()

			return nil
		case <-timer.C:
			s.run(ctx)
		}
	}
}

func (s *distributionScheduler) run(ctx context.Context) {
	ctx, logger := deliverycontext.WithRequestScope(ctx, s.logger, deliverycontext.NewRequestID())

	report, err := s.yieldUC.RunDistribution(ctx)
	if err != nil {
		logger.Error("Scheduled distribution failed", slog.Any("error", err))

		return
	}

	logger.Info("Scheduled distribution finished",
		slog.Bool("skipped", report.Skipped),
		slog.Int("assets", len(report.Assets)),
		slog.Int("failed", len(report.Failed())),
	)
}

func (s *distributionScheduler) shutdown(ctx context.Context) error {
	close(s.stop)

	// Let an in-flight run finish its current asset transactions.
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// nextRun returns the first instant strictly after now that falls on the given
// day of month and hour in loc.
func nextRun(now time.Time, day, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), day, hour, 0, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(local.Year(), local.Month()+1, day, hour, 0, 0, 0, loc)
	}

	return candidate
}
