// Package scheduler repeats the cleanup cycle for every configured service
// on a fixed interval.
package scheduler

import (
	"context"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// CycleRunner runs one cleanup cycle for one service.
type CycleRunner interface {
	CleanOne(ctx context.Context, ep models.ServiceEndpoint) models.CycleReport
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSleep overrides the interruptible sleep between cycles.
func WithSleep(sleep SleepFunc) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// Scheduler runs cycles strictly one after another: every endpoint in
// order, then a full interval of sleep, forever.
type Scheduler struct {
	runner    CycleRunner
	endpoints []models.ServiceEndpoint
	interval  time.Duration
	schedule  cronlib.Schedule
	reports   *ReportRegistry
	logger    *zap.Logger

	now   func() time.Time
	sleep SleepFunc
}

// NewScheduler creates a scheduler. The interval is rounded down to whole
// seconds with a one second minimum.
func NewScheduler(runner CycleRunner, endpoints []models.ServiceEndpoint, interval time.Duration, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule := cronlib.Every(interval)

	s := &Scheduler{
		runner:    runner,
		endpoints: append([]models.ServiceEndpoint(nil), endpoints...),
		interval:  schedule.Delay,
		schedule:  schedule,
		reports:   NewReportRegistry(),
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reports exposes the most recent report per service.
func (s *Scheduler) Reports() *ReportRegistry {
	return s.reports
}

// Interval returns the effective sleep interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// RunCycle cleans every endpoint once, in order. A failing service never
// prevents the following ones from running.
func (s *Scheduler) RunCycle(ctx context.Context) []models.CycleReport {
	reports := make([]models.CycleReport, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		if ctx.Err() != nil {
			break
		}
		report := s.runner.CleanOne(ctx, ep)
		s.reports.Record(report)
		reports = append(reports, report)
	}
	return reports
}

// Run loops until ctx is cancelled and then returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("🚀 Scheduler started",
		zap.Int("services", len(s.endpoints)),
		zap.Duration("interval", s.interval),
	)

	for {
		s.logger.Info("Running cleanup cycle")
		s.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			s.logger.Info("🛑 Scheduler stopping")
			return err
		}

		now := s.now()
		next := s.nextRun(now)
		s.logger.Info("💤 Finished cleanup cycle, sleeping",
			zap.Duration("interval", s.interval),
			zap.Time("next_run", next),
		)

		if err := s.sleep(ctx, next.Sub(now)); err != nil {
			s.logger.Info("🛑 Scheduler stopping")
			return err
		}
	}
}

// nextRun schedules from the next whole second so that the full interval
// always elapses after the cycle that just finished.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	from := now
	if rem := now.Sub(now.Truncate(time.Second)); rem > 0 {
		from = now.Truncate(time.Second).Add(time.Second)
	}
	return s.schedule.Next(from)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
