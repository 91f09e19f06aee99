// Package scheduler runs the deadline passes on a fixed interval for the
// lifetime of the process.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Ticker is one unit of periodic work, typically *service.DeadlineService.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) error
}

// Scheduler invokes a Ticker every interval. Ticks never overlap: if one
// is still running when the next is due, the next is skipped.
type Scheduler struct {
	job      Ticker
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// New constructs a Scheduler. cron.Every rounds interval down to whole
// seconds, with a minimum of one second.
func New(job Ticker, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{job: job, interval: interval, now: time.Now, log: log}
}

// Run blocks until ctx is cancelled, then waits for an in-flight tick to
// finish. A tick that has started is not interrupted by cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.tick(context.WithoutCancel(ctx))
	}))

	s.log.Info("scheduler started", "interval", s.interval.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	started := s.now()
	if err := s.job.Tick(ctx, started); err != nil {
		s.log.Error("scheduler tick failed", "error", err)
		return
	}
	s.log.Debug("scheduler tick done", "duration_ms", time.Since(started).Milliseconds())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
