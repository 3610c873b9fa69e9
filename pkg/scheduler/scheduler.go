package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc performs one scheduled cycling run.
type RunFunc func(ctx context.Context) error

// Scheduler runs cycling passes on a cron schedule. A run that is still in
// progress when the next one is due makes the scheduler skip that slot.
type Scheduler struct {
	run    RunFunc
	cron   *cron.Cron
	mu     sync.Mutex
	logger *slog.Logger

	ctx      context.Context
	entry    cron.EntryID
	schedule string
	running  bool
}

// New creates a scheduler for run.
func New(run RunFunc) *Scheduler {
	logger := slog.Default().With("component", "scheduler")
	return &Scheduler{
		run:    run,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		logger: logger,
	}
}

// Start schedules runs with a standard five-field cron expression.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "@every 12h"   - Every 12 hours from start
//
// Runs receive ctx; cancelling it stops the scheduler.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}

	s.ctx = ctx
	if err := s.scheduleLocked(schedule); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "schedule", schedule, "next_run", s.nextRunLocked())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Reschedule replaces the schedule of a running scheduler. An invalid
// expression keeps the current schedule.
func (s *Scheduler) Reschedule(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule == s.schedule {
		return nil
	}
	old := s.entry
	if err := s.scheduleLocked(schedule); err != nil {
		return err
	}
	s.cron.Remove(old)

	s.logger.Info("schedule changed", "schedule", schedule, "next_run", s.nextRunLocked())
	return nil
}

func (s *Scheduler) scheduleLocked(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	id, err := s.cron.AddFunc(schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule cycling: %w", err)
	}

	s.entry = id
	s.schedule = schedule
	return nil
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.RunNow(ctx); err != nil {
		s.logger.Error("scheduled cycling failed", "error", err)
	}
}

// RunNow performs one run immediately in the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("starting scheduled cycling")

	if err := s.run(ctx); err != nil {
		return err
	}

	s.logger.Info("scheduled cycling completed", "duration", time.Since(start))
	return nil
}

// Stop stops the scheduler and waits for a running pass to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Schedule returns the active cron expression.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedule
}

// NextRun returns the next scheduled run, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.nextRunLocked()
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *Scheduler) nextRunLocked() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
