/*
scheduler.go - Yearly leave counter reset job

PURPOSE:
  Fires on a cron schedule and resets every worker's leave counter once per
  policy year. Each tick asks the leave scheduler whether the current policy
  year was already reset, so running the check daily (or after downtime over
  New Year) still resets exactly once.

DESIGN:
  - gocron scheduler in the configured timezone
  - Runs one check immediately on start to catch up after downtime
  - The reset itself is transactional (timeoff.Scheduler.ResetForPeriod)

USAGE:
  job := NewLeaveResetScheduler(leaves, LeaveResetOptions{Cron: "5 0 * * *"})
  job.Start()
  // ... later
  job.Stop()

SEE ALSO:
  - handlers.go: TriggerLeaveReset endpoint (manual reset)
  - timeoff/scheduler.go: ResetForPeriod
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/warp/candleworks/generic"
)

// LeaveResetter is the part of timeoff.Scheduler the job needs.
type LeaveResetter interface {
	ResetForPeriod(ctx context.Context, now time.Time) (bool, error)
}

type LeaveResetOptions struct {
	Cron     string
	Location *time.Location
	Clock    generic.Clock
	Metrics  *Metrics
	Logger   *slog.Logger
	Enabled  bool
}

// LeaveResetScheduler runs the yearly leave counter reset.
type LeaveResetScheduler struct {
	leaves LeaveResetter
	opts   LeaveResetOptions
	log    *slog.Logger

	mu      sync.Mutex
	cron    *gocron.Scheduler
	running bool
}

func NewLeaveResetScheduler(leaves LeaveResetter, opts LeaveResetOptions) *LeaveResetScheduler {
	if opts.Cron == "" {
		opts.Cron = "5 0 * * *"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = generic.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LeaveResetScheduler{
		leaves: leaves,
		opts:   opts,
		log:    opts.Logger.With("component", "leave-reset"),
	}
}

// Start schedules the job and runs one check right away.
func (s *LeaveResetScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opts.Enabled {
		s.log.Info("disabled, not starting")
		return nil
	}
	if s.running {
		return nil
	}

	c := gocron.NewScheduler(s.opts.Location)
	c.SingletonModeAll()
	if _, err := c.Cron(s.opts.Cron).StartImmediately().Do(s.tick); err != nil {
		return fmt.Errorf("schedule leave reset %q: %w", s.opts.Cron, err)
	}
	c.StartAsync()

	s.cron = c
	s.running = true
	s.log.Info("started", "cron", s.opts.Cron, "timezone", s.opts.Location.String())
	return nil
}

// Stop waits for a running tick to finish.
func (s *LeaveResetScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.log.Info("stopped")
}

func (s *LeaveResetScheduler) tick() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.log.Error("leave reset failed", "error", err)
	}
}

// RunOnce performs a single check at the clock's current time.
func (s *LeaveResetScheduler) RunOnce(ctx context.Context) (bool, error) {
	now := s.opts.Clock.Now().In(s.opts.Location)
	s.log.Debug("checking leave year", "now", now)

	reset, err := s.leaves.ResetForPeriod(ctx, now)
	if err != nil {
		return false, err
	}
	if reset {
		if s.opts.Metrics != nil {
			s.opts.Metrics.LeaveResets.Inc()
		}
		s.log.Info("leave counters reset")
	}
	return reset, nil
}
