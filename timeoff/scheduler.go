/*
scheduler.go - Leave validation, bookkeeping and the yearly counter reset

STAFFING POLICY:
  On any calendar day the number of distinct workers on leave must be
  exactly 1 or equal to the total number of workers.

  For a request [start, end] the check is made against the union of:
  - every stored leave overlapping the request
    (existing.start <= request.end AND existing.end >= request.start)
  - minus the leave being edited, if any
  - plus the requesting worker

  Example with 3 workers:
    A: Jan 1-3      -> {A}          1 of 3  accepted
    B: Jan 2        -> {A, B}       2 of 3  rejected
    C: Jan 2 (after B was allowed)  -> {A, B, C} 3 of 3 accepted

COUNTER:
  Worker.LeaveDaysAccrued moves with every add/edit/delete by the leave's
  durationDays (end - start + 1). The counter and the leave record are
  written in the same transaction.

RESET:
  ResetAllLeaveCounters zeroes every counter in one transaction, holding
  the store's write lock so no leave mutation sees a half-reset roster.
  ResetForPeriod does the same at most once per policy year.

SEE ALSO:
  - roster.go: worker registration
  - api/scheduler.go: the periodic trigger
*/
package timeoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/candleworks/generic"
)

// Scheduler validates and records leaves.
type Scheduler struct {
	store generic.Store
	opts  options
	log   *slog.Logger
}

func NewScheduler(store generic.Store, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	return &Scheduler{store: store, opts: o, log: o.log.With("component", "leave-scheduler")}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the request against the staffing policy. excludingLeaveID
// names the leave being edited; pass "" for a new leave.
func (s *Scheduler) Validate(ctx context.Context, req LeaveRequest, excludingLeaveID string) error {
	if req.WorkerID == "" {
		return generic.Invalid("worker_id", "is required")
	}
	period := req.Period()
	if err := period.Validate(); err != nil {
		return err
	}

	overlapping, err := s.store.Leaves().Overlapping(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to load overlapping leaves: %w", err)
	}

	absent := map[string]struct{}{req.WorkerID: {}}
	for _, l := range overlapping {
		if excludingLeaveID != "" && l.ID == excludingLeaveID {
			continue
		}
		if s.opts.rejectSelfOverlap && l.WorkerID == req.WorkerID {
			s.log.Info("leave declined, worker already on leave",
				"worker_id", req.WorkerID, "period", period.String(), "existing", l.ID)
			return fmt.Errorf("%w: worker %s already has leave %s during %s",
				generic.ErrRuleViolation, req.WorkerID, l.ID, l.Period())
		}
		absent[l.WorkerID] = struct{}{}
	}

	total, err := s.store.Workers().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count workers: %w", err)
	}

	if len(absent) == 1 || len(absent) == total {
		return nil
	}

	s.log.Info("leave declined", "worker_id", req.WorkerID, "period", period.String(),
		"absent", len(absent), "total", total)
	return &generic.RuleViolationError{Absent: len(absent), Total: total}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Add validates the request, stores the leave and credits the worker's counter.
func (s *Scheduler) Add(ctx context.Context, req LeaveRequest) (generic.Leave, error) {
	var leave generic.Leave
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		worker, err := s.store.Workers().Get(ctx, req.WorkerID)
		if err != nil {
			return err
		}
		if err := s.Validate(ctx, req, ""); err != nil {
			return err
		}

		leave = generic.Leave{
			ID:        generic.NewID(),
			WorkerID:  worker.ID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}
		worker.LeaveDaysAccrued += leave.DurationDays()

		if err := s.store.Workers().Save(ctx, worker); err != nil {
			return err
		}
		return s.store.Leaves().Save(ctx, leave)
	})
	if err != nil {
		return generic.Leave{}, err
	}

	s.log.Info("leave added", "leave_id", leave.ID, "worker_id", leave.WorkerID, "days", leave.DurationDays())
	return leave, nil
}

// Edit replaces the dates (and optionally the worker) of an existing leave.
// An empty req.WorkerID keeps the current worker.
func (s *Scheduler) Edit(ctx context.Context, req LeaveRequest) (generic.Leave, error) {
	var updated generic.Leave
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.Leaves().Get(ctx, req.ID)
		if err != nil {
			return err
		}
		if req.WorkerID == "" {
			req.WorkerID = existing.WorkerID
		}

		newWorker, err := s.store.Workers().Get(ctx, req.WorkerID)
		if err != nil {
			return err
		}
		if err := s.Validate(ctx, req, existing.ID); err != nil {
			return err
		}

		updated = generic.Leave{
			ID:        existing.ID,
			WorkerID:  newWorker.ID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}

		if existing.WorkerID == newWorker.ID {
			newWorker.LeaveDaysAccrued += updated.DurationDays() - existing.DurationDays()
		} else {
			oldWorker, err := s.store.Workers().Get(ctx, existing.WorkerID)
			if err != nil {
				return err
			}
			oldWorker.LeaveDaysAccrued -= existing.DurationDays()
			if err := s.store.Workers().Save(ctx, oldWorker); err != nil {
				return err
			}
			newWorker.LeaveDaysAccrued += updated.DurationDays()
		}

		if err := s.store.Workers().Save(ctx, newWorker); err != nil {
			return err
		}
		return s.store.Leaves().Save(ctx, updated)
	})
	if err != nil {
		return generic.Leave{}, err
	}

	s.log.Info("leave changed", "leave_id", updated.ID, "worker_id", updated.WorkerID, "days", updated.DurationDays())
	return updated, nil
}

// Delete removes a leave and debits the worker's counter.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		leave, err := s.store.Leaves().Get(ctx, id)
		if err != nil {
			return err
		}
		worker, err := s.store.Workers().Get(ctx, leave.WorkerID)
		if err != nil {
			return err
		}

		worker.LeaveDaysAccrued -= leave.DurationDays()
		if err := s.store.Workers().Save(ctx, worker); err != nil {
			return err
		}
		if err := s.store.Leaves().Delete(ctx, id); err != nil {
			return err
		}

		if _, err := s.store.Leaves().Get(ctx, id); !generic.IsNotFound(err) {
			s.log.Error("leave still present after delete", "leave_id", id)
			return &generic.ConsistencyError{Entity: "leave", ID: id, Op: "delete"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("leave deleted", "leave_id", id)
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// LeavesForWorker returns the worker's leaves, NotFound when there are none.
func (s *Scheduler) LeavesForWorker(ctx context.Context, workerID string) ([]generic.Leave, error) {
	leaves, err := s.store.Leaves().ByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, generic.NotFound("leaves for worker", workerID)
	}
	return leaves, nil
}

// LeavesOnDate returns the leaves covering date, NotFound when there are none.
func (s *Scheduler) LeavesOnDate(ctx context.Context, date generic.Date) ([]generic.Leave, error) {
	leaves, err := s.store.Leaves().Overlapping(ctx, generic.Period{Start: date, End: date})
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, generic.NotFound("leaves on date", date.String())
	}
	return leaves, nil
}

func (s *Scheduler) LeavesToday(ctx context.Context) ([]generic.Leave, error) {
	return s.LeavesOnDate(ctx, generic.DateOf(s.opts.clock.Now()))
}

func (s *Scheduler) All(ctx context.Context) ([]generic.Leave, error) {
	return s.store.Leaves().List(ctx)
}

// =============================================================================
// YEARLY RESET
// =============================================================================

// ResetAllLeaveCounters sets every worker's counter to zero and returns the
// number of workers reset.
func (s *Scheduler) ResetAllLeaveCounters(ctx context.Context) (int, error) {
	var n int
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.store.Workers().ResetLeaveDays(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave counters: %w", err)
	}
	s.log.Info("leave counters reset", "workers", n)
	return n, nil
}

// ResetForPeriod resets the counters if the policy year containing now has
// not been reset yet. The first call ever only records the current year as
// the baseline, so deploying mid-year does not wipe counters.
// It reports whether a reset happened.
func (s *Scheduler) ResetForPeriod(ctx context.Context, now time.Time) (bool, error) {
	period := s.opts.policyYear.PeriodFor(generic.DateOf(now))

	var reset bool
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		last, err := s.store.Resets().Last(ctx)
		switch {
		case generic.IsNotFound(err):
			s.log.Info("recording leave year baseline", "period_start", period.Start.String())
			return s.store.Resets().Record(ctx, generic.LeaveReset{PeriodStart: period.Start, ResetAt: now})
		case err != nil:
			return err
		case !last.PeriodStart.Before(period.Start):
			return nil
		}

		n, err := s.store.Workers().ResetLeaveDays(ctx)
		if err != nil {
			return err
		}
		reset = true
		return s.store.Resets().Record(ctx, generic.LeaveReset{PeriodStart: period.Start, Workers: n, ResetAt: now})
	})
	if errors.Is(err, generic.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to reset leave counters for %s: %w", period, err)
	}
	if reset {
		s.log.Info("leave counters reset for new policy year", "period", period.String())
	}
	return reset, nil
}
