// Package timeoff schedules worker leave under the one-or-all-absent staffing
// policy and keeps each worker's leave-day counter in step with it.
package timeoff

import (
	"log/slog"

	"github.com/warp/candleworks/generic"
)

// LeaveRequest asks for WorkerID to be absent from StartDate to EndDate,
// both inclusive. ID is set when editing an existing leave.
type LeaveRequest struct {
	ID        string
	WorkerID  string
	StartDate generic.Date
	EndDate   generic.Date
}

func (r LeaveRequest) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// WorkerInput carries the editable fields of a worker.
type WorkerInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	clock             generic.Clock
	policyYear        generic.PolicyYear
	rejectSelfOverlap bool
	log               *slog.Logger
}

func defaultOptions() options {
	return options{
		clock:             generic.SystemClock{},
		policyYear:        generic.PolicyYear{Type: generic.PolicyCalendarYear},
		rejectSelfOverlap: true,
		log:               slog.Default(),
	}
}

// Option configures a Scheduler or Roster.
type Option func(*options)

func WithClock(c generic.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithPolicyYear sets the year boundaries used by ResetForPeriod.
func WithPolicyYear(py generic.PolicyYear) Option {
	return func(o *options) { o.policyYear = py }
}

// WithSelfOverlapRejection controls whether Validate refuses a request that
// overlaps another leave of the same worker. On by default; a worker booked
// twice for the same day would be counted twice in LeaveDaysAccrued.
func WithSelfOverlapRejection(reject bool) Option {
	return func(o *options) { o.rejectSelfOverlap = reject }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
