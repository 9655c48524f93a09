package generic

import "time"

// =============================================================================
// PERIOD - Inclusive day interval
// =============================================================================

// Period is the closed interval [Start, End] of calendar days.
//
// Examples:
//   - A leave from Jan 1 to Jan 3: 3 days
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Fiscal year 2025: Apr 1 - Mar 31
type Period struct {
	Start Date
	End   Date
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &InvalidInputError{Field: "period", Reason: "start and end dates are required"}
	}
	if p.End.Before(p.Start) {
		return &InvalidInputError{Field: "period", Reason: "end date " + p.End.String() + " is before start date " + p.Start.String()}
	}
	return nil
}

// Contains returns true if the day is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two closed intervals share at least one day:
// p.Start <= other.End AND p.End >= other.Start.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)
}

// DurationDays counts the days of the period, both ends included.
func (p Period) DurationDays() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// POLICY YEAR - When leave counters start over
// =============================================================================

// PolicyYearType defines how the leave year is bounded.
type PolicyYearType string

const (
	PolicyCalendarYear PolicyYearType = "calendar_year" // Jan 1 - Dec 31
	PolicyFiscalYear   PolicyYearType = "fiscal_year"   // Custom start (e.g., Apr 1)
)

// PolicyYear determines the leave year a date falls into.
type PolicyYear struct {
	Type PolicyYearType

	// For fiscal year: which month starts the year (1-12)
	FiscalYearStartMonth time.Month
}

// PeriodFor returns the policy year that contains the given date.
func (py PolicyYear) PeriodFor(date Date) Period {
	if py.Type != PolicyFiscalYear || py.FiscalYearStartMonth < time.January || py.FiscalYearStartMonth > time.December {
		return Period{Start: StartOfYear(date.Year()), End: EndOfYear(date.Year())}
	}

	fiscalStart := NewDate(date.Year(), py.FiscalYearStartMonth, 1)
	// If date is before fiscal year start, we're in previous fiscal year
	if date.Before(fiscalStart) {
		fiscalStart = NewDate(date.Year()-1, py.FiscalYearStartMonth, 1)
	}

	return Period{Start: fiscalStart, End: fiscalStart.AddYears(1).AddDays(-1)}
}
