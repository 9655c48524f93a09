package generic_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/candleworks/generic"
)

func TestPeriod_OverlapsAndDuration(t *testing.T) {
	p := func(from, to string) generic.Period {
		return generic.Period{Start: generic.MustParseDate(from), End: generic.MustParseDate(to)}
	}

	assert.Equal(t, 3, p("2025-01-01", "2025-01-03").DurationDays())
	assert.Equal(t, 1, p("2025-01-02", "2025-01-02").DurationDays())
	assert.Equal(t, 366, p("2024-01-01", "2024-12-31").DurationDays(), "leap year")

	assert.True(t, p("2025-01-01", "2025-01-03").Overlaps(p("2025-01-03", "2025-01-08")), "touching end days overlap")
	assert.False(t, p("2025-01-01", "2025-01-03").Overlaps(p("2025-01-04", "2025-01-08")))
	assert.True(t, p("2025-01-01", "2025-01-31").Contains(generic.MustParseDate("2025-01-31")))
}

func TestPeriod_DurationBeyondDurationRange(t *testing.T) {
	// GIVEN: A period spanning the whole representable calendar
	p := generic.Period{Start: generic.MustParseDate("0001-01-01"), End: generic.MustParseDate("9999-12-31")}

	// WHEN: Its length is computed
	days := p.DurationDays()

	// THEN: The count is exact instead of clamped at ~292 years
	assert.Equal(t, 3652059, days)
	assert.Equal(t, -3652058, generic.DaysBetween(p.End, p.Start))
}

func TestPeriod_Validate(t *testing.T) {
	err := generic.Period{Start: generic.MustParseDate("2025-01-05"), End: generic.MustParseDate("2025-01-01")}.Validate()
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	err = generic.Period{Start: generic.MustParseDate("2025-01-05")}.Validate()
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestPolicyYear_PeriodFor(t *testing.T) {
	tests := []struct {
		name       string
		py         generic.PolicyYear
		date       string
		start, end string
	}{
		{"calendar", generic.PolicyYear{Type: generic.PolicyCalendarYear}, "2025-06-15", "2025-01-01", "2025-12-31"},
		{"zero value is calendar", generic.PolicyYear{}, "2025-01-01", "2025-01-01", "2025-12-31"},
		{"fiscal after start", generic.PolicyYear{Type: generic.PolicyFiscalYear, FiscalYearStartMonth: time.April}, "2025-04-01", "2025-04-01", "2026-03-31"},
		{"fiscal before start", generic.PolicyYear{Type: generic.PolicyFiscalYear, FiscalYearStartMonth: time.April}, "2025-03-31", "2024-04-01", "2025-03-31"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.py.PeriodFor(generic.MustParseDate(tc.date))
			assert.Equal(t, tc.start, got.Start.String())
			assert.Equal(t, tc.end, got.End.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", d.String())
	assert.Equal(t, time.UTC, d.Time.Location())

	_, err = generic.ParseDate("2025-02-30")
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestDateOf_KeepsLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	late := time.Date(2025, time.December, 31, 23, 30, 0, 0, time.UTC).In(loc)
	assert.Equal(t, "2026-01-01", generic.DateOf(late).String())
}

func TestParseMaterial(t *testing.T) {
	m, err := generic.ParseMaterial(" pure ")
	require.NoError(t, err)
	assert.Equal(t, generic.MaterialPure, m)

	_, err = generic.ParseMaterial("Green")
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("edit sale: %w", generic.NotFound("customer", "c1"))
	assert.True(t, generic.IsNotFound(wrapped))
	assert.Equal(t, "edit sale: customer c1 not found", wrapped.Error())

	assert.True(t, generic.IsConflict(generic.AlreadyExists("product", "White/T-40")))
	assert.True(t, generic.IsConflict(&generic.InUseError{Entity: "customer", ID: "c1", ReferencedBy: "sales"}))

	rule := &generic.RuleViolationError{Absent: 2, Total: 3}
	assert.True(t, generic.IsClientError(rule))
	assert.ErrorIs(t, rule, generic.ErrRuleViolation)
	assert.True(t, generic.IsClientError(generic.Invalid("quantity", "must be positive")))

	assert.ErrorIs(t, &generic.ConsistencyError{Entity: "sale", ID: "s1", Op: "delete"}, generic.ErrConsistencyViolation)
	assert.False(t, generic.IsClientError(&generic.ConsistencyError{}))
}
