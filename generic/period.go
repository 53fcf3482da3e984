package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive day range used for billing and occupancy
// =============================================================================

// Period is the closed interval [Start, End]. Both boundary days count.
//
// Examples:
//   - Calendar billing year 2025: Jan 1 - Dec 31
//   - Fiscal billing year 2025 starting in July: Jul 1 2025 - Jun 30 2026
//   - A tenancy that moved out on Mar 31: MoveIn - Mar 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// CalendarYear returns Jan 1 - Dec 31 of year.
func CalendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Validate rejects periods whose end lies before their start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: missing boundary in %s", ErrInvalidPeriod, p)
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns the inclusive number of days in the period, or 0 when the
// period is empty.
func (p Period) Days() int {
	n := DaysBetween(p.Start, p.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Intersect returns the overlap of two periods. ok is false when they do
// not share a single day.
func (p Period) Intersect(other Period) (overlap Period, ok bool) {
	overlap = Period{
		Start: MaxTimePoint(p.Start, other.Start),
		End:   MinTimePoint(p.End, other.End),
	}
	if overlap.End.Before(overlap.Start) {
		return Period{}, false
	}
	return overlap, true
}

// IsCalendarYear reports whether the period is exactly Jan 1 - Dec 31.
func (p Period) IsCalendarYear() bool {
	return p.Start.Equal(StartOfYear(p.Start.Year())) && p.End.Equal(EndOfYear(p.Start.Year()))
}

// BasisDays is the denominator for time fractions. It is always a year
// length: a period spanning a whole year (calendar or fiscal) counts its
// own days, any shorter period the length of the year it starts in. A
// half-year period therefore yields half the yearly share.
func (p Period) BasisDays() int {
	if n := p.Days(); n == 365 || n == 366 {
		return n
	}
	return YearLength(p.Start.Year())
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodType defines how billing periods are laid out.
type PeriodType string

const (
	PeriodCalendarYear PeriodType = "calendar_year" // Jan 1 - Dec 31
	PeriodFiscalYear   PeriodType = "fiscal_year"   // Custom start month
)

// PeriodConfig defines how to calculate billing periods.
type PeriodConfig struct {
	Type PeriodType

	// For fiscal year: which month starts the billing year (1-12)
	FiscalYearStartMonth time.Month
}

// =============================================================================
// PERIOD CALCULATOR - Determines which billing period a date falls into
// =============================================================================

// PeriodFor returns the billing period that contains the given date.
func (pc PeriodConfig) PeriodFor(date TimePoint) Period {
	if pc.Type != PeriodFiscalYear || pc.FiscalYearStartMonth <= time.January {
		return CalendarYear(date.Year())
	}
	year := date.Year()
	fiscalStart := NewTimePoint(year, pc.FiscalYearStartMonth, 1)

	// If date is before fiscal year start, we're in previous fiscal year
	if date.Before(fiscalStart) {
		fiscalStart = NewTimePoint(year-1, pc.FiscalYearStartMonth, 1)
	}
	return Period{Start: fiscalStart, End: fiscalStart.AddYears(1).AddDays(-1)}
}

// PeriodForYear returns the billing period labelled with year. Fiscal
// billing years are labelled by the year they start in.
func (pc PeriodConfig) PeriodForYear(year int) Period {
	if pc.Type != PeriodFiscalYear || pc.FiscalYearStartMonth <= time.January {
		return CalendarYear(year)
	}
	return pc.PeriodFor(NewTimePoint(year, pc.FiscalYearStartMonth, 1))
}
