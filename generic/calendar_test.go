package generic_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
)

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// =============================================================================
// YEAR LENGTH
// =============================================================================

func TestYearLength_LeapRule(t *testing.T) {
	assert.Equal(t, 366, generic.YearLength(2024))
	assert.Equal(t, 365, generic.YearLength(2023))
	assert.Equal(t, 365, generic.YearLength(1900), "century years are not leap unless divisible by 400")
	assert.Equal(t, 366, generic.YearLength(2000))
}

func TestDaysBetween_InclusiveCounting(t *testing.T) {
	// GIVEN: The same day twice
	// THEN: Zero days between, one day in the period
	d := date(2025, time.March, 10)
	assert.Equal(t, 0, generic.DaysBetween(d, d))
	assert.Equal(t, 1, generic.Period{Start: d, End: d}.Days())

	// Across the leap day
	assert.Equal(t, 2, generic.DaysBetween(date(2024, time.February, 28), date(2024, time.March, 1)))
	assert.Equal(t, 366, generic.CalendarYear(2024).Days())
	assert.Equal(t, 365, generic.CalendarYear(2025).Days())
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod_Intersect(t *testing.T) {
	year := generic.CalendarYear(2025)

	overlap, ok := year.Intersect(generic.Period{Start: date(2024, time.June, 1), End: date(2025, time.March, 31)})
	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 1), overlap.Start)
	assert.Equal(t, date(2025, time.March, 31), overlap.End)
	assert.Equal(t, 90, overlap.Days())

	_, ok = year.Intersect(generic.Period{Start: date(2026, time.January, 1), End: date(2026, time.May, 1)})
	assert.False(t, ok, "disjoint periods have no overlap")
}

func TestPeriod_Validate(t *testing.T) {
	bad := generic.Period{Start: date(2025, time.May, 2), End: date(2025, time.May, 1)}
	assert.True(t, errors.Is(bad.Validate(), generic.ErrInvalidPeriod))
	assert.Equal(t, 0, bad.Days(), "an inverted period has no days")

	assert.NoError(t, generic.CalendarYear(2025).Validate())
	assert.Error(t, generic.Period{}.Validate())
}

func TestPeriod_BasisDays(t *testing.T) {
	assert.Equal(t, 366, generic.CalendarYear(2024).BasisDays())

	cfg := generic.PeriodConfig{Type: generic.PeriodFiscalYear, FiscalYearStartMonth: time.July}
	fiscal := cfg.PeriodForYear(2023)
	assert.False(t, fiscal.IsCalendarYear())
	assert.Equal(t, 366, fiscal.BasisDays(), "Jul 2023 - Jun 2024 contains Feb 29")

	// Shorter periods still divide by a year length
	half := generic.Period{Start: date(2025, time.January, 1), End: date(2025, time.June, 30)}
	assert.Equal(t, 181, half.Days())
	assert.Equal(t, 365, half.BasisDays())
	leapQuarter := generic.Period{Start: date(2024, time.January, 1), End: date(2024, time.March, 31)}
	assert.Equal(t, 366, leapQuarter.BasisDays())
}

func TestPeriodConfig_FiscalYear(t *testing.T) {
	cfg := generic.PeriodConfig{Type: generic.PeriodFiscalYear, FiscalYearStartMonth: time.July}

	// GIVEN: A date before the fiscal start month
	// THEN: It belongs to the billing year that started the previous July
	p := cfg.PeriodFor(date(2025, time.March, 15))
	assert.Equal(t, date(2024, time.July, 1), p.Start)
	assert.Equal(t, date(2025, time.June, 30), p.End)

	p = cfg.PeriodForYear(2025)
	assert.Equal(t, date(2025, time.July, 1), p.Start)
	assert.Equal(t, date(2026, time.June, 30), p.End)

	// Calendar config ignores the month
	assert.Equal(t, generic.CalendarYear(2025), generic.PeriodConfig{}.PeriodForYear(2025))
}

// =============================================================================
// TIME POINT JSON
// =============================================================================

func TestTimePoint_JSON(t *testing.T) {
	var payload struct {
		MoveIn  generic.TimePoint  `json:"move_in"`
		MoveOut *generic.TimePoint `json:"move_out"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"move_in":"2025-04-01","move_out":null}`), &payload))
	assert.Equal(t, date(2025, time.April, 1), payload.MoveIn)
	assert.Nil(t, payload.MoveOut)

	out, err := json.Marshal(payload.MoveIn)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-04-01"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"move_in":"01.04.2025"}`), &payload))
}

// =============================================================================
// AMOUNT
// =============================================================================

func TestAmount_RoundHalfUp(t *testing.T) {
	a, err := generic.NewAmountFromString("10.005", generic.UnitEUR)
	require.NoError(t, err)
	assert.Equal(t, "10.01", a.RoundToMinorUnit().Value.StringFixed(2))

	b, err := generic.NewAmountFromString("10.0049", generic.UnitEUR)
	require.NoError(t, err)
	assert.Equal(t, "10.00", b.RoundToMinorUnit().Value.StringFixed(2))

	_, err = generic.NewAmountFromString("ten", generic.UnitEUR)
	assert.Error(t, err)
}

func TestAmount_Sum(t *testing.T) {
	total := generic.Sum(generic.UnitKWh,
		generic.NewAmountFromInt(500, generic.UnitKWh),
		generic.NewAmountFromInt(-50, generic.UnitKWh),
	)
	assert.True(t, total.Equal(generic.NewAmountFromInt(450, generic.UnitKWh)))
	assert.Equal(t, "450.000 kWh", total.String())
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func TestMonthlySchedule_ClampsToWindow(t *testing.T) {
	// GIVEN: A tenancy from Mar 15 to Jun 30 paying 100/month
	s := generic.MonthlySchedule{
		Amount: generic.NewAmountFromInt(100, generic.UnitEUR),
		Start:  date(2025, time.March, 15),
		End:    date(2025, time.June, 30),
	}

	// WHEN: Listing installments for the whole year
	due := s.DueInstallments(generic.StartOfYear(2025), generic.EndOfYear(2025))

	// THEN: March through June are due
	require.Len(t, due, 4)
	assert.Equal(t, date(2025, time.March, 1), due[0].DueAt)
	assert.Equal(t, date(2025, time.June, 1), due[3].DueAt)

	total := generic.TotalDue(s, generic.UnitEUR, generic.StartOfYear(2025), generic.EndOfYear(2025))
	assert.True(t, total.Equal(generic.NewAmountFromInt(400, generic.UnitEUR)))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrors_Classification(t *testing.T) {
	basis := &generic.AllocationBasisError{Category: "Grundsteuer", Year: 2025, Key: "area", Reason: "total area is 0"}
	assert.True(t, errors.Is(basis, generic.ErrInvalidAllocationBasis))
	assert.True(t, generic.IsClientError(basis))
	assert.Contains(t, basis.Error(), "Grundsteuer")

	warn := &generic.MeterAnomalyError{MeterID: "m1", Value: generic.NewAmountFromInt(-10, generic.UnitKWh), Net: true}
	assert.True(t, generic.IsWarning(warn))
	assert.False(t, generic.IsClientError(warn))

	assert.True(t, generic.IsNotFound(generic.ErrEntityNotFound))
}
