package metering_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/settlement"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	jan1  = generic.NewTimePoint(2025, time.January, 1)
	dec31 = generic.NewTimePoint(2025, time.December, 31)
	year  = generic.Period{Start: jan1, End: dec31}
)

func mainMeter(id string) metering.Meter {
	return metering.Meter{ID: id, Number: "Z-" + id, Medium: metering.MediumElectricity}
}

func sub(id, parent string) metering.Meter {
	return metering.Meter{ID: id, Number: "Z-" + id, Medium: metering.MediumElectricity, IsSubmeter: true, ParentID: parent}
}

func reading(meterID string, at generic.TimePoint, value int64) metering.Reading {
	return metering.Reading{MeterID: meterID, Date: at, Value: decimal.NewFromInt(value)}
}

func kwh(n int64) generic.Amount { return generic.NewAmountFromInt(n, generic.UnitKWh) }

// =============================================================================
// CONSUMPTION
// =============================================================================

func TestConsumption_BoundingReadings(t *testing.T) {
	// GIVEN: Readings before, inside and after the interval, out of order
	readings := []metering.Reading{
		reading("m", generic.NewTimePoint(2025, time.June, 30), 1300),
		reading("m", generic.NewTimePoint(2024, time.December, 28), 990),
		reading("m", generic.NewTimePoint(2026, time.January, 3), 1600),
		reading("m", generic.NewTimePoint(2025, time.December, 20), 1480),
		reading("other", jan1, 5),
	}

	// WHEN: Computing consumption over 2025
	c := metering.Consumption(mainMeter("m"), readings, year)

	// THEN: Latest at-or-before each boundary is used
	require.False(t, c.Incomplete)
	assert.Equal(t, int64(990), c.Start.Value.IntPart())
	assert.Equal(t, int64(1480), c.End.Value.IntPart())
	assert.True(t, c.Value.Equal(kwh(490)))
}

func TestConsumption_InstalledDuringInterval(t *testing.T) {
	// GIVEN: A meter first read on Jan 5, after the interval starts
	readings := []metering.Reading{
		reading("m", generic.NewTimePoint(2025, time.December, 31), 1350),
		reading("m", generic.NewTimePoint(2025, time.January, 5), 0),
		reading("m", generic.NewTimePoint(2025, time.June, 30), 700),
	}

	// WHEN: Computing consumption over 2025
	c := metering.Consumption(mainMeter("m"), readings, year)

	// THEN: The first reading inside the interval is the start bound
	require.False(t, c.Incomplete)
	assert.True(t, c.Start.Date.Equal(generic.NewTimePoint(2025, time.January, 5)))
	assert.True(t, c.Value.Equal(kwh(1350)))
}

func TestConsumption_Incomplete(t *testing.T) {
	// Single reading inside the interval bounds both ends
	c := metering.Consumption(mainMeter("m"), []metering.Reading{reading("m", generic.NewTimePoint(2025, time.May, 1), 100)}, year)
	assert.True(t, c.Incomplete)
	assert.True(t, c.Value.IsZero())

	// One reading before the interval bounds both ends: not two distinct readings
	c = metering.Consumption(mainMeter("m"), []metering.Reading{reading("m", generic.NewTimePoint(2024, time.May, 1), 100)}, year)
	assert.True(t, c.Incomplete)

	// No readings at all
	c = metering.Consumption(mainMeter("m"), nil, year)
	assert.True(t, c.Incomplete)
}

// =============================================================================
// NET CONSUMPTION
// =============================================================================

func TestNetConsumption_Normal(t *testing.T) {
	// GIVEN: Parent 1000 -> 1500, submeter 100 -> 150
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1500),
		reading("s", jan1, 100), reading("s", dec31, 150),
	}

	// WHEN: Computing the net
	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)

	// THEN: 500 - 50 = 450, no flags
	assert.True(t, res.GrossParent.Equal(kwh(500)))
	assert.True(t, res.PerChild["s"].Equal(kwh(50)))
	assert.True(t, res.Net.Equal(kwh(450)))
	assert.False(t, res.Incomplete)
	assert.False(t, res.Anomaly)
	assert.Empty(t, res.Warnings)
}

func TestNetConsumption_NegativeNetIsNotClamped(t *testing.T) {
	// GIVEN: Parent delta 40, submeter delta 50
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1040),
		reading("s", jan1, 100), reading("s", dec31, 150),
	}

	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)

	// THEN: Net is -10, flagged, not clamped
	assert.True(t, res.Net.Equal(kwh(-10)))
	assert.True(t, res.Anomaly)
	assert.False(t, res.Incomplete)
	require.Len(t, res.Warnings, 1)
	assert.True(t, errors.Is(res.Warnings[0], generic.ErrMeterReadingAnomaly))
	var anomaly *generic.MeterAnomalyError
	require.ErrorAs(t, res.Warnings[0], &anomaly)
	assert.True(t, anomaly.Net)
}

func TestNetConsumption_MeterSwapShowsNegativeChild(t *testing.T) {
	// GIVEN: A submeter that was replaced mid-year and restarted at 0
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1500),
		reading("s", jan1, 800), reading("s", dec31, 20),
	}

	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)

	assert.True(t, res.PerChild["s"].Equal(kwh(-780)))
	assert.True(t, res.Net.Equal(kwh(1280)))
	assert.True(t, res.Anomaly)
	assert.True(t, generic.IsWarning(res.Warnings[0]))
}

func TestNetConsumption_IncompleteChild(t *testing.T) {
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1500),
		reading("s", dec31, 150),
	}

	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)

	assert.True(t, res.Incomplete)
	assert.False(t, res.Anomaly)
	assert.True(t, res.PerChild["s"].IsZero())
	assert.True(t, res.Net.Equal(kwh(500)))

	var incomplete *generic.MeterIncompleteError
	require.ErrorAs(t, res.Warnings[0], &incomplete)
	assert.Equal(t, "s", incomplete.MeterID)
	assert.Equal(t, 1, incomplete.Readings)
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_SubmeterRules(t *testing.T) {
	reg := metering.NewRegistry()
	require.NoError(t, reg.Add(mainMeter("p")))

	// Submeter without parent
	err := reg.Add(metering.Meter{ID: "s0", Medium: metering.MediumElectricity, IsSubmeter: true})
	assert.True(t, errors.Is(err, generic.ErrInvalidMeterParent))

	// Parent of another medium
	water := metering.Meter{ID: "w", Medium: metering.MediumColdWater, IsSubmeter: true, ParentID: "p"}
	assert.True(t, errors.Is(reg.Add(water), generic.ErrInvalidMeterParent))

	// Valid submeter, then a submeter of that submeter
	require.NoError(t, reg.Add(sub("s1", "p")))
	assert.True(t, errors.Is(reg.Add(sub("s2", "s1")), generic.ErrInvalidMeterParent))

	// Duplicate id
	assert.True(t, errors.Is(reg.Add(mainMeter("p")), generic.ErrDuplicateMeter))

	// Main meter with a parent
	bad := mainMeter("q")
	bad.ParentID = "p"
	assert.True(t, errors.Is(reg.Add(bad), generic.ErrInvalidMeterParent))
}

func TestRegistry_AssignParentRejectsCycles(t *testing.T) {
	reg, err := metering.BuildRegistry([]metering.Meter{sub("s", "p"), mainMeter("p"), mainMeter("q")})
	require.NoError(t, err)

	// A meter can never be its own parent
	assert.True(t, errors.Is(reg.AssignParent("q", "q"), generic.ErrMeterCycle))

	// A parent with submeters cannot become a submeter
	assert.True(t, errors.Is(reg.AssignParent("p", "q"), generic.ErrInvalidMeterParent))

	// Moving a meter under its own descendant is a cycle
	assert.True(t, errors.Is(reg.AssignParent("p", "s"), generic.ErrMeterCycle))

	// Valid move
	require.NoError(t, reg.AssignParent("q", "p"))
	assert.Len(t, reg.Children("p"), 2)

	assert.True(t, errors.Is(reg.AssignParent("missing", "p"), generic.ErrEntityNotFound))
}

func TestReport_OnlyParentsWithSubmeters(t *testing.T) {
	reg, err := metering.BuildRegistry([]metering.Meter{
		mainMeter("p"), sub("s", "p"), mainMeter("lonely"),
	})
	require.NoError(t, err)
	readings := []metering.Reading{
		reading("p", jan1, 0), reading("p", dec31, 100),
		reading("s", jan1, 0), reading("s", dec31, 30),
	}

	results := metering.Report(reg, readings, year)

	require.Len(t, results, 1)
	assert.Equal(t, "p", results[0].Parent.ID)
	assert.True(t, results[0].Net.Equal(kwh(70)))
}

// =============================================================================
// BILLING BRIDGE
// =============================================================================

func TestToExpenseLines(t *testing.T) {
	// GIVEN: 450 kWh net, 50 kWh on the wallbox of tenancy t-2, 0.30 EUR/kWh
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1500),
		reading("s", jan1, 100), reading("s", dec31, 150),
	}
	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)
	tariff := metering.Tariff{
		Category:     "Allgemeinstrom",
		PricePerUnit: decimal.RequireFromString("0.30"),
		BillingYear:  2025,
		SharedKey:    settlement.PersonDaysKey{},
	}

	// WHEN: Converting to expense lines
	lines, err := metering.ToExpenseLines(res, tariff, map[string]string{"s": "t-2"})

	// THEN: A direct wallbox line and a shared net line
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, settlement.DirectKey{TenancyID: "t-2"}, lines[0].Key)
	assert.Equal(t, generic.ProrateNone, lines[0].Proration)
	assert.Equal(t, "15.00", lines[0].Amount.Value.StringFixed(2))

	assert.Equal(t, settlement.PersonDaysKey{}, lines[1].Key)
	assert.Equal(t, "135.00", lines[1].Amount.Value.StringFixed(2))
	assert.Equal(t, 2025, lines[1].BillingYear)
}

func TestToExpenseLines_RefusesWarnings(t *testing.T) {
	readings := []metering.Reading{
		reading("p", jan1, 1000), reading("p", dec31, 1040),
		reading("s", jan1, 100), reading("s", dec31, 150),
	}
	res := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, readings, year)

	_, err := metering.ToExpenseLines(res, metering.Tariff{SharedKey: settlement.AreaKey{}}, map[string]string{"s": "t-1"})
	assert.True(t, errors.Is(err, generic.ErrMeterReadingAnomaly))

	// Unassigned submeter
	ok := metering.NetConsumption(mainMeter("p"), []metering.Meter{sub("s", "p")}, []metering.Reading{
		reading("p", jan1, 0), reading("p", dec31, 10),
		reading("s", jan1, 0), reading("s", dec31, 5),
	}, year)
	_, err = metering.ToExpenseLines(ok, metering.Tariff{SharedKey: settlement.AreaKey{}}, nil)
	assert.Error(t, err)
}
