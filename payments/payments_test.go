package payments_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
)

func eur(s string) generic.Amount { return generic.Money(decimal.RequireFromString(s)) }

func fixtures() ([]settlement.Tenancy, []settlement.Unit) {
	moveOut := generic.NewTimePoint(2025, time.March, 15)
	units := []settlement.Unit{
		{ID: "u1", Name: "EG links", BaseRent: eur("650")},
		{ID: "u2", Name: "OG rechts", BaseRent: eur("720")},
	}
	tenancies := []settlement.Tenancy{
		{ID: "t1", UnitID: "u1", TenantName: "Berger", MonthlyPrepayment: eur("150"), MoveIn: generic.NewTimePoint(2023, time.May, 1)},
		{ID: "t2", UnitID: "u2", TenantName: "Yilmaz", MonthlyPrepayment: eur("180"), MoveIn: generic.NewTimePoint(2022, time.January, 1), MoveOut: &moveOut},
	}
	return tenancies, units
}

func TestOutstanding_ListsMissingAndPartialPayments(t *testing.T) {
	// GIVEN: t1 paid 500 of 800 for February, t2 paid nothing
	tenancies, units := fixtures()
	paid := []payments.Payment{
		{ID: "p1", TenancyID: "t1", Amount: eur("500"), PeriodYear: 2025, PeriodMonth: time.February},
		{ID: "p2", TenancyID: "t1", Amount: eur("800"), PeriodYear: 2025, PeriodMonth: time.January},
	}

	// WHEN: Checking February
	due := payments.Outstanding(tenancies, units, paid, 2025, time.February)

	// THEN: Both are outstanding with their shortfall
	require.Len(t, due, 2)
	assert.Equal(t, "t1", due[0].TenancyID)
	assert.Equal(t, "800.00", due[0].Expected.Value.StringFixed(2))
	assert.Equal(t, "300.00", due[0].Shortfall.Value.StringFixed(2))
	assert.Equal(t, "EG links", due[0].UnitName)
	assert.Equal(t, "900.00", due[1].Shortfall.Value.StringFixed(2))

	// January is fully paid by t1
	due = payments.Outstanding(tenancies, units, paid, 2025, time.January)
	require.Len(t, due, 1)
	assert.Equal(t, "t2", due[0].TenancyID)
}

func TestOutstanding_SkipsTenanciesNotActiveInMonth(t *testing.T) {
	tenancies, units := fixtures()

	// t2 moved out in March; nothing is due from them in April
	due := payments.Outstanding(tenancies, units, nil, 2025, time.April)

	require.Len(t, due, 1)
	assert.Equal(t, "t1", due[0].TenancyID)
}

func TestYearSummary(t *testing.T) {
	tenancies, units := fixtures()
	paid := []payments.Payment{
		{TenancyID: "t2", Amount: eur("900"), PeriodYear: 2025, PeriodMonth: time.January},
		{TenancyID: "t2", Amount: eur("900"), PeriodYear: 2025, PeriodMonth: time.February},
		{TenancyID: "t2", Amount: eur("900"), PeriodYear: 2024, PeriodMonth: time.December},
	}

	sums := payments.YearSummary(tenancies, units, paid, 2025)

	require.Len(t, sums, 2)
	assert.Equal(t, "9600.00", sums[0].Expected.Value.StringFixed(2))
	assert.Equal(t, "-9600.00", sums[0].Balance.Value.StringFixed(2))
	// January through March for t2
	assert.Equal(t, "2700.00", sums[1].Expected.Value.StringFixed(2))
	assert.Equal(t, "1800.00", sums[1].Received.Value.StringFixed(2))
	assert.Equal(t, "-900.00", sums[1].Balance.Value.StringFixed(2))
}
