package settlement

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// SETTLEMENT RECONCILIATION
// =============================================================================

// Settlement is the reconciliation of a tenant's costs against their
// prepayments over the same occupancy window.
type Settlement struct {
	TenancyID          string
	Period             generic.Period
	OccupancyDays      int
	BasisDays          int
	TotalCost          generic.Amount
	ProratedPrepayment generic.Amount
	Balance            generic.Amount // positive: credit owed to the tenant, negative: arrears
}

type Outcome string

const (
	OutcomeCredit  Outcome = "credit"
	OutcomeArrears Outcome = "arrears"
	OutcomeSettled Outcome = "settled"
)

func (s Settlement) Outcome() Outcome {
	switch {
	case s.Balance.IsPositive():
		return OutcomeCredit
	case s.Balance.IsNegative():
		return OutcomeArrears
	default:
		return OutcomeSettled
	}
}

// Settle sums the rows that computed and prorates the monthly prepayment
// over the tenancy's occupancy of period:
//
//	prepayment = monthly × 12 × occupancyDays / basisDays
//	balance    = prepayment − totalCost
//
// Settle is pure; identical inputs give identical output.
func Settle(rows []ShareRow, tenancy Tenancy, period generic.Period) Settlement {
	days := OccupancyDays(tenancy, period)
	basis := period.BasisDays()

	total := generic.ZeroOf(generic.UnitEUR)
	for _, r := range rows {
		if r.Err == nil {
			total = total.Add(r.Share)
		}
	}

	prepayment := generic.ZeroOf(generic.UnitEUR)
	if basis > 0 && days > 0 {
		prepayment = tenancy.MonthlyPrepayment.
			Mul(decimal.NewFromInt(12 * int64(days))).
			Div(decimal.NewFromInt(int64(basis))).
			RoundToMinorUnit()
	}

	return Settlement{
		TenancyID:          tenancy.ID,
		Period:             period,
		OccupancyDays:      days,
		BasisDays:          basis,
		TotalCost:          total,
		ProratedPrepayment: prepayment,
		Balance:            prepayment.Sub(total),
	}
}
