package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// EXPENSE PRORATION
// =============================================================================

// ShareRow is one line of a tenant's cost breakdown.
type ShareRow struct {
	LineID     string
	Category   string
	HouseTotal generic.Amount
	KeyTag     string
	KeyLabel   string
	Ratio      string
	Fraction   decimal.Decimal
	TimeFactor string // "days/basis" when the time factor was applied, "" otherwise
	Share      generic.Amount
	Err        error // non-nil when the line's allocation basis is invalid; Share is zero
}

// Breakdown is a tenant's prorated share of every applicable line, in
// input order.
type Breakdown struct {
	TenancyID     string
	Period        generic.Period
	OccupancyDays int
	BasisDays     int
	Rows          []ShareRow
}

// TotalCost sums the shares of all rows that computed.
func (b Breakdown) TotalCost() generic.Amount {
	total := generic.ZeroOf(generic.UnitEUR)
	for _, r := range b.Rows {
		if r.Err == nil {
			total = total.Add(r.Share)
		}
	}
	return total
}

// Err joins the failures of individual lines, or returns nil.
func (b Breakdown) Err() error {
	var errs []error
	for _, r := range b.Rows {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Prorate computes the tenancy's share of every line billed in period.
// Lines of other billing years are skipped. A line whose basis is invalid
// yields a row carrying the error; the remaining lines still compute.
func Prorate(lines []ExpenseLine, tenancy Tenancy, building BuildingAggregates, period generic.Period) Breakdown {
	days := OccupancyDays(tenancy, period)
	basis := period.BasisDays()

	b := Breakdown{
		TenancyID:     tenancy.ID,
		Period:        period,
		OccupancyDays: days,
		BasisDays:     basis,
	}
	tenant := tenancy.Aggregates()
	for _, line := range lines {
		if !line.AppliesTo(period) {
			continue
		}
		b.Rows = append(b.Rows, prorateLine(line, tenant, building, days, basis))
	}
	return b
}

// prorateLine computes share = amount × fraction × timeFraction, rounded
// once. Person-days already contain time; ProrateNone lines opt out.
func prorateLine(line ExpenseLine, tenant TenantAggregates, building BuildingAggregates, days, basis int) ShareRow {
	row := ShareRow{
		LineID:     line.ID,
		Category:   line.Category,
		HouseTotal: line.Amount,
		Share:      line.Amount.Zero(),
	}
	if line.Key == nil {
		row.Err = &generic.AllocationBasisError{Category: line.Category, Year: line.BillingYear, Reason: "no allocation key"}
		return row
	}
	row.KeyTag = line.Key.Tag()
	row.KeyLabel = line.Key.Label()

	res, err := ResolveFraction(line.Key, tenant, building, days, basis)
	if err != nil {
		row.Err = withLineContext(err, line)
		return row
	}
	row.Ratio = res.Ratio
	row.Fraction = res.Fraction

	num, den := res.Numerator, res.Denominator
	if !res.TimeEmbedded && line.Proration != generic.ProrateNone {
		if basis <= 0 {
			row.Err = withLineContext(basisError(line.Key, fmt.Sprintf("basis days is %d", basis)), line)
			return row
		}
		num = num.Mul(decimal.NewFromInt(int64(days)))
		den = den.Mul(decimal.NewFromInt(int64(basis)))
		row.TimeFactor = fmt.Sprintf("%d/%d", days, basis)
	}

	// Multiply before dividing so the only rounding is the final one.
	row.Share = line.Amount.Mul(num).Div(den).RoundToMinorUnit()
	return row
}

func withLineContext(err error, line ExpenseLine) error {
	var basisErr *generic.AllocationBasisError
	if errors.As(err, &basisErr) {
		enriched := *basisErr
		enriched.Category = line.Category
		enriched.Year = line.BillingYear
		return &enriched
	}
	return fmt.Errorf("expense %q (%d): %w", line.Category, line.BillingYear, err)
}
