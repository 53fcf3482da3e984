package settlement

import (
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// STATEMENT - One tenancy, one billing period
// =============================================================================

// Input is the immutable snapshot a statement is computed from.
type Input struct {
	Building *Building
	Tenancy  Tenancy
	Lines    []ExpenseLine
	Period   generic.Period
}

// Statement is a tenant's breakdown plus its settlement.
type Statement struct {
	TenantName string
	UnitID     string
	Breakdown  Breakdown
	Settlement Settlement
}

// Failed reports whether any line could not be allocated.
func (s Statement) Failed() bool {
	return s.Breakdown.Err() != nil
}

// Compute validates the snapshot, prorates every line billed in the period
// and settles the result. Configuration and tenancy-window problems abort
// the statement; an invalid allocation basis only flags its own row.
func Compute(in Input) (Statement, error) {
	if err := in.Period.Validate(); err != nil {
		return Statement{}, err
	}
	if err := in.Tenancy.Validate(); err != nil {
		return Statement{}, err
	}

	lines := FilterLines(in.Lines, in.Period)
	agg, err := in.Building.Aggregates(lines)
	if err != nil {
		return Statement{}, err
	}

	breakdown := Prorate(lines, in.Tenancy, agg, in.Period)
	return Statement{
		TenantName: in.Tenancy.TenantName,
		UnitID:     in.Tenancy.UnitID,
		Breakdown:  breakdown,
		Settlement: Settle(breakdown.Rows, in.Tenancy, in.Period),
	}, nil
}
