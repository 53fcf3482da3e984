/*
Package settlement implements the service-charge settlement engine.

PURPOSE:
  Given shared building expenses, tenancies with different occupancy
  windows and the building's allocation aggregates, the engine computes
  each tenant's prorated share of every expense line and reconciles the
  total against the tenant's prepayments.

KEY CONCEPTS IN THIS FILE (types.go):
  - Building: The property singleton carrying the allocation denominators
  - Unit: A rentable apartment
  - Tenancy: One tenant's occupancy of one unit over [MoveIn, MoveOut]
  - ExpenseLine: One shared cost for a billing year, with its allocation key

PIPELINE:
  Compute (statement.go)
    └── Prorate (proration.go), per expense line:
          ├── OccupancyDays (occupancy.go)
          └── ResolveFraction (allocation.go)
    └── Settle (settle.go)

  Every function in the pipeline is pure. The Service (service.go) is
  the only part that touches storage.

SEE ALSO:
  - generic/period.go: Billing period layout
  - metering/: Turns meter readings into expense lines before proration
*/
package settlement

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// BUILDING
// =============================================================================

// Building is the landlord's settings record. Aggregates are pointers so a
// value that was never entered can be told apart from an entered zero.
type Building struct {
	Name           string
	Address        string
	TotalArea      *decimal.Decimal
	TotalOccupants *int
	TotalUnits     *int
}

// BuildingAggregates are the allocation denominators of the property.
// A zero value here is an entered zero, which the resolver rejects as an
// invalid allocation basis.
type BuildingAggregates struct {
	TotalArea      decimal.Decimal
	TotalOccupants int
	TotalUnits     int
}

// Aggregates returns the denominators needed by the given lines. Missing
// aggregates that no line uses are left at zero; missing aggregates that
// a line needs produce a ConfigurationError naming all of them.
func (b *Building) Aggregates(lines []ExpenseLine) (BuildingAggregates, error) {
	if b == nil {
		b = &Building{}
	}
	var agg BuildingAggregates
	if b.TotalArea != nil {
		agg.TotalArea = *b.TotalArea
	}
	if b.TotalOccupants != nil {
		agg.TotalOccupants = *b.TotalOccupants
	}
	if b.TotalUnits != nil {
		agg.TotalUnits = *b.TotalUnits
	}

	needed := make(map[string]bool)
	for _, line := range lines {
		switch line.Key.(type) {
		case AreaKey:
			needed["total_area"] = b.TotalArea == nil
		case PersonDaysKey:
			needed["total_occupants"] = b.TotalOccupants == nil
		case PerUnitKey:
			needed["total_units"] = b.TotalUnits == nil
		}
	}

	var missing []string
	for _, field := range []string{"total_area", "total_occupants", "total_units"} {
		if needed[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return agg, &generic.ConfigurationError{Fields: missing}
	}
	return agg, nil
}

// =============================================================================
// UNIT & TENANCY
// =============================================================================

type Unit struct {
	ID       string
	Name     string
	Area     decimal.Decimal
	BaseRent generic.Amount
}

// Tenancy is one tenant's occupancy of one unit. A nil MoveOut means the
// tenancy is still active.
type Tenancy struct {
	ID                string
	UnitID            string
	TenantName        string
	Area              decimal.Decimal // floor area of the rented unit
	Occupants         int
	MonthlyPrepayment generic.Amount
	MoveIn            generic.TimePoint
	MoveOut           *generic.TimePoint
}

// Validate rejects a move-out before the move-in.
func (t Tenancy) Validate() error {
	if t.MoveOut != nil && t.MoveOut.Before(t.MoveIn) {
		return &generic.TenancyWindowError{TenancyID: t.ID, MoveIn: t.MoveIn, MoveOut: *t.MoveOut}
	}
	return nil
}

// Aggregates returns the tenant-side numerators for allocation.
func (t Tenancy) Aggregates() TenantAggregates {
	return TenantAggregates{TenancyID: t.ID, Area: t.Area, Occupants: t.Occupants}
}

// TenantAggregates are the per-tenancy numerators the resolver needs.
type TenantAggregates struct {
	TenancyID string
	Area      decimal.Decimal
	Occupants int
}

// =============================================================================
// EXPENSE LINE
// =============================================================================

// ExpenseLine is one shared cost for one billing year. Lines are immutable;
// an amended cost is a new line.
type ExpenseLine struct {
	ID          string
	Category    string
	Amount      generic.Amount
	BillingYear int
	Key         AllocationKey
	Proration   generic.ProrateMethod
}

// AppliesTo reports whether the line is billed in the given period.
// Billing years are labelled by the year the period starts in.
func (l ExpenseLine) AppliesTo(period generic.Period) bool {
	return l.BillingYear == period.Start.Year()
}

// FilterLines returns the lines billed in period, preserving order.
func FilterLines(lines []ExpenseLine, period generic.Period) []ExpenseLine {
	out := make([]ExpenseLine, 0, len(lines))
	for _, l := range lines {
		if l.AppliesTo(period) {
			out = append(out, l)
		}
	}
	return out
}
