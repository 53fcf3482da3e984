package settlement

import (
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// HOUSE DISTRIBUTION - One line spread over every tenancy
// =============================================================================

// TenantShare is one tenancy's part of a distributed line.
type TenantShare struct {
	TenancyID     string
	TenantName    string
	OccupancyDays int
	Row           ShareRow
}

// Distribution shows where an expense line ends up. Unallocated is what
// no tenancy carries: vacancy, units without a tenancy, rounding.
type Distribution struct {
	Line        ExpenseLine
	Shares      []TenantShare
	Allocated   generic.Amount
	Unallocated generic.Amount
}

// Distribute prorates line for every tenancy active during period.
func Distribute(line ExpenseLine, tenancies []Tenancy, building BuildingAggregates, period generic.Period) Distribution {
	d := Distribution{
		Line:      line,
		Allocated: line.Amount.Zero(),
	}
	basis := period.BasisDays()
	for _, t := range tenancies {
		days := OccupancyDays(t, period)
		if days == 0 {
			continue
		}
		row := prorateLine(line, t.Aggregates(), building, days, basis)
		d.Shares = append(d.Shares, TenantShare{
			TenancyID:     t.ID,
			TenantName:    t.TenantName,
			OccupancyDays: days,
			Row:           row,
		})
		if row.Err == nil {
			d.Allocated = d.Allocated.Add(row.Share)
		}
	}
	d.Unallocated = line.Amount.Sub(d.Allocated)
	return d
}

// DistributeAll distributes every line billed in period.
func DistributeAll(lines []ExpenseLine, tenancies []Tenancy, building BuildingAggregates, period generic.Period) []Distribution {
	lines = FilterLines(lines, period)
	out := make([]Distribution, 0, len(lines))
	for _, l := range lines {
		out = append(out, Distribute(l, tenancies, building, period))
	}
	return out
}
