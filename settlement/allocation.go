package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// =============================================================================
// ALLOCATION KEY RESOLVER
// =============================================================================

// Resolution is a tenancy's fraction of one expense line under one key.
// Numerator and Denominator are kept so callers can multiply before they
// divide; Fraction is their quotient for display.
type Resolution struct {
	Numerator    decimal.Decimal
	Denominator  decimal.Decimal
	Fraction     decimal.Decimal
	Ratio        string // e.g. "75.5/300", "730/2920", "1/4"
	TimeEmbedded bool   // true for person-days; no further time factor applies
}

// ResolveFraction maps an allocation key and the aggregates to the
// tenancy's fraction in [0, 1]. A zero or negative denominator, or a
// numerator larger than its denominator, is an AllocationBasisError.
func ResolveFraction(key AllocationKey, tenant TenantAggregates, building BuildingAggregates, occupancyDays, basisDays int) (Resolution, error) {
	switch k := key.(type) {
	case AreaKey:
		if !building.TotalArea.IsPositive() {
			return Resolution{}, basisError(k, fmt.Sprintf("total area is %s", building.TotalArea))
		}
		return ratio(k, tenant.Area, building.TotalArea, false)

	case PersonDaysKey:
		if building.TotalOccupants <= 0 {
			return Resolution{}, basisError(k, fmt.Sprintf("total occupants is %d", building.TotalOccupants))
		}
		if basisDays <= 0 {
			return Resolution{}, basisError(k, fmt.Sprintf("basis days is %d", basisDays))
		}
		num := decimal.NewFromInt(int64(tenant.Occupants) * int64(occupancyDays))
		den := decimal.NewFromInt(int64(building.TotalOccupants) * int64(basisDays))
		return ratio(k, num, den, true)

	case PerUnitKey:
		if building.TotalUnits <= 0 {
			return Resolution{}, basisError(k, fmt.Sprintf("total units is %d", building.TotalUnits))
		}
		return ratio(k, decimal.NewFromInt(1), decimal.NewFromInt(int64(building.TotalUnits)), false)

	case DirectKey:
		if k.TenancyID == "" {
			return Resolution{}, basisError(k, "no target tenancy")
		}
		num := decimal.Zero
		if k.TenancyID == tenant.TenancyID {
			num = decimal.NewFromInt(1)
		}
		return ratio(k, num, decimal.NewFromInt(1), false)

	default:
		return Resolution{}, fmt.Errorf("unsupported allocation key %T", key)
	}
}

func ratio(k AllocationKey, num, den decimal.Decimal, timeEmbedded bool) (Resolution, error) {
	if num.IsNegative() {
		return Resolution{}, basisError(k, fmt.Sprintf("negative tenant share %s", num))
	}
	if num.GreaterThan(den) {
		return Resolution{}, basisError(k, fmt.Sprintf("tenant share %s exceeds total %s", num, den))
	}
	return Resolution{
		Numerator:    num,
		Denominator:  den,
		Fraction:     num.Div(den),
		Ratio:        num.String() + "/" + den.String(),
		TimeEmbedded: timeEmbedded,
	}, nil
}

func basisError(k AllocationKey, reason string) error {
	return &generic.AllocationBasisError{Key: k.Tag(), Reason: reason}
}
