/*
Package generic provides the domain-agnostic building blocks of the
settlement engine.

PURPOSE:
  This package contains the calendar, quantity and error primitives the
  settlement and metering packages share. Whether the quantity is a cost
  in euros or a consumption in kWh, the same Amount type carries it, and
  whether the span is a billing year or a tenancy, the same Period type
  bounds it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 1200.00 EUR, 450.5 kWh)
  - Unit: Currency or metering unit, knows its display precision
  - ProrateMethod: Whether a cost follows occupancy time or not

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money and readings
  2. Rounding happens once, at the end of a line, never on ratios
  3. Type Safety: Units travel with values so kWh never lands in a EUR sum

USAGE:
  cost := generic.NewAmountFromString("1200.00", generic.UnitEUR)
  share := cost.Mul(fraction).RoundToMinorUnit()

SEE ALSO:
  - time.go: TimePoint and calendar helpers
  - period.go: Period and billing period layout
  - errors.go: Error taxonomy
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitEUR        Unit = "EUR"
	UnitKWh        Unit = "kWh"
	UnitCubicMeter Unit = "m3"
)

// MinorUnits is the number of decimal places kept when a value in this
// unit is rounded for display or persistence.
func (u Unit) MinorUnits() int32 {
	switch u {
	case UnitEUR:
		return 2
	default:
		return 3
	}
}

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(value), Unit: unit}
}

func NewAmountFromString(value string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return Amount{Value: d, Unit: unit}, nil
}

// Money is shorthand for a EUR amount.
func Money(value decimal.Decimal) Amount {
	return Amount{Value: value, Unit: UnitEUR}
}

// ZeroOf returns a zero amount in unit.
func ZeroOf(unit Unit) Amount {
	return Amount{Value: decimal.Zero, Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Unit == b.Unit && a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// Round rounds half away from zero to the given number of decimal places.
// For the non-negative costs the engine produces this is round-half-up.
func (a Amount) Round(places int32) Amount {
	return Amount{Value: a.Value.Round(places), Unit: a.Unit}
}

// RoundToMinorUnit rounds to the unit's display precision (cents for EUR).
func (a Amount) RoundToMinorUnit() Amount {
	return a.Round(a.Unit.MinorUnits())
}

func (a Amount) String() string {
	return a.Value.StringFixed(a.Unit.MinorUnits()) + " " + string(a.Unit)
}

// Sum adds amounts, starting from zero in unit.
func Sum(unit Unit, amounts ...Amount) Amount {
	total := ZeroOf(unit)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// =============================================================================
// PRORATION
// =============================================================================

// ProrateMethod controls whether a cost is scaled by occupancy time.
type ProrateMethod string

const (
	ProrateLinear ProrateMethod = "linear" // share × occupancy days / basis days
	ProrateNone   ProrateMethod = "none"   // whole-year-only costs, metered direct costs
)

// ParseProrateMethod maps a stored tag to a ProrateMethod. Empty means linear.
func ParseProrateMethod(s string) (ProrateMethod, error) {
	switch ProrateMethod(s) {
	case "", ProrateLinear:
		return ProrateLinear, nil
	case ProrateNone:
		return ProrateNone, nil
	default:
		return "", fmt.Errorf("unknown proration method %q", s)
	}
}
