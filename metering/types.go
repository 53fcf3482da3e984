/*
Package metering computes consumption from meter readings.

PURPOSE:
  A building's main meter measures everything; submeters (a wallbox, a
  flat's own water meter) measure parts of it. The net consumption of a
  main meter is what no submeter accounts for, and is shared between all
  tenancies. Submeter consumption is billed to whoever the submeter
  serves.

KEY CONCEPTS:
  - Meter: A metering point, either a main meter or a submeter
  - Reading: A dated meter value
  - Registry: Arena of meters that keeps parent links acyclic
  - NetResult: Gross parent, per-submeter and net consumption for an
    interval, plus warnings

WARNINGS, NOT ERRORS:
  Missing readings and negative consumption are attached to results as
  *generic.MeterIncompleteError and *generic.MeterAnomalyError. A negative
  net is never clamped; it usually means a meter was swapped.

SEE ALSO:
  - billing.go: Turns a net result into settlement expense lines
*/
package metering

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
)

// Medium is what a meter measures.
type Medium string

const (
	MediumElectricity Medium = "electricity"
	MediumColdWater   Medium = "cold_water"
	MediumHeating     Medium = "heating"
	MediumGas         Medium = "gas"
)

// Unit returns the unit readings of this medium are taken in.
func (m Medium) Unit() generic.Unit {
	switch m {
	case MediumColdWater, MediumGas:
		return generic.UnitCubicMeter
	default:
		return generic.UnitKWh
	}
}

func ParseMedium(s string) (Medium, error) {
	switch Medium(s) {
	case MediumElectricity, MediumColdWater, MediumHeating, MediumGas:
		return Medium(s), nil
	default:
		return "", fmt.Errorf("unknown meter medium %q", s)
	}
}

// Meter is a physical metering point. ParentID is set only on submeters.
type Meter struct {
	ID         string
	Number     string
	Medium     Medium
	UnitID     string // apartment the meter is installed in, "" for house meters
	IsSubmeter bool
	ParentID   string
}

// Reading is one dated meter value.
type Reading struct {
	MeterID string
	Date    generic.TimePoint
	Value   decimal.Decimal
}
