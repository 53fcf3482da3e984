/*
Package factory provides JSON to Go conversion of settlement datasets.

PURPOSE:
  Converts a JSON document describing a house (building settings, units,
  tenancies, expense lines, meters, readings and payments) into domain
  records and writes them through any store. This is how bookkeeping data
  exported from elsewhere, or the built-in demo house, gets into the
  system.

JSON SCHEMA:
  {
    "building": {"name": "Lindenstraße 12", "total_area": "300",
                 "total_occupants": 8, "total_units": 4},
    "units": [{"id": "u1", "name": "EG links", "area": "75.5", "base_rent": "650"}],
    "tenancies": [{"id": "t1", "unit_id": "u1", "tenant_name": "Berger",
                   "occupants": 2, "monthly_prepayment": "200",
                   "move_in": "2021-04-01", "move_out": null}],
    "expenses": [{"id": "e1", "category": "Grundsteuer", "amount": "1200",
                  "billing_year": 2025, "key": "area"}],
    "meters": [{"id": "m1", "number": "Z-100", "medium": "electricity"}],
    "readings": [{"meter_id": "m1", "date": "2025-01-01", "value": "1000"}],
    "payments": [{"tenancy_id": "t1", "amount": "850", "year": 2025, "month": 1}]
  }

KEY FEATURES:
  - Validates structure with validator tags plus domain checks
  - Resolves key tags ("area", "persons", "unit", "direct") once, here
  - An expense without a key gets the category's preset key
  - Missing ids are generated
  - Checks the meter hierarchy before anything is written

USAGE:
  ds, err := factory.ParseDataset(data)
  if err != nil {
      return err
  }
  err = store.WithTx(ctx, func(tx *sqlite.Tx) error {
      return ds.Apply(ctx, tx)
  })

SEE ALSO:
  - demo.go: Built-in demo house
  - settlement/keys.go: Key tags and category presets
*/
package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DatasetJSON is the JSON representation of a dataset.
type DatasetJSON struct {
	Building  *BuildingJSON `json:"building,omitempty" validate:"omitempty"`
	Units     []UnitJSON    `json:"units" validate:"dive"`
	Tenancies []TenancyJSON `json:"tenancies" validate:"dive"`
	Expenses  []ExpenseJSON `json:"expenses" validate:"dive"`
	Meters    []MeterJSON   `json:"meters" validate:"dive"`
	Readings  []ReadingJSON `json:"readings" validate:"dive"`
	Payments  []PaymentJSON `json:"payments" validate:"dive"`
}

// BuildingJSON holds the landlord settings. Omitted aggregates stay unset.
type BuildingJSON struct {
	Name           string           `json:"name"`
	Address        string           `json:"address,omitempty"`
	TotalArea      *decimal.Decimal `json:"total_area,omitempty"`
	TotalOccupants *int             `json:"total_occupants,omitempty" validate:"omitempty,gte=0"`
	TotalUnits     *int             `json:"total_units,omitempty" validate:"omitempty,gte=0"`
}

type UnitJSON struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Area     decimal.Decimal `json:"area"`
	BaseRent decimal.Decimal `json:"base_rent"`
}

type TenancyJSON struct {
	ID                string             `json:"id" validate:"required"`
	UnitID            string             `json:"unit_id" validate:"required"`
	TenantName        string             `json:"tenant_name" validate:"required"`
	Occupants         int                `json:"occupants" validate:"gte=0"`
	MonthlyPrepayment decimal.Decimal    `json:"monthly_prepayment"`
	MoveIn            generic.TimePoint  `json:"move_in"`
	MoveOut           *generic.TimePoint `json:"move_out,omitempty"`
}

// ExpenseJSON is one invoice line. Key is a legacy tag; Target names the
// tenancy of a "direct" line.
type ExpenseJSON struct {
	ID          string          `json:"id,omitempty"`
	Category    string          `json:"category" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	BillingYear int             `json:"billing_year" validate:"required,gte=1900,lte=9999"`
	Key         string          `json:"key,omitempty" validate:"omitempty,oneof=area persons unit direct"`
	Target      string          `json:"target,omitempty"`
	Proration   string          `json:"proration,omitempty" validate:"omitempty,oneof=linear none"`
}

type MeterJSON struct {
	ID       string `json:"id" validate:"required"`
	Number   string `json:"number"`
	Medium   string `json:"medium" validate:"required"`
	UnitID   string `json:"unit_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

type ReadingJSON struct {
	MeterID string            `json:"meter_id" validate:"required"`
	Date    generic.TimePoint `json:"date"`
	Value   decimal.Decimal   `json:"value"`
}

type PaymentJSON struct {
	ID        string            `json:"id,omitempty"`
	TenancyID string            `json:"tenancy_id" validate:"required"`
	Amount    decimal.Decimal   `json:"amount"`
	Year      int               `json:"year" validate:"required,gte=1900,lte=9999"`
	Month     int               `json:"month" validate:"required,gte=1,lte=12"`
	PaidOn    generic.TimePoint `json:"paid_on,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is a parsed, validated set of records ready to be written.
type Dataset struct {
	Building  *settlement.Building
	Units     []settlement.Unit
	Tenancies []settlement.Tenancy
	Expenses  []settlement.ExpenseLine
	Meters    []metering.Meter
	Readings  []metering.Reading
	Payments  []payments.Payment
}

// Writer is the write side of a store. *sqlite.Tx, *sqlite.Store and
// *memory.Memory satisfy it.
type Writer interface {
	SaveBuilding(ctx context.Context, b settlement.Building) error
	SaveUnit(ctx context.Context, u settlement.Unit) error
	SaveTenancy(ctx context.Context, t settlement.Tenancy) error
	AddExpenseLine(ctx context.Context, l settlement.ExpenseLine) error
	SaveMeter(ctx context.Context, m metering.Meter) error
	SaveReading(ctx context.Context, r metering.Reading) error
	SavePayment(ctx context.Context, p payments.Payment) error
}

var validate = validator.New()

// ParseDataset parses and validates a JSON dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var dj DatasetJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}
	return FromJSON(dj)
}

// FromJSON converts DatasetJSON into domain records. Every problem found
// is reported, not only the first.
func FromJSON(dj DatasetJSON) (*Dataset, error) {
	if err := validate.Struct(dj); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	ds := &Dataset{}
	var errs []error

	if dj.Building != nil {
		ds.Building = &settlement.Building{
			Name:           dj.Building.Name,
			Address:        dj.Building.Address,
			TotalArea:      dj.Building.TotalArea,
			TotalOccupants: dj.Building.TotalOccupants,
			TotalUnits:     dj.Building.TotalUnits,
		}
		if a := dj.Building.TotalArea; a != nil && a.IsNegative() {
			errs = append(errs, fmt.Errorf("building total_area is negative"))
		}
	}

	for _, uj := range dj.Units {
		if uj.Area.IsNegative() || uj.BaseRent.IsNegative() {
			errs = append(errs, fmt.Errorf("unit %s: negative area or rent", uj.ID))
		}
		ds.Units = append(ds.Units, settlement.Unit{
			ID:       uj.ID,
			Name:     uj.Name,
			Area:     uj.Area,
			BaseRent: generic.Money(uj.BaseRent),
		})
	}

	for _, tj := range dj.Tenancies {
		t := settlement.Tenancy{
			ID:                tj.ID,
			UnitID:            tj.UnitID,
			TenantName:        tj.TenantName,
			Occupants:         tj.Occupants,
			MonthlyPrepayment: generic.Money(tj.MonthlyPrepayment),
			MoveIn:            tj.MoveIn,
			MoveOut:           tj.MoveOut,
		}
		if t.MoveOut != nil && t.MoveOut.IsZero() {
			t.MoveOut = nil
		}
		if t.MoveIn.IsZero() {
			errs = append(errs, fmt.Errorf("tenancy %s: move_in is required", tj.ID))
		} else if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
		ds.Tenancies = append(ds.Tenancies, t)
	}

	for _, ej := range dj.Expenses {
		line, err := parseExpense(ej)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ds.Expenses = append(ds.Expenses, line)
	}

	for _, mj := range dj.Meters {
		medium, err := metering.ParseMedium(mj.Medium)
		if err != nil {
			errs = append(errs, fmt.Errorf("meter %s: %w", mj.ID, err))
			continue
		}
		ds.Meters = append(ds.Meters, metering.Meter{
			ID:         mj.ID,
			Number:     mj.Number,
			Medium:     medium,
			UnitID:     mj.UnitID,
			IsSubmeter: mj.ParentID != "",
			ParentID:   mj.ParentID,
		})
	}
	// Orders main meters first and rejects bad hierarchies up front.
	reg, err := metering.BuildRegistry(ds.Meters)
	if err != nil {
		errs = append(errs, err)
	} else {
		ds.Meters = reg.Meters()
	}

	for _, rj := range dj.Readings {
		if rj.Date.IsZero() {
			errs = append(errs, fmt.Errorf("reading of %s: date is required", rj.MeterID))
			continue
		}
		ds.Readings = append(ds.Readings, metering.Reading{MeterID: rj.MeterID, Date: rj.Date, Value: rj.Value})
	}

	for _, pj := range dj.Payments {
		id := pj.ID
		if id == "" {
			id = uuid.NewString()
		}
		ds.Payments = append(ds.Payments, payments.Payment{
			ID:          id,
			TenancyID:   pj.TenancyID,
			Amount:      generic.Money(pj.Amount),
			PeriodYear:  pj.Year,
			PeriodMonth: time.Month(pj.Month),
			PaidOn:      pj.PaidOn,
			Note:        pj.Note,
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid dataset: %w", errors.Join(errs...))
	}
	return ds, nil
}

// parseExpense resolves the key tag of one line. A line without a tag
// takes its category's preset.
func parseExpense(ej ExpenseJSON) (settlement.ExpenseLine, error) {
	preset := settlement.PresetFor(ej.Category)

	key := preset.Key
	if ej.Key != "" {
		var err error
		if key, err = settlement.ParseAllocationKey(ej.Key, ej.Target); err != nil {
			return settlement.ExpenseLine{}, fmt.Errorf("expense %q: %w", ej.Category, err)
		}
	}

	proration := preset.Proration
	if ej.Proration != "" {
		var err error
		if proration, err = generic.ParseProrateMethod(ej.Proration); err != nil {
			return settlement.ExpenseLine{}, fmt.Errorf("expense %q: %w", ej.Category, err)
		}
	}

	id := ej.ID
	if id == "" {
		id = uuid.NewString()
	}
	return settlement.ExpenseLine{
		ID:          id,
		Category:    ej.Category,
		Amount:      generic.Money(ej.Amount),
		BillingYear: ej.BillingYear,
		Key:         key,
		Proration:   proration,
	}, nil
}

// Apply writes the dataset in dependency order. Run it inside a
// transaction to keep a failed import from leaving partial data.
func (ds *Dataset) Apply(ctx context.Context, w Writer) error {
	if ds.Building != nil {
		if err := w.SaveBuilding(ctx, *ds.Building); err != nil {
			return fmt.Errorf("building: %w", err)
		}
	}
	for _, u := range ds.Units {
		if err := w.SaveUnit(ctx, u); err != nil {
			return fmt.Errorf("unit %s: %w", u.ID, err)
		}
	}
	for _, t := range ds.Tenancies {
		if err := w.SaveTenancy(ctx, t); err != nil {
			return fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
	}
	for _, l := range ds.Expenses {
		if err := w.AddExpenseLine(ctx, l); err != nil {
			return fmt.Errorf("expense %s: %w", l.ID, err)
		}
	}
	for _, m := range ds.Meters {
		if err := w.SaveMeter(ctx, m); err != nil {
			return fmt.Errorf("meter %s: %w", m.ID, err)
		}
	}
	for _, r := range ds.Readings {
		if err := w.SaveReading(ctx, r); err != nil {
			return fmt.Errorf("reading of %s on %s: %w", r.MeterID, r.Date, err)
		}
	}
	for _, p := range ds.Payments {
		if err := w.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("payment %s: %w", p.ID, err)
		}
	}
	return nil
}

// Counts summarises a dataset for logs and CLI output.
func (ds *Dataset) Counts() map[string]int {
	return map[string]int{
		"units":     len(ds.Units),
		"tenancies": len(ds.Tenancies),
		"expenses":  len(ds.Expenses),
		"meters":    len(ds.Meters),
		"readings":  len(ds.Readings),
		"payments":  len(ds.Payments),
	}
}
