/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Money and
  areas travel as decimal strings; dates as "YYYY-MM-DD".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Building:   BuildingDTO, SaveBuildingRequest
  Units:      UnitDTO, CreateUnitRequest
  Tenancies:  TenancyDTO, CreateTenancyRequest
  Expenses:   ExpenseLineDTO, CreateExpenseRequest, DistributionDTO
  Statements: StatementDTO, ShareRowDTO
  Meters:     MeterDTO, CreateMeterRequest, ReadingRequest, NetResultDTO,
              BillMeterRequest
  Payments:   PaymentDTO, CreatePaymentRequest, DueDTO, SummaryDTO

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  decodeAndValidate before touching the domain; domain rules (key tags,
  tenancy windows, meter topology) are checked by the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/dataset.go: Import document schema
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
)

// =============================================================================
// BUILDING
// =============================================================================

type BuildingDTO struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	TotalArea      *string `json:"total_area"`
	TotalOccupants *int    `json:"total_occupants"`
	TotalUnits     *int    `json:"total_units"`
}

// SaveBuildingRequest replaces the landlord settings. Omitted aggregates
// are stored as "not entered".
type SaveBuildingRequest struct {
	Name           string           `json:"name" validate:"required"`
	Address        string           `json:"address"`
	TotalArea      *decimal.Decimal `json:"total_area"`
	TotalOccupants *int             `json:"total_occupants" validate:"omitempty,gte=0"`
	TotalUnits     *int             `json:"total_units" validate:"omitempty,gte=0"`
}

func toBuildingDTO(b settlement.Building) BuildingDTO {
	dto := BuildingDTO{
		Name:           b.Name,
		Address:        b.Address,
		TotalOccupants: b.TotalOccupants,
		TotalUnits:     b.TotalUnits,
	}
	if b.TotalArea != nil {
		s := b.TotalArea.String()
		dto.TotalArea = &s
	}
	return dto
}

// =============================================================================
// UNITS & TENANCIES
// =============================================================================

type UnitDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	BaseRent string `json:"base_rent"`
}

type CreateUnitRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name" validate:"required"`
	Area     decimal.Decimal `json:"area"`
	BaseRent decimal.Decimal `json:"base_rent"`
}

func toUnitDTO(u settlement.Unit) UnitDTO {
	return UnitDTO{
		ID:       u.ID,
		Name:     u.Name,
		Area:     u.Area.String(),
		BaseRent: u.BaseRent.Value.StringFixed(2),
	}
}

type TenancyDTO struct {
	ID                string  `json:"id"`
	UnitID            string  `json:"unit_id"`
	TenantName        string  `json:"tenant_name"`
	Area              string  `json:"area"`
	Occupants         int     `json:"occupants"`
	MonthlyPrepayment string  `json:"monthly_prepayment"`
	MoveIn            string  `json:"move_in"`
	MoveOut           *string `json:"move_out"`
}

type CreateTenancyRequest struct {
	ID                string          `json:"id"`
	UnitID            string          `json:"unit_id" validate:"required"`
	TenantName        string          `json:"tenant_name" validate:"required"`
	Occupants         int             `json:"occupants" validate:"gte=0"`
	MonthlyPrepayment decimal.Decimal `json:"monthly_prepayment"`
	MoveIn            string          `json:"move_in" validate:"required,datetime=2006-01-02"`
	MoveOut           string          `json:"move_out" validate:"omitempty,datetime=2006-01-02"`
}

func toTenancyDTO(t settlement.Tenancy) TenancyDTO {
	dto := TenancyDTO{
		ID:                t.ID,
		UnitID:            t.UnitID,
		TenantName:        t.TenantName,
		Area:              t.Area.String(),
		Occupants:         t.Occupants,
		MonthlyPrepayment: t.MonthlyPrepayment.Value.StringFixed(2),
		MoveIn:            t.MoveIn.String(),
	}
	if t.MoveOut != nil {
		s := t.MoveOut.String()
		dto.MoveOut = &s
	}
	return dto
}

// =============================================================================
// EXPENSES
// =============================================================================

type ExpenseLineDTO struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	BillingYear int    `json:"billing_year"`
	Key         string `json:"key"`
	KeyLabel    string `json:"key_label"`
	Target      string `json:"target,omitempty"`
	Proration   string `json:"proration"`
}

// CreateExpenseRequest enters one invoice line. Key may be omitted to use
// the category's preset.
type CreateExpenseRequest struct {
	ID          string          `json:"id"`
	Category    string          `json:"category" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	BillingYear int             `json:"billing_year" validate:"required,gte=1900,lte=9999"`
	Key         string          `json:"key" validate:"omitempty,oneof=area persons unit direct"`
	Target      string          `json:"target"`
	Proration   string          `json:"proration" validate:"omitempty,oneof=linear none"`
}

func toExpenseLineDTO(l settlement.ExpenseLine) ExpenseLineDTO {
	return ExpenseLineDTO{
		ID:          l.ID,
		Category:    l.Category,
		Amount:      l.Amount.Value.StringFixed(2),
		BillingYear: l.BillingYear,
		Key:         l.Key.Tag(),
		KeyLabel:    l.Key.Label(),
		Target:      settlement.DirectTarget(l.Key),
		Proration:   string(l.Proration),
	}
}

type PresetDTO struct {
	Category  string `json:"category"`
	Key       string `json:"key"`
	KeyLabel  string `json:"key_label"`
	Proration string `json:"proration"`
}

type TenantShareDTO struct {
	TenancyID     string `json:"tenancy_id"`
	TenantName    string `json:"tenant_name"`
	OccupancyDays int    `json:"occupancy_days"`
	Ratio         string `json:"ratio"`
	TimeFactor    string `json:"time_factor,omitempty"`
	Share         string `json:"share"`
	Error         string `json:"error,omitempty"`
}

type DistributionDTO struct {
	Line        ExpenseLineDTO   `json:"line"`
	Shares      []TenantShareDTO `json:"shares"`
	Allocated   string           `json:"allocated"`
	Unallocated string           `json:"unallocated"`
}

func toDistributionDTO(d settlement.Distribution) DistributionDTO {
	dto := DistributionDTO{
		Line:        toExpenseLineDTO(d.Line),
		Shares:      []TenantShareDTO{},
		Allocated:   d.Allocated.Value.StringFixed(2),
		Unallocated: d.Unallocated.Value.StringFixed(2),
	}
	for _, s := range d.Shares {
		share := TenantShareDTO{
			TenancyID:     s.TenancyID,
			TenantName:    s.TenantName,
			OccupancyDays: s.OccupancyDays,
			Ratio:         s.Row.Ratio,
			TimeFactor:    s.Row.TimeFactor,
			Share:         s.Row.Share.Value.StringFixed(2),
		}
		if s.Row.Err != nil {
			share.Error = s.Row.Err.Error()
		}
		dto.Shares = append(dto.Shares, share)
	}
	return dto
}

// =============================================================================
// STATEMENTS
// =============================================================================

type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ShareRowDTO struct {
	LineID     string `json:"line_id"`
	Category   string `json:"category"`
	HouseTotal string `json:"house_total"`
	Key        string `json:"key"`
	KeyLabel   string `json:"key_label"`
	Ratio      string `json:"ratio"`
	TimeFactor string `json:"time_factor,omitempty"`
	Share      string `json:"share"`
	Error      string `json:"error,omitempty"`
}

// StatementDTO is a tenancy's breakdown and settlement for one period.
// Flagged is true when at least one line could not be allocated.
type StatementDTO struct {
	TenancyID          string        `json:"tenancy_id"`
	TenantName         string        `json:"tenant_name"`
	UnitID             string        `json:"unit_id"`
	Period             PeriodDTO     `json:"period"`
	OccupancyDays      int           `json:"occupancy_days"`
	BasisDays          int           `json:"basis_days"`
	Rows               []ShareRowDTO `json:"rows"`
	TotalCost          string        `json:"total_cost"`
	ProratedPrepayment string        `json:"prorated_prepayment"`
	Balance            string        `json:"balance"`
	Outcome            string        `json:"outcome"`
	Flagged            bool          `json:"flagged"`
}

func toStatementDTO(stmt settlement.Statement) StatementDTO {
	s := stmt.Settlement
	dto := StatementDTO{
		TenancyID:          s.TenancyID,
		TenantName:         stmt.TenantName,
		UnitID:             stmt.UnitID,
		Period:             PeriodDTO{Start: s.Period.Start.String(), End: s.Period.End.String()},
		OccupancyDays:      s.OccupancyDays,
		BasisDays:          s.BasisDays,
		Rows:               []ShareRowDTO{},
		TotalCost:          s.TotalCost.Value.StringFixed(2),
		ProratedPrepayment: s.ProratedPrepayment.Value.StringFixed(2),
		Balance:            s.Balance.Value.StringFixed(2),
		Outcome:            string(s.Outcome()),
		Flagged:            stmt.Failed(),
	}
	for _, r := range stmt.Breakdown.Rows {
		row := ShareRowDTO{
			LineID:     r.LineID,
			Category:   r.Category,
			HouseTotal: r.HouseTotal.Value.StringFixed(2),
			Key:        r.KeyTag,
			KeyLabel:   r.KeyLabel,
			Ratio:      r.Ratio,
			TimeFactor: r.TimeFactor,
			Share:      r.Share.Value.StringFixed(2),
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		dto.Rows = append(dto.Rows, row)
	}
	return dto
}

// =============================================================================
// METERS
// =============================================================================

type MeterDTO struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Medium     string `json:"medium"`
	Unit       string `json:"unit"`
	UnitID     string `json:"unit_id,omitempty"`
	IsSubmeter bool   `json:"is_submeter"`
	ParentID   string `json:"parent_id,omitempty"`
}

type CreateMeterRequest struct {
	ID       string `json:"id"`
	Number   string `json:"number" validate:"required"`
	Medium   string `json:"medium" validate:"required,oneof=electricity cold_water heating gas"`
	UnitID   string `json:"unit_id"`
	ParentID string `json:"parent_id"`
}

type AssignParentRequest struct {
	ParentID string `json:"parent_id" validate:"required"`
}

type ReadingRequest struct {
	Date  string          `json:"date" validate:"required,datetime=2006-01-02"`
	Value decimal.Decimal `json:"value"`
}

func toMeterDTO(m metering.Meter) MeterDTO {
	return MeterDTO{
		ID:         m.ID,
		Number:     m.Number,
		Medium:     string(m.Medium),
		Unit:       string(m.Medium.Unit()),
		UnitID:     m.UnitID,
		IsSubmeter: m.IsSubmeter,
		ParentID:   m.ParentID,
	}
}

type NetResultDTO struct {
	Parent      MeterDTO          `json:"parent"`
	Period      PeriodDTO         `json:"period"`
	GrossParent string            `json:"gross_parent"`
	PerChild    map[string]string `json:"per_child"`
	Net         string            `json:"net"`
	Unit        string            `json:"unit"`
	Incomplete  bool              `json:"incomplete"`
	Anomaly     bool              `json:"anomaly"`
	Warnings    []string          `json:"warnings"`
}

func toNetResultDTO(r metering.NetResult) NetResultDTO {
	dto := NetResultDTO{
		Parent:      toMeterDTO(r.Parent),
		Period:      PeriodDTO{Start: r.Interval.Start.String(), End: r.Interval.End.String()},
		GrossParent: r.GrossParent.Value.String(),
		PerChild:    make(map[string]string, len(r.PerChild)),
		Net:         r.Net.Value.String(),
		Unit:        string(r.Net.Unit),
		Incomplete:  r.Incomplete,
		Anomaly:     r.Anomaly,
		Warnings:    []string{},
	}
	for id, v := range r.PerChild {
		dto.PerChild[id] = v.Value.String()
	}
	for _, w := range r.Warnings {
		dto.Warnings = append(dto.Warnings, w.Error())
	}
	return dto
}

// BillMeterRequest prices a main meter's net report into expense lines.
// Assignments map submeter ids to the tenancies billed directly.
type BillMeterRequest struct {
	From         string            `json:"from" validate:"required,datetime=2006-01-02"`
	To           string            `json:"to" validate:"required,datetime=2006-01-02"`
	Category     string            `json:"category" validate:"required"`
	PricePerUnit decimal.Decimal   `json:"price_per_unit"`
	BillingYear  int               `json:"billing_year" validate:"required,gte=1900,lte=9999"`
	SharedKey    string            `json:"shared_key" validate:"required,oneof=area persons unit"`
	Assignments  map[string]string `json:"assignments"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	ID        string `json:"id"`
	TenancyID string `json:"tenancy_id"`
	Amount    string `json:"amount"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	PaidOn    string `json:"paid_on,omitempty"`
	Note      string `json:"note,omitempty"`
}

type CreatePaymentRequest struct {
	ID        string          `json:"id"`
	TenancyID string          `json:"tenancy_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Year      int             `json:"year" validate:"required,gte=1900,lte=9999"`
	Month     int             `json:"month" validate:"required,gte=1,lte=12"`
	PaidOn    string          `json:"paid_on" validate:"omitempty,datetime=2006-01-02"`
	Note      string          `json:"note"`
}

func toPaymentDTO(p payments.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:        p.ID,
		TenancyID: p.TenancyID,
		Amount:    p.Amount.Value.StringFixed(2),
		Year:      p.PeriodYear,
		Month:     int(p.PeriodMonth),
		Note:      p.Note,
	}
	if !p.PaidOn.IsZero() {
		dto.PaidOn = p.PaidOn.String()
	}
	return dto
}

type DueDTO struct {
	TenancyID  string `json:"tenancy_id"`
	TenantName string `json:"tenant_name"`
	UnitName   string `json:"unit_name"`
	Expected   string `json:"expected"`
	Received   string `json:"received"`
	Shortfall  string `json:"shortfall"`
}

func toDueDTO(d payments.Due) DueDTO {
	return DueDTO{
		TenancyID:  d.TenancyID,
		TenantName: d.TenantName,
		UnitName:   d.UnitName,
		Expected:   d.Expected.Value.StringFixed(2),
		Received:   d.Received.Value.StringFixed(2),
		Shortfall:  d.Shortfall.Value.StringFixed(2),
	}
}

type SummaryDTO struct {
	TenancyID  string `json:"tenancy_id"`
	TenantName string `json:"tenant_name"`
	UnitName   string `json:"unit_name"`
	Expected   string `json:"expected"`
	Received   string `json:"received"`
	Balance    string `json:"balance"`
}

func toSummaryDTO(s payments.Summary) SummaryDTO {
	return SummaryDTO{
		TenancyID:  s.TenancyID,
		TenantName: s.TenantName,
		UnitName:   s.UnitName,
		Expected:   s.Expected.Value.StringFixed(2),
		Received:   s.Received.Value.StringFixed(2),
		Balance:    s.Balance.Value.StringFixed(2),
	}
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ImportResultDTO reports what an import or demo load wrote.
type ImportResultDTO struct {
	Counts map[string]int `json:"counts"`
}

func parseDate(s string) (generic.TimePoint, error) {
	return generic.ParseTimePoint(s)
}
