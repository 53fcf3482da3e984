/*
handlers.go - HTTP API handlers for the settlement engine

PURPOSE:
  Exposes building data entry, statements, metering and payment tracking
  via REST API. Handles HTTP request/response and JSON serialization, and
  delegates to the settlement, metering and payments services.

ENDPOINTS:
  Building:
    GET    /api/building                         Landlord settings
    PUT    /api/building                         Replace landlord settings

  Units & Tenancies:
    GET    /api/units                            List units
    POST   /api/units                            Create or update unit
    GET    /api/tenancies                        List tenancies
    POST   /api/tenancies                        Create or update tenancy
    GET    /api/tenancies/{id}                   Tenancy details
    GET    /api/tenancies/{id}/statement?year=   Breakdown + settlement
    POST   /api/tenancies/{id}/statement/archive?year=  Freeze statement
    GET    /api/tenancies/{id}/archive           Frozen statements

  Expenses:
    GET    /api/expenses?year=                   Lines of a billing year
    POST   /api/expenses                         Enter a line
    GET    /api/expenses/presets                 Category key presets
    GET    /api/expenses/distribution?year=      Per-line house distribution

  Meters:
    GET    /api/meters                           List meters
    POST   /api/meters                           Register meter
    POST   /api/meters/{id}/parent               Make a submeter
    POST   /api/meters/{id}/readings             Record a reading
    GET    /api/meters/report?from=&to=          Net consumption report
    POST   /api/meters/{id}/expenses             Price net report into lines

  Payments:
    GET    /api/payments?year=                   Payments of a rent year
    POST   /api/payments                         Book a payment
    GET    /api/payments/outstanding?year=&month=  Missing or partial
    GET    /api/payments/summary?year=           Expected vs received

  Data:
    POST   /api/import                           Import a dataset
    POST   /api/demo/load                        Reset and load demo house
    POST   /api/reset                            Clear all data

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid dates, bad tenancy window, meter topology
  - 404: Resource not found
  - 409: Duplicate expense line or meter
  - 422: Missing building aggregates, invalid allocation basis,
         meter data that cannot be billed
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/settlement-engine/factory"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
	"github.com/warp/settlement-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Settlements *settlement.Service
	Meters      *metering.Service
	Payments    *payments.Service

	log      *logrus.Entry
	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, periods generic.PeriodConfig, log *logrus.Entry) *Handler {
	return &Handler{
		Store:       store,
		Settlements: settlement.NewService(store, store, periods, log.WithField("component", "settlement")),
		Meters:      metering.NewService(store, log.WithField("component", "metering")),
		Payments:    payments.NewService(store),
		log:         log,
		validate:    validator.New(),
	}
}

// =============================================================================
// BUILDING
// =============================================================================

// GetBuilding returns the landlord settings.
// GET /api/building
func (h *Handler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBuilding(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load building", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Building not configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBuildingDTO(*b))
}

// SaveBuilding replaces the landlord settings.
// PUT /api/building
func (h *Handler) SaveBuilding(w http.ResponseWriter, r *http.Request) {
	var req SaveBuildingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.TotalArea != nil && req.TotalArea.IsNegative() {
		writeError(w, http.StatusBadRequest, "total_area must not be negative", nil)
		return
	}

	b := settlement.Building{
		Name:           req.Name,
		Address:        req.Address,
		TotalArea:      req.TotalArea,
		TotalOccupants: req.TotalOccupants,
		TotalUnits:     req.TotalUnits,
	}
	if err := h.Store.SaveBuilding(r.Context(), b); err != nil {
		writeDomainError(w, "Failed to save building", err)
		return
	}
	writeJSON(w, http.StatusOK, toBuildingDTO(b))
}

// =============================================================================
// UNITS & TENANCIES
// =============================================================================

// ListUnits returns all units.
// GET /api/units
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListUnits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list units", err)
		return
	}
	dtos := make([]UnitDTO, 0, len(units))
	for _, u := range units {
		dtos = append(dtos, toUnitDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUnit creates or updates a unit.
// POST /api/units
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Area.IsNegative() || req.BaseRent.IsNegative() {
		writeError(w, http.StatusBadRequest, "area and base_rent must not be negative", nil)
		return
	}

	u := settlement.Unit{
		ID:       orNewID(req.ID),
		Name:     req.Name,
		Area:     req.Area,
		BaseRent: generic.Money(req.BaseRent),
	}
	if err := h.Store.SaveUnit(r.Context(), u); err != nil {
		writeDomainError(w, "Failed to save unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUnitDTO(u))
}

// ListTenancies returns all tenancies.
// GET /api/tenancies
func (h *Handler) ListTenancies(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Store.ListTenancies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenancies", err)
		return
	}
	dtos := make([]TenancyDTO, 0, len(ts))
	for _, t := range ts {
		dtos = append(dtos, toTenancyDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTenancy returns a single tenancy.
// GET /api/tenancies/{id}
func (h *Handler) GetTenancy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.Store.GetTenancy(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load tenancy", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Tenancy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(*t))
}

// CreateTenancy creates or updates a tenancy.
// POST /api/tenancies
func (h *Handler) CreateTenancy(w http.ResponseWriter, r *http.Request) {
	var req CreateTenancyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	moveIn, err := parseDate(req.MoveIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid move_in", err)
		return
	}
	t := settlement.Tenancy{
		ID:                orNewID(req.ID),
		UnitID:            req.UnitID,
		TenantName:        req.TenantName,
		Occupants:         req.Occupants,
		MonthlyPrepayment: generic.Money(req.MonthlyPrepayment),
		MoveIn:            moveIn,
	}
	if req.MoveOut != "" {
		moveOut, err := parseDate(req.MoveOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid move_out", err)
			return
		}
		t.MoveOut = &moveOut
	}

	if err := h.Store.SaveTenancy(r.Context(), t); err != nil {
		writeDomainError(w, "Failed to save tenancy", err)
		return
	}
	saved, err := h.Store.GetTenancy(r.Context(), t.ID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload tenancy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenancyDTO(*saved))
}

// =============================================================================
// STATEMENTS
// =============================================================================

// GetStatement computes a tenancy's breakdown and settlement. Lines that
// could not be allocated are flagged in the body; the rest still settle.
// GET /api/tenancies/{id}/statement?year=2025
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	stmt, err := h.Settlements.Statement(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		writeDomainError(w, "Failed to compute statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(stmt))
}

// ArchiveStatement freezes a tenancy's statement.
// POST /api/tenancies/{id}/statement/archive?year=2025
func (h *Handler) ArchiveStatement(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	snap, err := h.Settlements.Archive(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		writeDomainError(w, "Failed to archive statement", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListArchivedStatements returns a tenancy's frozen statements.
// GET /api/tenancies/{id}/archive
func (h *Handler) ListArchivedStatements(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Settlements.ArchivedStatements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list archived statements", err)
		return
	}
	if snaps == nil {
		snaps = []settlement.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// =============================================================================
// EXPENSES
// =============================================================================

// ListExpenses returns the lines of a billing year.
// GET /api/expenses?year=2025
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	lines, err := h.Store.ListExpenseLines(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, toExpenseLineDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense enters one expense line. The key tag is resolved here,
// once; a missing tag takes the category's preset.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	preset := settlement.PresetFor(req.Category)
	line := settlement.ExpenseLine{
		ID:          orNewID(req.ID),
		Category:    req.Category,
		Amount:      generic.Money(req.Amount),
		BillingYear: req.BillingYear,
		Key:         preset.Key,
		Proration:   preset.Proration,
	}
	if req.Key != "" {
		key, err := settlement.ParseAllocationKey(req.Key, req.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid allocation key", err)
			return
		}
		line.Key = key
	}
	if req.Proration != "" {
		p, err := generic.ParseProrateMethod(req.Proration)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid proration", err)
			return
		}
		line.Proration = p
	}

	if err := h.Store.AddExpenseLine(r.Context(), line); err != nil {
		writeDomainError(w, "Failed to add expense", err)
		return
	}
	h.log.WithFields(logrus.Fields{"line": line.ID, "category": line.Category, "key": line.Key.Tag()}).Info("expense line added")
	writeJSON(w, http.StatusCreated, toExpenseLineDTO(line))
}

// ListPresets returns the suggested key per cost category.
// GET /api/expenses/presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	dtos := make([]PresetDTO, 0, len(settlement.Presets))
	for _, p := range settlement.Presets {
		dtos = append(dtos, PresetDTO{
			Category:  p.Category,
			Key:       p.Key.Tag(),
			KeyLabel:  p.Key.Label(),
			Proration: string(p.Proration),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDistribution spreads each line of the year over all tenancies.
// GET /api/expenses/distribution?year=2025
func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	dists, err := h.Settlements.Distribution(r.Context(), year)
	if err != nil {
		writeDomainError(w, "Failed to compute distribution", err)
		return
	}
	dtos := make([]DistributionDTO, 0, len(dists))
	for _, d := range dists {
		dtos = append(dtos, toDistributionDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// METERS
// =============================================================================

// ListMeters returns all meters.
// GET /api/meters
func (h *Handler) ListMeters(w http.ResponseWriter, r *http.Request) {
	meters, err := h.Store.ListMeters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list meters", err)
		return
	}
	dtos := make([]MeterDTO, 0, len(meters))
	for _, m := range meters {
		dtos = append(dtos, toMeterDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMeter registers a meter. Naming a parent makes it a submeter.
// POST /api/meters
func (h *Handler) CreateMeter(w http.ResponseWriter, r *http.Request) {
	var req CreateMeterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	medium, err := metering.ParseMedium(req.Medium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid medium", err)
		return
	}
	m := metering.Meter{
		ID:         orNewID(req.ID),
		Number:     req.Number,
		Medium:     medium,
		UnitID:     req.UnitID,
		IsSubmeter: req.ParentID != "",
		ParentID:   req.ParentID,
	}
	if err := h.Meters.AddMeter(r.Context(), m); err != nil {
		writeDomainError(w, "Failed to add meter", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMeterDTO(m))
}

// AssignParent makes a meter a submeter of another.
// POST /api/meters/{id}/parent
func (h *Handler) AssignParent(w http.ResponseWriter, r *http.Request) {
	var req AssignParentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	m, err := h.Meters.AssignParent(r.Context(), chi.URLParam(r, "id"), req.ParentID)
	if err != nil {
		writeDomainError(w, "Failed to assign parent", err)
		return
	}
	writeJSON(w, http.StatusOK, toMeterDTO(m))
}

// AddReading records a meter reading. A second reading for the same day
// replaces the first.
// POST /api/meters/{id}/readings
func (h *Handler) AddReading(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	day, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	reading := metering.Reading{MeterID: chi.URLParam(r, "id"), Date: day, Value: req.Value}
	if err := h.Meters.AddReading(r.Context(), reading); err != nil {
		writeDomainError(w, "Failed to add reading", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"meter_id": reading.MeterID,
		"date":     reading.Date.String(),
		"value":    reading.Value.String(),
	})
}

// MeterReport returns the net consumption of every main meter with
// submeters. Warnings are part of the body, never an error status.
// GET /api/meters/report?from=2025-01-01&to=2025-12-31
func (h *Handler) MeterReport(w http.ResponseWriter, r *http.Request) {
	interval, ok := intervalParam(w, r)
	if !ok {
		return
	}
	results, err := h.Meters.Report(r.Context(), interval)
	if err != nil {
		writeDomainError(w, "Failed to compute meter report", err)
		return
	}
	dtos := make([]NetResultDTO, 0, len(results))
	for _, res := range results {
		dtos = append(dtos, toNetResultDTO(res))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// BillMeter prices a main meter's net report and enters the resulting
// lines in one transaction.
// POST /api/meters/{id}/expenses
func (h *Handler) BillMeter(w http.ResponseWriter, r *http.Request) {
	var req BillMeterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	from, errFrom := parseDate(req.From)
	to, errTo := parseDate(req.To)
	if err := errors.Join(errFrom, errTo); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interval", err)
		return
	}
	key, err := settlement.ParseAllocationKey(req.SharedKey, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shared_key", err)
		return
	}
	tariff := metering.Tariff{
		Category:     req.Category,
		PricePerUnit: req.PricePerUnit,
		BillingYear:  req.BillingYear,
		SharedKey:    key,
	}

	ctx := r.Context()
	lines, err := h.Meters.Bill(ctx, chi.URLParam(r, "id"), generic.Period{Start: from, End: to}, tariff, req.Assignments)
	if err != nil {
		writeDomainError(w, "Failed to bill meter", err)
		return
	}
	err = h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		for _, l := range lines {
			if err := tx.AddExpenseLine(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeDomainError(w, "Failed to add metered expenses", err)
		return
	}

	dtos := make([]ExpenseLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, toExpenseLineDTO(l))
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// PAYMENTS
// =============================================================================

// ListPayments returns the payments booked for a rent year.
// GET /api/payments?year=2025
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	ps, err := h.Store.ListPayments(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentDTO, 0, len(ps))
	for _, p := range ps {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment books a payment against a tenancy and rent month.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	p := payments.Payment{
		ID:          orNewID(req.ID),
		TenancyID:   req.TenancyID,
		Amount:      generic.Money(req.Amount),
		PeriodYear:  req.Year,
		PeriodMonth: time.Month(req.Month),
		Note:        req.Note,
	}
	if req.PaidOn != "" {
		paidOn, err := parseDate(req.PaidOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_on", err)
			return
		}
		p.PaidOn = paidOn
	}
	if err := h.Store.SavePayment(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to save payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// ListOutstanding returns tenancies that have not fully paid a month.
// GET /api/payments/outstanding?year=2025&month=2
func (h *Handler) ListOutstanding(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	month := int(time.Now().Month())
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = m
	}
	due, err := h.Payments.Outstanding(r.Context(), year, time.Month(month))
	if err != nil {
		writeDomainError(w, "Failed to compute outstanding payments", err)
		return
	}
	dtos := make([]DueDTO, 0, len(due))
	for _, d := range due {
		dtos = append(dtos, toDueDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PaymentSummary totals expected against received per tenancy.
// GET /api/payments/summary?year=2025
func (h *Handler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	sums, err := h.Payments.YearSummary(r.Context(), year)
	if err != nil {
		writeDomainError(w, "Failed to compute payment summary", err)
		return
	}
	dtos := make([]SummaryDTO, 0, len(sums))
	for _, s := range sums {
		dtos = append(dtos, toSummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DATA
// =============================================================================

// Import writes a dataset document in one transaction.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var dj factory.DatasetJSON
	if err := json.NewDecoder(r.Body).Decode(&dj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ds, err := factory.FromJSON(dj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dataset", err)
		return
	}
	if err := h.apply(r, ds); err != nil {
		writeDomainError(w, "Failed to import dataset", err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResultDTO{Counts: ds.Counts()})
}

// LoadDemo clears the database and loads the demo house.
// POST /api/demo/load
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	ds := factory.DemoDataset()
	if err := h.apply(r, ds); err != nil {
		writeDomainError(w, "Failed to load demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResultDTO{Counts: ds.Counts()})
}

// ResetDatabase clears all data.
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.log.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) apply(r *http.Request, ds *factory.Dataset) error {
	ctx := r.Context()
	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		return ds.Apply(ctx, tx)
	})
	if err == nil {
		h.log.WithFields(logrus.Fields{"counts": ds.Counts()}).Info("dataset imported")
	}
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to a status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrDuplicateExpenseLine), errors.Is(err, generic.ErrDuplicateMeter):
		return http.StatusConflict
	case errors.Is(err, generic.ErrConfiguration),
		errors.Is(err, generic.ErrInvalidAllocationBasis),
		generic.IsWarning(err):
		return http.StatusUnprocessableEntity
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes the JSON body into dst and runs its validator
// tags. It writes the 400 response itself and reports whether to go on.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// yearParam reads ?year=, defaulting to the previous calendar year, which
// is the one usually being settled.
func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return generic.Today().Year() - 1, true
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", fmt.Errorf("year %q", v))
		return 0, false
	}
	return year, true
}

// intervalParam reads ?from=&to=. Without both, it falls back to ?year=.
func intervalParam(w http.ResponseWriter, r *http.Request) (generic.Period, bool) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		year, ok := yearParam(w, r)
		if !ok {
			return generic.Period{}, false
		}
		return generic.CalendarYear(year), true
	}
	from, errFrom := parseDate(q.Get("from"))
	to, errTo := parseDate(q.Get("to"))
	if err := errors.Join(errFrom, errTo); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interval", err)
		return generic.Period{}, false
	}
	return generic.Period{Start: from, End: to}, true
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
