/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the building, units, tenancies, expense lines, meters, readings,
  payments and archived statements, and serves them to the settlement,
  metering and payments services.

INTERFACES IMPLEMENTED:
  settlement.Source:        Building, tenancies, expense lines
  settlement.SnapshotStore: Archived statements
  metering.Store:           Meters and readings
  payments.Source:          Tenancies, units, payments

IMMUTABLE EXPENSE LINES:
  AddExpenseLine only inserts. An amended cost is a new line; a second
  insert with the same id fails with a duplicate error.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The engine reads each snapshot once
  per request; isolation between those reads is this store's concern.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/settlement.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Versioned migrations live in migrations/ and are embedded into the
  binary. New() applies pending ones; settlectl migrate runs them by hand.

SEE ALSO:
  - migrate.go: golang-migrate wiring
  - store/memory: In-memory implementation for tests and dry runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New creates a new SQLite store with the given database path and applies
// pending migrations. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Open opens the database without migrating it.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewUnmigrated wraps an open database for the migrate command.
func NewUnmigrated(dbPath string) (*Store, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// BUILDING
// =============================================================================

// GetBuilding returns the landlord settings, or nil when never saved.
func (s *Store) GetBuilding(ctx context.Context) (*settlement.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		b          settlement.Building
		area       sql.NullString
		occupants  sql.NullInt64
		totalUnits sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT name, address, total_area, total_occupants, total_units FROM building WHERE id = 1",
	).Scan(&b.Name, &b.Address, &area, &occupants, &totalUnits)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if area.Valid {
		d, err := decimal.NewFromString(area.String)
		if err != nil {
			return nil, fmt.Errorf("building total_area %q: %w", area.String, err)
		}
		b.TotalArea = &d
	}
	if occupants.Valid {
		n := int(occupants.Int64)
		b.TotalOccupants = &n
	}
	if totalUnits.Valid {
		n := int(totalUnits.Int64)
		b.TotalUnits = &n
	}
	return &b, nil
}

// SaveBuilding creates or replaces the landlord settings.
func (s *Store) SaveBuilding(ctx context.Context, b settlement.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBuilding(ctx, s.db, b)
}

func saveBuilding(ctx context.Context, db execer, b settlement.Building) error {
	var area sql.NullString
	if b.TotalArea != nil {
		area = sql.NullString{String: b.TotalArea.String(), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO building (id, name, address, total_area, total_occupants, total_units, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			total_area = excluded.total_area,
			total_occupants = excluded.total_occupants,
			total_units = excluded.total_units,
			updated_at = excluded.updated_at
	`, b.Name, b.Address, area, nullInt(b.TotalOccupants), nullInt(b.TotalUnits), now())
	return err
}

// =============================================================================
// UNITS
// =============================================================================

func (s *Store) SaveUnit(ctx context.Context, u settlement.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUnit(ctx, s.db, u)
}

func saveUnit(ctx context.Context, db execer, u settlement.Unit) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO units (id, name, area, base_rent, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			area = excluded.area,
			base_rent = excluded.base_rent
	`, u.ID, u.Name, u.Area.String(), u.BaseRent.Value.String(), now())
	return err
}

// GetUnit returns a unit, or nil when it does not exist.
func (s *Store) GetUnit(ctx context.Context, id string) (*settlement.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units, err := s.queryUnits(ctx, "SELECT id, name, area, base_rent FROM units WHERE id = ?", id)
	if err != nil || len(units) == 0 {
		return nil, err
	}
	return &units[0], nil
}

func (s *Store) ListUnits(ctx context.Context) ([]settlement.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryUnits(ctx, "SELECT id, name, area, base_rent FROM units ORDER BY name")
}

func (s *Store) queryUnits(ctx context.Context, query string, args ...any) ([]settlement.Unit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []settlement.Unit
	for rows.Next() {
		var u settlement.Unit
		var area, rent string
		if err := rows.Scan(&u.ID, &u.Name, &area, &rent); err != nil {
			return nil, err
		}
		if u.Area, err = parseDecimal("area", area); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		if u.BaseRent, err = parseMoney("base_rent", rent); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// =============================================================================
// TENANCIES
// =============================================================================

func (s *Store) SaveTenancy(ctx context.Context, t settlement.Tenancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTenancy(ctx, s.db, t)
}

func saveTenancy(ctx context.Context, db execer, t settlement.Tenancy) error {
	if err := t.Validate(); err != nil {
		return err
	}
	var moveOut sql.NullString
	if t.MoveOut != nil {
		moveOut = sql.NullString{String: t.MoveOut.String(), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO tenancies (id, unit_id, tenant_name, occupants, monthly_prepayment, move_in, move_out, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unit_id = excluded.unit_id,
			tenant_name = excluded.tenant_name,
			occupants = excluded.occupants,
			monthly_prepayment = excluded.monthly_prepayment,
			move_in = excluded.move_in,
			move_out = excluded.move_out
	`, t.ID, t.UnitID, t.TenantName, t.Occupants, t.MonthlyPrepayment.Value.String(),
		t.MoveIn.String(), moveOut, now())
	if isForeignKeyError(err) {
		return fmt.Errorf("unit %s: %w", t.UnitID, generic.ErrEntityNotFound)
	}
	return err
}

const tenancyColumns = `
	SELECT t.id, t.unit_id, t.tenant_name, u.area, t.occupants, t.monthly_prepayment, t.move_in, t.move_out
	FROM tenancies t JOIN units u ON u.id = t.unit_id`

// GetTenancy returns a tenancy with its unit's area, or nil when it does
// not exist.
func (s *Store) GetTenancy(ctx context.Context, id string) (*settlement.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, err := s.queryTenancies(ctx, tenancyColumns+" WHERE t.id = ?", id)
	if err != nil || len(ts) == 0 {
		return nil, err
	}
	return &ts[0], nil
}

// ListTenancies returns all tenancies ordered by move-in.
func (s *Store) ListTenancies(ctx context.Context) ([]settlement.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryTenancies(ctx, tenancyColumns+" ORDER BY t.move_in, t.id")
}

func (s *Store) queryTenancies(ctx context.Context, query string, args ...any) ([]settlement.Tenancy, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Tenancy
	for rows.Next() {
		var (
			t                    settlement.Tenancy
			area, prepay, moveIn string
			moveOut              sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UnitID, &t.TenantName, &area, &t.Occupants, &prepay, &moveIn, &moveOut); err != nil {
			return nil, err
		}
		if t.Area, err = parseDecimal("area", area); err != nil {
			return nil, fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
		if t.MonthlyPrepayment, err = parseMoney("monthly_prepayment", prepay); err != nil {
			return nil, fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
		if t.MoveIn, err = generic.ParseTimePoint(moveIn); err != nil {
			return nil, fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
		if moveOut.Valid {
			mo, err := generic.ParseTimePoint(moveOut.String)
			if err != nil {
				return nil, fmt.Errorf("tenancy %s: %w", t.ID, err)
			}
			t.MoveOut = &mo
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// EXPENSE LINES (insert-only)
// =============================================================================

// ErrDuplicateExpenseLine is returned when a line id is inserted twice.
var ErrDuplicateExpenseLine = fmt.Errorf("expense line already exists")

func (s *Store) AddExpenseLine(ctx context.Context, l settlement.ExpenseLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addExpenseLine(ctx, s.db, l)
}

func addExpenseLine(ctx context.Context, db execer, l settlement.ExpenseLine) error {
	if l.Key == nil {
		return fmt.Errorf("expense line %s has no allocation key", l.ID)
	}
	proration := l.Proration
	if proration == "" {
		proration = generic.ProrateLinear
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO expense_lines (id, category, amount, billing_year, allocation_key, direct_tenancy_id, proration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Category, l.Amount.Value.String(), l.BillingYear, l.Key.Tag(),
		nullString(settlement.DirectTarget(l.Key)), string(proration), now())
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateExpenseLine, l.ID)
	}
	if isForeignKeyError(err) {
		return fmt.Errorf("direct target %s: %w", settlement.DirectTarget(l.Key), generic.ErrEntityNotFound)
	}
	return err
}

// ListExpenseLines returns the lines of a billing year in entry order.
func (s *Store) ListExpenseLines(ctx context.Context, billingYear int) ([]settlement.ExpenseLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, amount, billing_year, allocation_key, direct_tenancy_id, proration
		FROM expense_lines WHERE billing_year = ? ORDER BY rowid
	`, billingYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []settlement.ExpenseLine
	for rows.Next() {
		var (
			l                    settlement.ExpenseLine
			amount, tag, prorate string
			target               sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Category, &amount, &l.BillingYear, &tag, &target, &prorate); err != nil {
			return nil, err
		}
		if l.Amount, err = parseMoney("amount", amount); err != nil {
			return nil, fmt.Errorf("expense line %s: %w", l.ID, err)
		}
		if l.Key, err = settlement.ParseAllocationKey(tag, target.String); err != nil {
			return nil, fmt.Errorf("expense line %s: %w", l.ID, err)
		}
		if l.Proration, err = generic.ParseProrateMethod(prorate); err != nil {
			return nil, fmt.Errorf("expense line %s: %w", l.ID, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// METERS & READINGS
// =============================================================================

func (s *Store) SaveMeter(ctx context.Context, m metering.Meter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveMeter(ctx, s.db, m)
}

func saveMeter(ctx context.Context, db execer, m metering.Meter) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO meters (id, number, medium, unit_id, is_submeter, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			medium = excluded.medium,
			unit_id = excluded.unit_id,
			is_submeter = excluded.is_submeter,
			parent_id = excluded.parent_id
	`, m.ID, m.Number, string(m.Medium), nullString(m.UnitID), m.IsSubmeter, nullString(m.ParentID), now())
	return err
}

// ListMeters returns meters in creation order.
func (s *Store) ListMeters(ctx context.Context) ([]metering.Meter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, number, medium, unit_id, is_submeter, parent_id FROM meters ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meters []metering.Meter
	for rows.Next() {
		var (
			m              metering.Meter
			medium         string
			unitID, parent sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Number, &medium, &unitID, &m.IsSubmeter, &parent); err != nil {
			return nil, err
		}
		m.Medium = metering.Medium(medium)
		m.UnitID = unitID.String
		m.ParentID = parent.String
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// SaveReading stores a reading; a second reading for the same meter and
// day replaces the first.
func (s *Store) SaveReading(ctx context.Context, r metering.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveReading(ctx, s.db, r)
}

func saveReading(ctx context.Context, db execer, r metering.Reading) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO meter_readings (meter_id, reading_date, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(meter_id, reading_date) DO UPDATE SET value = excluded.value
	`, r.MeterID, r.Date.String(), r.Value.String(), now())
	if isForeignKeyError(err) {
		return fmt.Errorf("meter %s: %w", r.MeterID, generic.ErrEntityNotFound)
	}
	return err
}

// ListReadings returns all readings ordered by meter and date.
func (s *Store) ListReadings(ctx context.Context) ([]metering.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT meter_id, reading_date, value FROM meter_readings ORDER BY meter_id, reading_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []metering.Reading
	for rows.Next() {
		var r metering.Reading
		var day, value string
		if err := rows.Scan(&r.MeterID, &day, &value); err != nil {
			return nil, err
		}
		if r.Date, err = generic.ParseTimePoint(day); err != nil {
			return nil, fmt.Errorf("reading of %s: %w", r.MeterID, err)
		}
		if r.Value, err = parseDecimal("value", value); err != nil {
			return nil, fmt.Errorf("reading of %s on %s: %w", r.MeterID, day, err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) SavePayment(ctx context.Context, p payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePayment(ctx, s.db, p)
}

func savePayment(ctx context.Context, db execer, p payments.Payment) error {
	var paidOn sql.NullString
	if !p.PaidOn.IsZero() {
		paidOn = sql.NullString{String: p.PaidOn.String(), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments (id, tenancy_id, amount, period_year, period_month, paid_on, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			period_year = excluded.period_year,
			period_month = excluded.period_month,
			paid_on = excluded.paid_on,
			note = excluded.note
	`, p.ID, p.TenancyID, p.Amount.Value.String(), p.PeriodYear, int(p.PeriodMonth), paidOn, nullString(p.Note), now())
	if isForeignKeyError(err) {
		return fmt.Errorf("tenancy %s: %w", p.TenancyID, generic.ErrEntityNotFound)
	}
	return err
}

// ListPayments returns the payments booked for a rent year, newest first.
func (s *Store) ListPayments(ctx context.Context, year int) ([]payments.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenancy_id, amount, period_year, period_month, paid_on, note
		FROM payments WHERE period_year = ? ORDER BY period_month DESC, paid_on DESC, id
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payments.Payment
	for rows.Next() {
		var (
			p            payments.Payment
			amount       string
			month        int
			paidOn, note sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.TenancyID, &amount, &p.PeriodYear, &month, &paidOn, &note); err != nil {
			return nil, err
		}
		if p.Amount, err = parseMoney("amount", amount); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		p.PeriodMonth = time.Month(month)
		p.Note = note.String
		if paidOn.Valid {
			if p.PaidOn, err = generic.ParseTimePoint(paidOn.String); err != nil {
				return nil, fmt.Errorf("payment %s: %w", p.ID, err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// STATEMENT SNAPSHOTS
// =============================================================================

// SaveSnapshot stores an archived statement, replacing an earlier one for
// the same tenancy and period.
func (s *Store) SaveSnapshot(ctx context.Context, snap settlement.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statement_snapshots (id, tenancy_id, period_start, period_end, snapshot_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenancy_id, period_start, period_end) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			created_at = excluded.created_at
	`, snap.ID, snap.TenancyID, snap.PeriodStart, snap.PeriodEnd, string(payload), now())
	return err
}

// ListSnapshots returns a tenancy's archived statements, latest period first.
func (s *Store) ListSnapshots(ctx context.Context, tenancyID string) ([]settlement.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT snapshot_json FROM statement_snapshots WHERE tenancy_id = ? ORDER BY period_start DESC",
		tenancyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap settlement.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		snap.Period.Start, _ = generic.ParseTimePoint(snap.PeriodStart)
		snap.Period.End, _ = generic.ParseTimePoint(snap.PeriodEnd)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL WRITES
// =============================================================================

// Tx is a write view bound to one database transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx executes fn within a database transaction. If fn returns an
// error, every write made through tx is rolled back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (t *Tx) SaveBuilding(ctx context.Context, b settlement.Building) error {
	return saveBuilding(ctx, t.tx, b)
}

func (t *Tx) SaveUnit(ctx context.Context, u settlement.Unit) error {
	return saveUnit(ctx, t.tx, u)
}

func (t *Tx) SaveTenancy(ctx context.Context, tn settlement.Tenancy) error {
	return saveTenancy(ctx, t.tx, tn)
}

func (t *Tx) AddExpenseLine(ctx context.Context, l settlement.ExpenseLine) error {
	return addExpenseLine(ctx, t.tx, l)
}

func (t *Tx) SaveMeter(ctx context.Context, m metering.Meter) error {
	return saveMeter(ctx, t.tx, m)
}

func (t *Tx) SaveReading(ctx context.Context, r metering.Reading) error {
	return saveReading(ctx, t.tx, r)
}

func (t *Tx) SavePayment(ctx context.Context, p payments.Payment) error {
	return savePayment(ctx, t.tx, p)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"statement_snapshots", "payments", "meter_readings", "meters",
		"expense_lines", "tenancies", "units", "building",
	}
	for _, table := range tables {
		if table == "meters" {
			// Submeters reference their parents.
			if _, err := s.db.ExecContext(ctx, "DELETE FROM meters WHERE is_submeter = 1"); err != nil {
				return err
			}
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// parseDecimal rejects stored values that are not decimals instead of
// reading them as zero.
func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", column, value, err)
	}
	return d, nil
}

func parseMoney(column, value string) (generic.Amount, error) {
	d, err := parseDecimal(column, value)
	if err != nil {
		return generic.Amount{}, err
	}
	return generic.Money(d), nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
