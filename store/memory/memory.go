// Package memory provides an in-memory store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/metering"
	"github.com/warp/settlement-engine/payments"
	"github.com/warp/settlement-engine/settlement"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// ErrDuplicateExpenseLine is returned when a line id is added twice.
var ErrDuplicateExpenseLine = fmt.Errorf("expense line already exists")

type Memory struct {
	mu    sync.RWMutex
	state state
}

type readingKey struct {
	MeterID string
	Date    string
}

// state holds every record. Slices keep insertion order; maps index them.
type state struct {
	building  *settlement.Building
	units     map[string]settlement.Unit
	tenancies map[string]settlement.Tenancy
	lines     []settlement.ExpenseLine
	lineIDs   map[string]bool
	meters    []metering.Meter
	readings  map[readingKey]metering.Reading
	payments  map[string]payments.Payment
	snapshots map[string]settlement.Snapshot
}

func newState() state {
	return state{
		units:     make(map[string]settlement.Unit),
		tenancies: make(map[string]settlement.Tenancy),
		lineIDs:   make(map[string]bool),
		readings:  make(map[readingKey]metering.Reading),
		payments:  make(map[string]payments.Payment),
		snapshots: make(map[string]settlement.Snapshot),
	}
}

func (s state) clone() state {
	c := newState()
	if s.building != nil {
		b := *s.building
		c.building = &b
	}
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.tenancies {
		c.tenancies[k] = v
	}
	c.lines = append(c.lines, s.lines...)
	for k, v := range s.lineIDs {
		c.lineIDs[k] = v
	}
	c.meters = append(c.meters, s.meters...)
	for k, v := range s.readings {
		c.readings[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	return c
}

func NewMemory() *Memory {
	return &Memory{state: newState()}
}

// WithTx runs fn against a scratch copy and keeps its writes only when fn
// succeeds.
func (m *Memory) WithTx(_ context.Context, fn func(tx *Memory) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	scratch := &Memory{state: m.state.clone()}
	if err := fn(scratch); err != nil {
		return err
	}
	m.state = scratch.state
	return nil
}

// =============================================================================
// BUILDING, UNITS, TENANCIES
// =============================================================================

func (m *Memory) GetBuilding(_ context.Context) (*settlement.Building, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.building == nil {
		return nil, nil
	}
	b := *m.state.building
	return &b, nil
}

func (m *Memory) SaveBuilding(_ context.Context, b settlement.Building) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.building = &b
	return nil
}

func (m *Memory) SaveUnit(_ context.Context, u settlement.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.units[u.ID] = u
	return nil
}

func (m *Memory) GetUnit(_ context.Context, id string) (*settlement.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.state.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ListUnits(_ context.Context) ([]settlement.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]settlement.Unit, 0, len(m.state.units))
	for _, u := range m.state.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveTenancy stores a tenancy. Its area is taken from the unit.
func (m *Memory) SaveTenancy(_ context.Context, t settlement.Tenancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := m.state.units[t.UnitID]; !ok {
		return fmt.Errorf("unit %s: %w", t.UnitID, generic.ErrEntityNotFound)
	}
	m.state.tenancies[t.ID] = t
	return nil
}

func (m *Memory) withUnitArea(t settlement.Tenancy) settlement.Tenancy {
	if u, ok := m.state.units[t.UnitID]; ok {
		t.Area = u.Area
	}
	return t
}

func (m *Memory) GetTenancy(_ context.Context, id string) (*settlement.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.state.tenancies[id]
	if !ok {
		return nil, nil
	}
	t = m.withUnitArea(t)
	return &t, nil
}

// ListTenancies returns all tenancies ordered by move-in.
func (m *Memory) ListTenancies(_ context.Context) ([]settlement.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]settlement.Tenancy, 0, len(m.state.tenancies))
	for _, t := range m.state.tenancies {
		out = append(out, m.withUnitArea(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MoveIn.Equal(out[j].MoveIn) {
			return out[i].MoveIn.Before(out[j].MoveIn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// EXPENSE LINES (insert-only)
// =============================================================================

func (m *Memory) AddExpenseLine(_ context.Context, l settlement.ExpenseLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Key == nil {
		return fmt.Errorf("expense line %s has no allocation key", l.ID)
	}
	if m.state.lineIDs[l.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateExpenseLine, l.ID)
	}
	if target := settlement.DirectTarget(l.Key); target != "" {
		if _, ok := m.state.tenancies[target]; !ok {
			return fmt.Errorf("direct target %s: %w", target, generic.ErrEntityNotFound)
		}
	}
	if l.Proration == "" {
		l.Proration = generic.ProrateLinear
	}
	m.state.lines = append(m.state.lines, l)
	m.state.lineIDs[l.ID] = true
	return nil
}

// ListExpenseLines returns the lines of a billing year in entry order.
func (m *Memory) ListExpenseLines(_ context.Context, billingYear int) ([]settlement.ExpenseLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []settlement.ExpenseLine
	for _, l := range m.state.lines {
		if l.BillingYear == billingYear {
			out = append(out, l)
		}
	}
	return out, nil
}

// =============================================================================
// METERS & READINGS
// =============================================================================

func (m *Memory) SaveMeter(_ context.Context, meter metering.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.state.meters {
		if existing.ID == meter.ID {
			m.state.meters[i] = meter
			return nil
		}
	}
	m.state.meters = append(m.state.meters, meter)
	return nil
}

func (m *Memory) ListMeters(_ context.Context) ([]metering.Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]metering.Meter(nil), m.state.meters...), nil
}

// SaveReading stores a reading; the same meter and day replaces it.
func (m *Memory) SaveReading(_ context.Context, r metering.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := false
	for _, meter := range m.state.meters {
		if meter.ID == r.MeterID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("meter %s: %w", r.MeterID, generic.ErrEntityNotFound)
	}
	m.state.readings[readingKey{MeterID: r.MeterID, Date: r.Date.String()}] = r
	return nil
}

// ListReadings returns all readings ordered by meter and date.
func (m *Memory) ListReadings(_ context.Context) ([]metering.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]metering.Reading, 0, len(m.state.readings))
	for _, r := range m.state.readings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeterID != out[j].MeterID {
			return out[i].MeterID < out[j].MeterID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// =============================================================================
// PAYMENTS & SNAPSHOTS
// =============================================================================

func (m *Memory) SavePayment(_ context.Context, p payments.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.tenancies[p.TenancyID]; !ok {
		return fmt.Errorf("tenancy %s: %w", p.TenancyID, generic.ErrEntityNotFound)
	}
	m.state.payments[p.ID] = p
	return nil
}

// ListPayments returns the payments booked for a rent year, newest month
// first.
func (m *Memory) ListPayments(_ context.Context, year int) ([]payments.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payments.Payment
	for _, p := range m.state.payments {
		if p.PeriodYear == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PeriodMonth != out[j].PeriodMonth {
			return out[i].PeriodMonth > out[j].PeriodMonth
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) SaveSnapshot(_ context.Context, snap settlement.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.snapshots[snap.TenancyID+"|"+snap.PeriodStart+"|"+snap.PeriodEnd] = snap
	return nil
}

func (m *Memory) ListSnapshots(_ context.Context, tenancyID string) ([]settlement.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []settlement.Snapshot
	for _, s := range m.state.snapshots {
		if s.TenancyID == tenancyID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart > out[j].PeriodStart })
	return out, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newState()
	return nil
}
