// Package payments tracks monthly rent and prepayment receipts.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
	"golang.org/x/sync/errgroup"
)

// Payment is one receipt booked against a tenancy and a rent month.
type Payment struct {
	ID          string
	TenancyID   string
	Amount      generic.Amount
	PeriodYear  int
	PeriodMonth time.Month
	PaidOn      generic.TimePoint
	Note        string
}

// Source provides the records payment reports are built from.
type Source interface {
	ListTenancies(ctx context.Context) ([]settlement.Tenancy, error)
	ListUnits(ctx context.Context) ([]settlement.Unit, error)
	ListPayments(ctx context.Context, year int) ([]Payment, error)
}

// =============================================================================
// EXPECTED AMOUNTS
// =============================================================================

// Schedule is what a tenancy owes each month: base rent plus prepayment,
// from the month of move-in through the month of move-out.
func Schedule(t settlement.Tenancy, u settlement.Unit) generic.MonthlySchedule {
	s := generic.MonthlySchedule{
		Amount: generic.Money(u.BaseRent.Value.Add(t.MonthlyPrepayment.Value)),
		Start:  t.MoveIn,
		Reason: "rent and prepayment",
	}
	if t.MoveOut != nil {
		s.End = *t.MoveOut
	}
	return s
}

// Due is a tenancy's position for one month.
type Due struct {
	TenancyID  string
	TenantName string
	UnitName   string
	Expected   generic.Amount
	Received   generic.Amount
	Shortfall  generic.Amount
}

// Outstanding lists the tenancies active in the month whose receipts for
// it are below what is due, in tenancy order.
func Outstanding(tenancies []settlement.Tenancy, units []settlement.Unit, payments []Payment, year int, month time.Month) []Due {
	from := generic.StartOfMonth(year, month)
	to := generic.EndOfMonth(year, month)
	unitsByID := indexUnits(units)
	received := receivedBy(payments, func(p Payment) bool { return p.PeriodYear == year && p.PeriodMonth == month })

	var out []Due
	for _, t := range tenancies {
		u := unitsByID[t.UnitID]
		expected := generic.TotalDue(Schedule(t, u), generic.UnitEUR, from, to)
		if expected.IsZero() {
			continue
		}
		got := received.of(t.ID)
		if !got.LessThan(expected) {
			continue
		}
		out = append(out, Due{
			TenancyID:  t.ID,
			TenantName: t.TenantName,
			UnitName:   u.Name,
			Expected:   expected,
			Received:   got,
			Shortfall:  expected.Sub(got),
		})
	}
	return out
}

// Summary totals a tenancy's year.
type Summary struct {
	TenancyID  string
	TenantName string
	UnitName   string
	Expected   generic.Amount
	Received   generic.Amount
	Balance    generic.Amount // received - expected
}

// YearSummary totals expected against received for every tenancy active
// in year.
func YearSummary(tenancies []settlement.Tenancy, units []settlement.Unit, payments []Payment, year int) []Summary {
	unitsByID := indexUnits(units)
	received := receivedBy(payments, func(p Payment) bool { return p.PeriodYear == year })
	period := generic.CalendarYear(year)

	var out []Summary
	for _, t := range tenancies {
		if !settlement.ActiveDuring(t, period) {
			continue
		}
		u := unitsByID[t.UnitID]
		expected := generic.TotalDue(Schedule(t, u), generic.UnitEUR, period.Start, period.End)
		got := received.of(t.ID)
		out = append(out, Summary{
			TenancyID:  t.ID,
			TenantName: t.TenantName,
			UnitName:   u.Name,
			Expected:   expected,
			Received:   got,
			Balance:    got.Sub(expected),
		})
	}
	return out
}

func indexUnits(units []settlement.Unit) map[string]settlement.Unit {
	m := make(map[string]settlement.Unit, len(units))
	for _, u := range units {
		m[u.ID] = u
	}
	return m
}

type receipts map[string]generic.Amount

// of returns the sum for a tenancy, zero EUR when nothing was received.
func (r receipts) of(tenancyID string) generic.Amount {
	if sum, ok := r[tenancyID]; ok {
		return sum
	}
	return generic.ZeroOf(generic.UnitEUR)
}

// receivedBy sums matching payments per tenancy.
func receivedBy(payments []Payment, match func(Payment) bool) receipts {
	r := make(receipts)
	for _, p := range payments {
		if match(p) {
			r[p.TenancyID] = r.of(p.TenancyID).Add(p.Amount)
		}
	}
	return r
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

type snapshot struct {
	tenancies []settlement.Tenancy
	units     []settlement.Unit
	payments  []Payment
}

func (s *Service) load(ctx context.Context, year int) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.tenancies, err = s.source.ListTenancies(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.units, err = s.source.ListUnits(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.payments, err = s.source.ListPayments(ctx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, fmt.Errorf("load payments for %d: %w", year, err)
	}
	return snap, nil
}

func (s *Service) Outstanding(ctx context.Context, year int, month time.Month) ([]Due, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", generic.ErrInvalidPeriod, month)
	}
	snap, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	return Outstanding(snap.tenancies, snap.units, snap.payments, year, month), nil
}

func (s *Service) YearSummary(ctx context.Context, year int) ([]Summary, error) {
	snap, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	return YearSummary(snap.tenancies, snap.units, snap.payments, year), nil
}
