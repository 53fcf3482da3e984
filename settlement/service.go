package settlement

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warp/settlement-engine/generic"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// SOURCE - Read-only collaborator the service loads snapshots from
// =============================================================================

// Source provides the records a statement is computed from. Getters return
// nil, nil when the record does not exist.
type Source interface {
	GetBuilding(ctx context.Context) (*Building, error)
	GetTenancy(ctx context.Context, id string) (*Tenancy, error)
	ListTenancies(ctx context.Context) ([]Tenancy, error)
	ListExpenseLines(ctx context.Context, billingYear int) ([]ExpenseLine, error)
}

// =============================================================================
// SERVICE - Loads a snapshot, runs the pure engine
// =============================================================================

type Service struct {
	source    Source
	snapshots SnapshotStore
	periods   generic.PeriodConfig
	log       *logrus.Entry
}

// NewService wires the engine to its storage. snapshots may be nil when
// statements are never archived.
func NewService(source Source, snapshots SnapshotStore, periods generic.PeriodConfig, log *logrus.Entry) *Service {
	return &Service{source: source, snapshots: snapshots, periods: periods, log: log}
}

// Period returns the billing period labelled year.
func (s *Service) Period(year int) generic.Period {
	return s.periods.PeriodForYear(year)
}

type yearSnapshot struct {
	building  *Building
	tenancies []Tenancy
	lines     []ExpenseLine
}

// load reads the building, tenancies and lines of a billing year
// concurrently. Each read sees its own consistent view; cross-read
// isolation is the store's concern.
func (s *Service) load(ctx context.Context, year int) (yearSnapshot, error) {
	var snap yearSnapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.source.GetBuilding(ctx)
		snap.building = b
		return err
	})
	g.Go(func() error {
		ts, err := s.source.ListTenancies(ctx)
		snap.tenancies = ts
		return err
	})
	g.Go(func() error {
		ls, err := s.source.ListExpenseLines(ctx, year)
		snap.lines = ls
		return err
	})
	if err := g.Wait(); err != nil {
		return yearSnapshot{}, err
	}
	if snap.building == nil {
		return yearSnapshot{}, &generic.ConfigurationError{Fields: []string{"building"}}
	}
	return snap, nil
}

// Statement computes the settlement statement of one tenancy for a
// billing year.
func (s *Service) Statement(ctx context.Context, tenancyID string, year int) (Statement, error) {
	period := s.Period(year)

	var (
		tenancy  *Tenancy
		building *Building
		lines    []ExpenseLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.source.GetTenancy(gctx, tenancyID)
		tenancy = t
		return err
	})
	g.Go(func() error {
		b, err := s.source.GetBuilding(gctx)
		building = b
		return err
	})
	g.Go(func() error {
		ls, err := s.source.ListExpenseLines(gctx, year)
		lines = ls
		return err
	})
	if err := g.Wait(); err != nil {
		return Statement{}, fmt.Errorf("load statement inputs: %w", err)
	}
	if tenancy == nil {
		return Statement{}, fmt.Errorf("tenancy %s: %w", tenancyID, generic.ErrEntityNotFound)
	}
	if building == nil {
		return Statement{}, &generic.ConfigurationError{Fields: []string{"building"}}
	}

	stmt, err := Compute(Input{Building: building, Tenancy: *tenancy, Lines: lines, Period: period})
	if err != nil {
		s.log.WithFields(logrus.Fields{"tenancy": tenancyID, "year": year}).WithError(err).Warn("statement rejected")
		return Statement{}, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"tenancy": tenancyID,
		"year":    year,
		"lines":   len(stmt.Breakdown.Rows),
		"balance": stmt.Settlement.Balance.Value.StringFixed(2),
	})
	if err := stmt.Breakdown.Err(); err != nil {
		entry.WithError(err).Warn("statement computed with flagged lines")
	} else {
		entry.Debug("statement computed")
	}
	return stmt, nil
}

// Statements computes a statement for every tenancy active in the billing
// year, in store order.
func (s *Service) Statements(ctx context.Context, year int) ([]Statement, error) {
	snap, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	period := s.Period(year)
	var out []Statement
	for _, t := range snap.tenancies {
		if !ActiveDuring(t, period) {
			continue
		}
		stmt, err := Compute(Input{Building: snap.building, Tenancy: t, Lines: snap.lines, Period: period})
		if err != nil {
			return nil, fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

// Distribution spreads every line of the billing year over all tenancies.
func (s *Service) Distribution(ctx context.Context, year int) ([]Distribution, error) {
	snap, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	period := s.Period(year)
	lines := FilterLines(snap.lines, period)
	agg, err := snap.building.Aggregates(lines)
	if err != nil {
		return nil, err
	}
	return DistributeAll(lines, snap.tenancies, agg, period), nil
}

// Archive computes and freezes a tenancy's statement.
func (s *Service) Archive(ctx context.Context, tenancyID string, year int) (Snapshot, error) {
	if s.snapshots == nil {
		return Snapshot{}, fmt.Errorf("statement archive not configured")
	}
	stmt, err := s.Statement(ctx, tenancyID, year)
	if err != nil {
		return Snapshot{}, err
	}
	snap := NewSnapshot(stmt, generic.Today())
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.log.WithFields(logrus.Fields{"tenancy": tenancyID, "year": year, "snapshot": snap.ID}).Info("statement archived")
	return snap, nil
}

// ArchivedStatements lists the frozen statements of a tenancy.
func (s *Service) ArchivedStatements(ctx context.Context, tenancyID string) ([]Snapshot, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	return s.snapshots.ListSnapshots(ctx, tenancyID)
}
