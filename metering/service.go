package metering

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
)

// Store persists meters and readings.
type Store interface {
	ListMeters(ctx context.Context) ([]Meter, error)
	SaveMeter(ctx context.Context, m Meter) error
	ListReadings(ctx context.Context) ([]Reading, error)
	SaveReading(ctx context.Context, r Reading) error
}

// Service validates meter topology against the stored registry before
// writing, and runs reports over stored readings.
type Service struct {
	store Store
	log   *logrus.Entry
}

func NewService(store Store, log *logrus.Entry) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) registry(ctx context.Context) (*Registry, error) {
	meters, err := s.store.ListMeters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	return BuildRegistry(meters)
}

// AddMeter registers and stores a meter.
func (s *Service) AddMeter(ctx context.Context, m Meter) error {
	reg, err := s.registry(ctx)
	if err != nil {
		return err
	}
	if err := reg.Add(m); err != nil {
		return err
	}
	return s.store.SaveMeter(ctx, m)
}

// AssignParent makes childID a submeter of parentID.
func (s *Service) AssignParent(ctx context.Context, childID, parentID string) (Meter, error) {
	reg, err := s.registry(ctx)
	if err != nil {
		return Meter{}, err
	}
	if err := reg.AssignParent(childID, parentID); err != nil {
		return Meter{}, err
	}
	child, _ := reg.Get(childID)
	if err := s.store.SaveMeter(ctx, child); err != nil {
		return Meter{}, err
	}
	s.log.WithFields(logrus.Fields{"meter": childID, "parent": parentID}).Info("submeter assigned")
	return child, nil
}

// AddReading stores a reading for an existing meter.
func (s *Service) AddReading(ctx context.Context, r Reading) error {
	reg, err := s.registry(ctx)
	if err != nil {
		return err
	}
	if _, ok := reg.Get(r.MeterID); !ok {
		return fmt.Errorf("meter %s: %w", r.MeterID, generic.ErrEntityNotFound)
	}
	return s.store.SaveReading(ctx, r)
}

// Report computes net results for every main meter with submeters.
func (s *Service) Report(ctx context.Context, interval generic.Period) ([]NetResult, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	reg, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	results := Report(reg, readings, interval)
	for _, r := range results {
		if len(r.Warnings) > 0 {
			s.log.WithFields(logrus.Fields{
				"meter":      r.Parent.ID,
				"incomplete": r.Incomplete,
				"anomaly":    r.Anomaly,
			}).Warn("meter report has warnings")
		}
	}
	return results, nil
}

// Bill prices the net result of parentID over interval.
func (s *Service) Bill(ctx context.Context, parentID string, interval generic.Period, tariff Tariff, assignments map[string]string) ([]settlement.ExpenseLine, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}
	reg, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	parent, ok := reg.Get(parentID)
	if !ok {
		return nil, fmt.Errorf("meter %s: %w", parentID, generic.ErrEntityNotFound)
	}
	if parent.IsSubmeter {
		return nil, fmt.Errorf("%w: %s is a submeter", generic.ErrInvalidMeterParent, parentID)
	}
	readings, err := s.store.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	res := NetConsumption(parent, reg.Children(parentID), readings, interval)
	return ToExpenseLines(res, tariff, assignments)
}
