/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap or return these so callers can branch with
  errors.Is / errors.As without importing every domain package.

ERROR CATEGORIES:
  1. Fatal errors - abort the single computation they belong to
     (ConfigurationError, AllocationBasisError for its line,
     TenancyWindowError, invalid period)
  2. Warnings - attached to results, never raised
     (MeterIncompleteError, MeterAnomalyError)
  3. Store / registry errors - not found, duplicates, meter topology

USAGE:
  if errors.Is(err, generic.ErrInvalidAllocationBasis) {
      // show the row flagged, keep the rest of the statement
  }

SEE ALSO:
  - settlement/allocation.go: Raises AllocationBasisError
  - metering/net.go: Attaches meter warnings
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when a building aggregate a computation
	// needs is missing or not yet set by an administrator.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidAllocationBasis is returned when an allocation key has a
	// zero or negative denominator. Fatal for that expense line only.
	ErrInvalidAllocationBasis = errors.New("invalid allocation basis")

	// ErrMeterDataIncomplete marks a meter with fewer than two bounding
	// readings in the requested interval. Warning only.
	ErrMeterDataIncomplete = errors.New("meter data incomplete")

	// ErrMeterReadingAnomaly marks a negative computed consumption, which
	// implies a meter swap or mis-entry. Warning only.
	ErrMeterReadingAnomaly = errors.New("meter reading anomaly")

	// ErrInvalidTenancyWindow is returned when move-out precedes move-in.
	ErrInvalidTenancyWindow = errors.New("invalid tenancy window: move-out before move-in")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrEntityNotFound is returned when a referenced record doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMeterCycle is returned when a parent assignment would make a meter
	// its own ancestor.
	ErrMeterCycle = errors.New("meter parent assignment would create a cycle")

	// ErrInvalidMeterParent is returned when a parent link breaks the
	// submeter rules (missing parent, parent is a submeter, medium mismatch).
	ErrInvalidMeterParent = errors.New("invalid meter parent")

	// ErrDuplicateMeter is returned when a meter id is registered twice.
	ErrDuplicateMeter = errors.New("duplicate meter")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError lists the building aggregates that are missing.
type ConfigurationError struct {
	Fields []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("building aggregates not configured: %s", strings.Join(e.Fields, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// AllocationBasisError reports an unusable allocation denominator for one
// expense line, with enough context to fix the data and retry.
type AllocationBasisError struct {
	Category string
	Year     int
	Key      string
	Reason   string
}

func (e *AllocationBasisError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("invalid allocation basis for key %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid allocation basis for %q (%d, key %s): %s",
		e.Category, e.Year, e.Key, e.Reason)
}

func (e *AllocationBasisError) Unwrap() error {
	return ErrInvalidAllocationBasis
}

// MeterIncompleteError is attached to meter results lacking readings.
type MeterIncompleteError struct {
	MeterID  string
	Interval Period
	Readings int // distinct bounding readings found (0 or 1)
}

func (e *MeterIncompleteError) Error() string {
	return fmt.Sprintf("meter %s has %d bounding reading(s) for %s, consumption reported as 0",
		e.MeterID, e.Readings, e.Interval)
}

func (e *MeterIncompleteError) Unwrap() error {
	return ErrMeterDataIncomplete
}

// MeterAnomalyError is attached when a consumption or net value is negative.
type MeterAnomalyError struct {
	MeterID string
	Value   Amount
	Net     bool // true when the anomaly is the parent's net value
}

func (e *MeterAnomalyError) Error() string {
	what := "consumption"
	if e.Net {
		what = "net consumption"
	}
	return fmt.Sprintf("meter %s: negative %s %s", e.MeterID, what, e.Value)
}

func (e *MeterAnomalyError) Unwrap() error {
	return ErrMeterReadingAnomaly
}

// TenancyWindowError reports a tenancy whose move-out precedes move-in.
type TenancyWindowError struct {
	TenancyID string
	MoveIn    TimePoint
	MoveOut   TimePoint
}

func (e *TenancyWindowError) Error() string {
	return fmt.Sprintf("tenancy %s: move-out %s before move-in %s", e.TenancyID, e.MoveOut, e.MoveIn)
}

func (e *TenancyWindowError) Unwrap() error {
	return ErrInvalidTenancyWindow
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsWarning returns true for errors that annotate a result instead of
// aborting it.
func IsWarning(err error) bool {
	return errors.Is(err, ErrMeterDataIncomplete) ||
		errors.Is(err, ErrMeterReadingAnomaly)
}

// IsClientError returns true if the error is due to invalid input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidAllocationBasis) ||
		errors.Is(err, ErrInvalidTenancyWindow) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMeterCycle) ||
		errors.Is(err, ErrInvalidMeterParent) ||
		errors.Is(err, ErrDuplicateMeter)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
