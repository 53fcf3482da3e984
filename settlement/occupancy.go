package settlement

import "github.com/warp/settlement-engine/generic"

// =============================================================================
// OCCUPANCY WINDOW
// =============================================================================

// Window returns the tenancy's occupancy clamped to period. ok is false
// when the tenancy does not touch the period at all.
func Window(t Tenancy, period generic.Period) (generic.Period, bool) {
	end := period.End
	if t.MoveOut != nil {
		end = generic.MinTimePoint(*t.MoveOut, end)
	}
	w := generic.Period{Start: generic.MaxTimePoint(t.MoveIn, period.Start), End: end}
	if w.End.Before(w.Start) {
		return generic.Period{}, false
	}
	return w, true
}

// OccupancyDays counts the days of period the tenancy occupies, both
// boundary days included. Never negative.
func OccupancyDays(t Tenancy, period generic.Period) int {
	w, ok := Window(t, period)
	if !ok {
		return 0
	}
	return w.Days()
}

// ActiveDuring reports whether the tenancy occupies at least one day of period.
func ActiveDuring(t Tenancy, period generic.Period) bool {
	_, ok := Window(t, period)
	return ok
}
